package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/pkg/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxReferralDepth caps ancestor walks; nothing beyond ten hops is tracked or paid.
const MaxReferralDepth = 10

type ReferralService struct {
	DB *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{DB: db}
}

// AncestorRef identifies one ancestor in a referral chain. Level 1 is the
// direct referrer.
type AncestorRef struct {
	UserId int
	Level  int
}

// LinkNewAccount links a freshly registered account into the referral tree.
// An absent, unresolvable, or self-referencing code is a documented no-op,
// not an error: registration proceeds without a referral link. Returns true
// when a link was established.
func (s *ReferralService) LinkNewAccount(userId int, referralCode string) (bool, error) {
	code := strings.ToUpper(strings.TrimSpace(referralCode))
	if code == "" {
		return false, nil
	}

	var referrer models.User
	err := s.DB.Where("UPPER(referral_code) = ?", code).First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if referrer.ID == userId {
		// Self-referral. Leave the account unlinked.
		return false, nil
	}

	// A code is only valid for new signups while its owner's subscription is
	// active and unexpired.
	if !referrer.HasActiveSubscription(time.Now()) {
		return false, nil
	}

	var user models.User
	if err := s.DB.First(&user, userId).Error; err != nil {
		return false, err
	}
	if user.ReferrerId != nil {
		// Already linked; a registration retry must not overwrite the chain.
		return false, nil
	}

	ancestors := s.walkAncestors(referrer.ID, userId)

	links := make([]models.ReferralLink, 0, len(ancestors))
	for _, a := range ancestors {
		links = append(links, models.ReferralLink{
			AncestorId:   a.UserId,
			DescendantId: userId,
			Level:        a.Level,
		})
	}

	// One transaction for the referrer pointer and every level-membership row.
	// The conditional update keeps a concurrent retry from relinking; the
	// conflict clause gives the link inserts set-union semantics.
	linked := false
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND referrer_id IS NULL", userId).
			Update("referrer_id", referrer.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		linked = true
		if len(links) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
	if err != nil {
		return false, err
	}
	return linked, nil
}

// CollectAncestors returns the ordered ancestor chain of a user, level 1
// first, capped at MaxReferralDepth. The referrer pointer chain is the source
// of truth; the referral_links table is never consulted here.
func (s *ReferralService) CollectAncestors(userId int) ([]AncestorRef, error) {
	var user models.User
	if err := s.DB.Select("id", "referrer_id").First(&user, userId).Error; err != nil {
		return nil, err
	}
	if user.ReferrerId == nil {
		return nil, nil
	}
	return s.walkAncestors(*user.ReferrerId, userId), nil
}

func (s *ReferralService) walkAncestors(firstAncestor, origin int) []AncestorRef {
	var chain []AncestorRef
	current := firstAncestor

	for level := 1; level <= MaxReferralDepth; level++ {
		if current == origin {
			// An account may never appear in its own ancestor chain.
			log.Printf("referral chain for user %d loops back on itself at level %d", origin, level)
			break
		}
		var u models.User
		if err := s.DB.Select("id", "referrer_id").First(&u, current).Error; err != nil {
			break
		}
		chain = append(chain, AncestorRef{UserId: u.ID, Level: level})
		if u.ReferrerId == nil {
			break
		}
		current = *u.ReferrerId
	}
	return chain
}

// EnsureReferralCode generates a referral code for a user if one is absent.
// Regeneration is a no-op; the first code a user receives is permanent.
func (s *ReferralService) EnsureReferralCode(userId int) (string, error) {
	var user models.User
	if err := s.DB.First(&user, userId).Error; err != nil {
		return "", err
	}
	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return *user.ReferralCode, nil
	}

	// Retry on the unique index; collisions on an 8-char code are rare but real.
	for attempt := 0; attempt < 5; attempt++ {
		code := common.GenerateReferralCode()
		res := s.DB.Model(&models.User{}).
			Where("id = ? AND referral_code IS NULL", userId).
			Update("referral_code", code)
		if res.Error == nil && res.RowsAffected > 0 {
			return code, nil
		}
		if res.Error == nil {
			// Lost a race with another generator; the existing code stands.
			if err := s.DB.First(&user, userId).Error; err != nil {
				return "", err
			}
			if user.ReferralCode != nil {
				return *user.ReferralCode, nil
			}
			return "", fmt.Errorf("referral code generation raced for user %d", userId)
		}
	}
	return "", fmt.Errorf("could not generate a unique referral code for user %d", userId)
}

// HandleSubscriptionExpiry deactivates a lapsed subscription. The referral
// code is kept but stops validating for new signups while inactive.
func (s *ReferralService) HandleSubscriptionExpiry(userId int) error {
	return s.DB.Model(&models.User{}).Where("id = ?", userId).
		Update("sub_is_active", false).Error
}

type ReferralStatsDTO struct {
	UserId int
	Page   int
	Limit  int
}

// GetReferralStats reports per-level referral counts, earnings, and a
// paginated listing of direct referrals.
func (s *ReferralService) GetReferralStats(data ReferralStatsDTO) (interface{}, error) {
	var user models.User
	if err := s.DB.First(&user, data.UserId).Error; err != nil {
		return common.NewErrorResponse("User not found", nil, 404), nil
	}

	type levelCount struct {
		Level int   `json:"level"`
		Count int64 `json:"count"`
	}
	var rows []levelCount
	if err := s.DB.Model(&models.ReferralLink{}).
		Select("level, COUNT(*) as count").
		Where("ancestor_id = ?", data.UserId).
		Group("level").
		Scan(&rows).Error; err != nil {
		return common.NewErrorResponse("Failed to load referral counts", nil, 500), nil
	}

	counts := map[string]int64{}
	for i := 1; i <= MaxReferralDepth; i++ {
		counts[fmt.Sprintf("level%d", i)] = 0
	}
	for _, r := range rows {
		counts[fmt.Sprintf("level%d", r.Level)] = r.Count
	}

	limit := data.Limit
	if limit <= 0 {
		limit = 50
	}
	page := data.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	var direct []models.User
	var directTotal int64
	q := s.DB.Model(&models.User{}).
		Joins("JOIN referral_links rl ON rl.descendant_id = users.id").
		Where("rl.ancestor_id = ? AND rl.level = 1", data.UserId)
	q.Count(&directTotal)
	if err := q.Select("users.id, users.name, users.username, users.sub_is_active, users.sub_expiry_date").
		Limit(limit).Offset(offset).Find(&direct).Error; err != nil {
		return common.NewErrorResponse("Failed to load direct referrals", nil, 500), nil
	}

	activeDirect := 0
	now := time.Now()
	for i := range direct {
		if direct[i].HasActiveSubscription(now) {
			activeDirect++
		}
	}

	earnings := map[string]float64{
		"level1":  user.EarningsLevel1,
		"level2":  user.EarningsLevel2,
		"level3":  user.EarningsLevel3,
		"level4":  user.EarningsLevel4,
		"level5":  user.EarningsLevel5,
		"level6":  user.EarningsLevel6,
		"level7":  user.EarningsLevel7,
		"level8":  user.EarningsLevel8,
		"level9":  user.EarningsLevel9,
		"level10": user.EarningsLevel10,
	}

	code := ""
	if user.ReferralCode != nil {
		code = *user.ReferralCode
	}

	return map[string]interface{}{
		"success":              true,
		"referralCode":         code,
		"isSubscriptionActive": user.HasActiveSubscription(now),
		"referralStats": map[string]interface{}{
			"counts":          counts,
			"earningsByLevel": earnings,
			"totalEarnings":   user.TotalEarnings,
			"directReferrals": map[string]interface{}{
				"active":  activeDirect,
				"listing": common.PaginateResponse(direct, directTotal, page, limit, ""),
			},
		},
	}, nil
}
