package services

import (
	"log"
	"time"

	"marketplace-service/internal/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// SubscriptionDurationDays is the paid membership window.
const SubscriptionDurationDays = 30

type SubscriptionService struct {
	DB       *gorm.DB
	Referral *ReferralService
	cron     *cron.Cron
}

func NewSubscriptionService(db *gorm.DB, referral *ReferralService) *SubscriptionService {
	return &SubscriptionService{DB: db, Referral: referral}
}

// Activate marks a user's subscription paid for the next thirty days and
// issues their referral code. Keyed on subscriptionId: re-activating with the
// same id is a no-op, so a replayed settlement cannot extend the window twice.
func (s *SubscriptionService) Activate(userId int, amount float64, subscriptionId string) error {
	now := time.Now()
	expiry := now.AddDate(0, 0, SubscriptionDurationDays)

	res := s.DB.Model(&models.User{}).
		Where("id = ? AND sub_subscription_id != ?", userId, subscriptionId).
		Updates(map[string]interface{}{
			"sub_is_active":       true,
			"sub_purchase_date":   now,
			"sub_expiry_date":     expiry,
			"sub_amount_paid":     amount,
			"sub_subscription_id": subscriptionId,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the user does not exist or this activation already applied.
		var count int64
		s.DB.Model(&models.User{}).Where("id = ?", userId).Count(&count)
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}

	if _, err := s.Referral.EnsureReferralCode(userId); err != nil {
		log.Printf("Referral code generation failed for user %d: %v", userId, err)
	}
	return nil
}

// Status returns the subscription fields for one user.
func (s *SubscriptionService) Status(userId int) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, userId).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ExpireLapsed flips sub_is_active off for every user whose window has
// passed. Earnings and referral codes survive expiry; only eligibility for
// new commissions and new referrals lapses.
func (s *SubscriptionService) ExpireLapsed() {
	res := s.DB.Model(&models.User{}).
		Where("sub_is_active = ? AND sub_expiry_date < ?", true, time.Now()).
		Update("sub_is_active", false)
	if res.Error != nil {
		log.Printf("Error expiring lapsed subscriptions: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("Expired %d lapsed subscriptions", res.RowsAffected)
	}
}

// StartScheduler runs the expiry sweep daily at midnight.
func (s *SubscriptionService) StartScheduler() {
	c := cron.New()
	_, err := c.AddFunc("0 0 * * *", func() {
		log.Println("Running scheduled subscription expiry sweep...")
		s.ExpireLapsed()
	})
	if err != nil {
		log.Printf("Error scheduling subscription expiry task: %v", err)
		return
	}
	c.Start()
	s.cron = c
	log.Println("Subscription Expiry Scheduler started (Daily at 00:00)")
}

func (s *SubscriptionService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
