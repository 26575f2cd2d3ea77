package services

import (
	"fmt"
	"log"

	"marketplace-service/pkg/common"

	"gorm.io/gorm"
)

// Payout percentages by level, 1-indexed. The table sums to 63% of the
// triggering amount; the remainder is margin, not redistribution.
var referralPercentages = [MaxReferralDepth]float64{
	0.20, 0.12, 0.10, 0.08, 0.07,
	0.02, 0.02, 0.02, 0.02, 0.02,
}

// PercentageForLevel returns the payout fraction for a 1-indexed level.
func PercentageForLevel(level int) float64 {
	if level < 1 || level > MaxReferralDepth {
		return 0
	}
	return referralPercentages[level-1]
}

type CommissionService struct {
	DB       *gorm.DB
	Helper   *HelperService
	Referral *ReferralService
}

func NewCommissionService(db *gorm.DB, helper *HelperService, referral *ReferralService) *CommissionService {
	return &CommissionService{DB: db, Helper: helper, Referral: referral}
}

// Distribute pays each ancestor of the buyer its level percentage of amount.
// The service performs no de-duplication of its own: the caller must invoke
// it from an exactly-once context (the settlement promotion path). A buyer
// with no referrer is a no-op. Each ancestor credit is independent; one
// failing is logged and skipped, never rolled back or retried here.
func (s *CommissionService) Distribute(buyerId int, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("distribution amount must be positive, got %v", amount)
	}

	ancestors, err := s.Referral.CollectAncestors(buyerId)
	if err != nil {
		return err
	}
	if len(ancestors) == 0 {
		return nil
	}

	for _, a := range ancestors {
		commission := common.Round2(amount * PercentageForLevel(a.Level))
		if commission <= 0 {
			continue
		}
		if err := s.Helper.CreditEarnings(a.UserId, a.Level, commission); err != nil {
			log.Printf("Commission credit failed: user %d level %d amount %.2f: %v",
				a.UserId, a.Level, commission, err)
		}
	}
	return nil
}
