package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/pkg/common"

	"gorm.io/gorm"
)

// WithdrawalFeeRate is retained by the platform on every payout.
const WithdrawalFeeRate = 0.10

type WithdrawalService struct {
	DB *gorm.DB

	// now supplies the clock for the Sunday gate and the settlement stamp.
	now func() time.Time
}

func NewWithdrawalService(db *gorm.DB) *WithdrawalService {
	return &WithdrawalService{DB: db, now: time.Now}
}

// PayoutAmount is what the user receives for a requested amount: ninety
// percent, floored to the whole unit.
func PayoutAmount(requested float64) float64 {
	return math.Floor(requested * (1 - WithdrawalFeeRate))
}

// RequestWithdrawal opens a payout request against the referral ledger.
// Requests are taken on Sundays only, one open request per user at a time,
// require a registered payout account, and may not exceed current earnings.
// The ledger is not debited here; approval does that.
func (s *WithdrawalService) RequestWithdrawal(userId int, amount float64) (*models.Withdrawal, error) {
	if s.now().Weekday() != time.Sunday {
		return nil, fmt.Errorf("withdrawals can only be requested on Sundays")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive")
	}

	var user models.User
	if err := s.DB.First(&user, userId).Error; err != nil {
		return nil, err
	}
	if user.PendingWithdrawal {
		return nil, fmt.Errorf("a withdrawal request is already pending")
	}
	if user.TotalEarnings < amount {
		return nil, fmt.Errorf("insufficient earnings: have %.2f, requested %.2f", user.TotalEarnings, amount)
	}

	var account models.WithdrawalAccount
	if err := s.DB.Where("user_id = ? AND status = ?", userId, 1).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no withdrawal account registered")
		}
		return nil, err
	}

	var withdrawal models.Withdrawal
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// The conditional flag flip is the guard against a double submit.
		res := tx.Model(&models.User{}).
			Where("id = ? AND pending_withdrawal = ?", userId, false).
			Update("pending_withdrawal", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("a withdrawal request is already pending")
		}

		withdrawal = models.Withdrawal{
			UserId:          userId,
			Username:        user.Username,
			AmountRequested: amount,
			AmountPaid:      PayoutAmount(amount),
			WithdrawalCode:  common.GenerateTrxNo(),
			Status:          models.WithdrawalStatusPending,
		}
		return tx.Create(&withdrawal).Error
	})
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// UpdateWithdrawalStatus settles a pending request. Approval debits the full
// requested amount from the ledger exactly once: both the request-status flip
// and the ledger debit are conditional updates inside one transaction, so a
// replayed approval or a balance that has since dropped leaves everything
// untouched. Rejection releases the pending flag with the ledger unchanged.
func (s *WithdrawalService) UpdateWithdrawalStatus(withdrawalId, status int, comment, updatedBy string) error {
	if status != models.WithdrawalStatusApproved && status != models.WithdrawalStatusRejected {
		return fmt.Errorf("invalid withdrawal status: %d", status)
	}

	var withdrawal models.Withdrawal
	if err := s.DB.First(&withdrawal, withdrawalId).Error; err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", withdrawalId, models.WithdrawalStatusPending).
			Updates(map[string]interface{}{
				"status":     status,
				"comment":    comment,
				"updated_by": updatedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already settled; approving or rejecting twice is a no-op.
			return nil
		}

		if status == models.WithdrawalStatusRejected {
			return tx.Model(&models.User{}).Where("id = ?", withdrawal.UserId).
				Update("pending_withdrawal", false).Error
		}

		now := s.now()
		debit := tx.Model(&models.User{}).
			Where("id = ? AND total_earnings >= ?", withdrawal.UserId, withdrawal.AmountRequested).
			UpdateColumns(map[string]interface{}{
				"total_earnings":       gorm.Expr("total_earnings - ?", withdrawal.AmountRequested),
				"total_withdrawn":      gorm.Expr("total_withdrawn + ?", withdrawal.AmountPaid),
				"pending_withdrawal":   false,
				"last_withdrawal_date": now,
			})
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			return fmt.Errorf("user %d earnings below requested amount %.2f",
				withdrawal.UserId, withdrawal.AmountRequested)
		}
		return nil
	})
}

// ListWithdrawals returns a user's withdrawal history, newest first.
func (s *WithdrawalService) ListWithdrawals(userId, page, limit int) (interface{}, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	s.DB.Model(&models.Withdrawal{}).Where("user_id = ?", userId).Count(&total)

	var withdrawals []models.Withdrawal
	err := s.DB.Where("user_id = ?", userId).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return common.PaginateResponse(withdrawals, total, page, limit, ""), nil
}

// SaveWithdrawalAccount creates or replaces a user's payout account.
func (s *WithdrawalService) SaveWithdrawalAccount(userId int, accountNumber, accountHolder, bankName string) (*models.WithdrawalAccount, error) {
	if accountNumber == "" || accountHolder == "" || bankName == "" {
		return nil, fmt.Errorf("account number, holder and bank name are required")
	}

	var account models.WithdrawalAccount
	err := s.DB.Where("user_id = ?", userId).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = models.WithdrawalAccount{
			UserId:        userId,
			AccountNumber: accountNumber,
			AccountHolder: accountHolder,
			BankName:      bankName,
			Status:        1,
		}
		if err := s.DB.Create(&account).Error; err != nil {
			return nil, err
		}
		return &account, nil
	}
	if err != nil {
		return nil, err
	}

	account.AccountNumber = accountNumber
	account.AccountHolder = accountHolder
	account.BankName = bankName
	account.Status = 1
	if err := s.DB.Save(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}
