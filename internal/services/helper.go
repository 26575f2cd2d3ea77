package services

import (
	"encoding/json"
	"fmt"

	"marketplace-service/internal/models"

	"gorm.io/gorm"
)

type HelperService struct {
	DB *gorm.DB
}

func NewHelperService(db *gorm.DB) *HelperService {
	return &HelperService{DB: db}
}

// CreditEarnings applies a single commission credit to a user's ledger. Both
// the per-level bucket and the running total are incremented in one statement
// so concurrent credits never lose updates.
func (s *HelperService) CreditEarnings(userId, level int, amount float64) error {
	if level < 1 || level > 10 {
		return fmt.Errorf("invalid referral level: %d", level)
	}
	column := fmt.Sprintf("earnings_level%d", level)

	res := s.DB.Model(&models.User{}).Where("id = ?", userId).
		UpdateColumns(map[string]interface{}{
			column:           gorm.Expr(column+" + ?", amount),
			"total_earnings": gorm.Expr("total_earnings + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d not found", userId)
	}
	return nil
}

// LogCallback records an inbound callback or status-inquiry exchange for audit.
func (s *HelperService) LogCallback(txnRefNo, requestType, provider string, request, response interface{}, status int) {
	reqBytes, _ := json.Marshal(request)
	respBytes, _ := json.Marshal(response)

	entry := models.CallbackLog{
		TxnRefNo:    txnRefNo,
		Request:     string(reqBytes),
		Response:    string(respBytes),
		RequestType: requestType,
		Provider:    provider,
		Status:      status,
	}
	s.DB.Create(&entry)
}
