package consumers

import (
	"log"

	"marketplace-service/internal/services"

	"gorm.io/gorm"
)

// SettlementProcessor executes the queued follow-ups to payments and orders:
// the scheduled first status check of an in-flight payment, and the wallet
// credit owed when an order is delivered. Both underlying operations are
// idempotent, so a task retry after a crash is safe.
type SettlementProcessor struct {
	DB         *gorm.DB
	Settlement *services.SettlementService
	Order      *services.OrderService
}

func NewSettlementProcessor(db *gorm.DB, settlement *services.SettlementService, order *services.OrderService) *SettlementProcessor {
	return &SettlementProcessor{
		DB:         db,
		Settlement: settlement,
		Order:      order,
	}
}

// --- DTOs ---

type WalletCreditDTO struct {
	OrderId int `json:"order_id"`
}

type SettlementCheckDTO struct {
	TxnRefNo string `json:"txn_ref_no"`
}

// ProcessWalletCredit pays the deferred discount for a delivered order.
func (p *SettlementProcessor) ProcessWalletCredit(data WalletCreditDTO) error {
	credited, err := p.Order.CreditOnDelivery(data.OrderId)
	if err != nil {
		log.Printf("Wallet credit for order %d failed: %v", data.OrderId, err)
		return err
	}
	log.Printf("Wallet credit for order %d: %.2f credited", data.OrderId, credited)
	return nil
}

// ProcessSettlementCheck runs the first status check for a payment reference.
// The cron sweep remains the catch-all; this task just makes the first check
// prompt. CheckStatus itself enforces the schedule, so a task delivered early
// stays silent.
func (p *SettlementProcessor) ProcessSettlementCheck(data SettlementCheckDTO) error {
	result, err := p.Settlement.CheckStatus(data.TxnRefNo)
	if err != nil {
		log.Printf("Settlement check for %s failed: %v", data.TxnRefNo, err)
		return err
	}
	log.Printf("Settlement check for %s: %s", data.TxnRefNo, result.Status)
	return nil
}
