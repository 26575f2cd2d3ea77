package models

import (
	"time"
)

const (
	WithdrawalStatusPending  = 0
	WithdrawalStatusApproved = 1
	WithdrawalStatusRejected = 2
)

// Withdrawal is an append-only record of a payout request against the
// referral ledger. AmountPaid is AmountRequested less the processing fee.
type Withdrawal struct {
	ID              int       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserId          int       `gorm:"column:user_id;not null;index" json:"user_id"`
	Username        string    `gorm:"column:username;size:255;not null" json:"username"`
	AmountRequested float64   `gorm:"column:amount_requested;type:decimal(20,2);not null" json:"amount_requested"`
	AmountPaid      float64   `gorm:"column:amount_paid;type:decimal(20,2);not null" json:"amount_paid"`
	WithdrawalCode  string    `gorm:"column:withdrawal_code;size:40" json:"withdrawal_code"`
	Comment         string    `gorm:"column:comment;type:text" json:"comment"`
	UpdatedBy       string    `gorm:"column:updated_by;size:150" json:"updated_by"`
	Status          int       `gorm:"column:status;default:0" json:"status"` // 0: pending, 1: approved, 2: rejected
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
