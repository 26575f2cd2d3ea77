package models

import (
	"time"
)

const (
	TrxStatusSuccess = "success"
	TrxStatusFailed  = "failed"
	TrxStatusPending = "pending"
)

// Transaction is the immutable record of a settled payment. The unique index
// on TxnRefNo is the de-duplication guard for promotion: a replayed gateway
// response cannot create a second record for the same reference.
type Transaction struct {
	ID              int       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserId          int       `gorm:"column:user_id;index" json:"user_id"`
	TxnRefNo        string    `gorm:"column:txn_ref_no;size:100;not null;uniqueIndex" json:"txn_ref_no"`
	Amount          string    `gorm:"column:amount;size:50" json:"amount"` // minor units, as the gateway reported
	Currency        string    `gorm:"column:currency;size:10" json:"currency"`
	TxnDateTime     string    `gorm:"column:txn_date_time;size:20" json:"txn_date_time"`
	BillReference   string    `gorm:"column:bill_reference;size:100" json:"bill_reference"`
	Description     string    `gorm:"column:description;size:255" json:"description"`
	ResponseCode    string    `gorm:"column:response_code;size:10" json:"response_code"`
	ResponseMessage string    `gorm:"column:response_message;size:255" json:"response_message"`
	SecureHash      string    `gorm:"column:secure_hash;size:128" json:"secure_hash"`
	Status          string    `gorm:"column:status;size:20;default:failed" json:"status"` // success | failed | pending
	Raw             string    `gorm:"column:raw;type:longtext" json:"raw"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
