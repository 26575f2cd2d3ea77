package models

import (
	"time"
)

const (
	PendingStatusPending   = 0
	PendingStatusAbandoned = 1
)

// PendingTransaction holds an in-flight payment attempt between submission to
// the gateway and a terminal status. A given TxnRefNo lives in at most one of
// pending_transactions or transactions; promotion moves the record.
type PendingTransaction struct {
	ID                        int        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserId                    int        `gorm:"column:user_id;not null;index" json:"user_id"`
	TxnRefNo                  string     `gorm:"column:txn_ref_no;size:100;not null;uniqueIndex" json:"txn_ref_no"`
	Amount                    string     `gorm:"column:amount;size:50;not null" json:"amount"` // minor units, as sent to the gateway
	Currency                  string     `gorm:"column:currency;size:10" json:"currency"`
	TxnDateTime               string     `gorm:"column:txn_date_time;size:20" json:"txn_date_time"`
	ResponseCode              string     `gorm:"column:response_code;size:10" json:"response_code"`
	RawRequest                string     `gorm:"column:raw_request;type:longtext" json:"raw_request"`
	RawResponse               string     `gorm:"column:raw_response;type:longtext" json:"raw_response"`
	Status                    int        `gorm:"column:status;default:0" json:"status"` // 0: pending, 1: abandoned
	RetryCount                int        `gorm:"column:retry_count;default:0" json:"retry_count"`
	StatusInquiryScheduledFor time.Time  `gorm:"column:status_inquiry_scheduled_for;not null;index" json:"status_inquiry_scheduled_for"`
	LastChecked               *time.Time `gorm:"column:last_checked" json:"last_checked"`
	CreatedAt                 time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt                 time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PendingTransaction) TableName() string {
	return "pending_transactions"
}
