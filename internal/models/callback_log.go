package models

import (
	"time"
)

type CallbackLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TxnRefNo    string    `gorm:"column:txn_ref_no;size:100;index" json:"txn_ref_no"`
	Request     string    `gorm:"column:request;type:longtext" json:"request"`
	Response    string    `gorm:"column:response;type:longtext" json:"response"`
	RequestType string    `gorm:"column:request_type;size:255" json:"request_type"` // callback | status-inquiry
	Provider    string    `gorm:"column:provider;size:255" json:"provider"`
	Status      int       `gorm:"column:status;default:0" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CallbackLog) TableName() string {
	return "callback_logs"
}
