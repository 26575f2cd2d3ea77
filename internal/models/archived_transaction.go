package models

import (
	"time"
)

// ArchivedTransaction mirrors Transaction; old settled records are moved here
// by the monthly archive sweep to keep the hot table small.
type ArchivedTransaction struct {
	ID              uint      `gorm:"primaryKey"`
	UserId          int       `gorm:"index"`
	TxnRefNo        string    `gorm:"type:varchar(100);uniqueIndex"`
	Amount          string    `gorm:"type:varchar(50)"`
	Currency        string    `gorm:"type:varchar(10)"`
	TxnDateTime     string    `gorm:"type:varchar(20)"`
	BillReference   string    `gorm:"type:varchar(100)"`
	Description     string    `gorm:"type:varchar(255)"`
	ResponseCode    string    `gorm:"type:varchar(10)"`
	ResponseMessage string    `gorm:"type:varchar(255)"`
	Status          string    `gorm:"type:varchar(20);index"`
	Raw             string    `gorm:"type:longtext"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (ArchivedTransaction) TableName() string {
	return "archived_transactions"
}
