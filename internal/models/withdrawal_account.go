package models

import (
	"time"
)

// WithdrawalAccount is the bank account a user's withdrawals are paid to.
// One active account per user.
type WithdrawalAccount struct {
	ID            int       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserId        int       `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	AccountNumber string    `gorm:"column:account_number;size:150;not null" json:"account_number"`
	AccountHolder string    `gorm:"column:account_holder;size:250;not null" json:"account_holder"`
	BankName      string    `gorm:"column:bank_name;size:150;not null" json:"bank_name"`
	Status        int       `gorm:"column:status;default:1" json:"status"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (WithdrawalAccount) TableName() string {
	return "withdrawal_accounts"
}
