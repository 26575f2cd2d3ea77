package models

import (
	"time"
)

// PaymentMethod holds gateway configuration. For the mobile-wallet provider
// the integrity salt lives in IntegritySalt and doubles as the HMAC key.
type PaymentMethod struct {
	ID            int       `gorm:"primaryKey;autoIncrement" json:"id"`
	DisplayName   string    `gorm:"column:display_name;size:200;not null" json:"display_name"`
	Provider      string    `gorm:"column:provider;size:150;not null;index" json:"provider"`
	BaseUrl       string    `gorm:"column:base_url;size:255" json:"base_url"`
	MerchantId    string    `gorm:"column:merchant_id;size:150" json:"merchant_id"`
	Password      string    `gorm:"column:password;size:255" json:"-"`
	IntegritySalt string    `gorm:"column:integrity_salt;size:255" json:"-"`
	ReturnUrl     string    `gorm:"column:return_url;size:255" json:"return_url"`
	Status        int       `gorm:"column:status;default:0" json:"status"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
