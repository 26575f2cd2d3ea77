package models

import (
	"time"
)

// User carries the per-account ledger alongside identity. Earnings are kept as
// wide decimal columns so every credit is an atomic column increment rather
// than a read-modify-write of the row.
type User struct {
	ID           int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"column:name;size:255;not null" json:"name"`
	Username     string `gorm:"column:username;size:255;not null;uniqueIndex" json:"username"`
	Email        string `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role         string `gorm:"column:role;size:20;default:user" json:"role"`

	// Referral chain. ReferrerId is the source of truth for ancestor walks and
	// is written exactly once, at registration.
	ReferralCode *string `gorm:"column:referral_code;size:20;uniqueIndex" json:"referral_code"`
	ReferrerId   *int    `gorm:"column:referrer_id;index" json:"referrer_id"`

	EarningsLevel1  float64 `gorm:"column:earnings_level1;type:decimal(20,2);default:0.00" json:"earnings_level1"`
	EarningsLevel2  float64 `gorm:"column:earnings_level2;type:decimal(20,2);default:0.00" json:"earnings_level2"`
	EarningsLevel3  float64 `gorm:"column:earnings_level3;type:decimal(20,2);default:0.00" json:"earnings_level3"`
	EarningsLevel4  float64 `gorm:"column:earnings_level4;type:decimal(20,2);default:0.00" json:"earnings_level4"`
	EarningsLevel5  float64 `gorm:"column:earnings_level5;type:decimal(20,2);default:0.00" json:"earnings_level5"`
	EarningsLevel6  float64 `gorm:"column:earnings_level6;type:decimal(20,2);default:0.00" json:"earnings_level6"`
	EarningsLevel7  float64 `gorm:"column:earnings_level7;type:decimal(20,2);default:0.00" json:"earnings_level7"`
	EarningsLevel8  float64 `gorm:"column:earnings_level8;type:decimal(20,2);default:0.00" json:"earnings_level8"`
	EarningsLevel9  float64 `gorm:"column:earnings_level9;type:decimal(20,2);default:0.00" json:"earnings_level9"`
	EarningsLevel10 float64 `gorm:"column:earnings_level10;type:decimal(20,2);default:0.00" json:"earnings_level10"`
	TotalEarnings   float64 `gorm:"column:total_earnings;type:decimal(20,2);default:0.00" json:"total_earnings"`

	// Subscription gates commission eligibility and referral-code validity.
	SubIsActive       bool       `gorm:"column:sub_is_active;default:false" json:"sub_is_active"`
	SubPurchaseDate   *time.Time `gorm:"column:sub_purchase_date" json:"sub_purchase_date"`
	SubExpiryDate     *time.Time `gorm:"column:sub_expiry_date" json:"sub_expiry_date"`
	SubAmountPaid     float64    `gorm:"column:sub_amount_paid;type:decimal(20,2);default:0.00" json:"sub_amount_paid"`
	SubSubscriptionId string     `gorm:"column:sub_subscription_id;size:100" json:"sub_subscription_id"`

	PendingWithdrawal  bool       `gorm:"column:pending_withdrawal;default:false" json:"pending_withdrawal"`
	LastWithdrawalDate *time.Time `gorm:"column:last_withdrawal_date" json:"last_withdrawal_date"`
	TotalWithdrawn     float64    `gorm:"column:total_withdrawn;type:decimal(20,2);default:0.00" json:"total_withdrawn"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// HasActiveSubscription reports whether the subscription is active and unexpired.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.SubIsActive && u.SubExpiryDate != nil && u.SubExpiryDate.After(now)
}
