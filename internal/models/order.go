package models

import (
	"time"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

type Order struct {
	ID          int     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string  `gorm:"column:order_number;size:60;not null;uniqueIndex" json:"order_number"`
	UserId      int     `gorm:"column:user_id;not null;index" json:"user_id"`
	Subtotal    float64 `gorm:"column:subtotal;type:decimal(20,2);not null" json:"subtotal"`
	Shipping    float64 `gorm:"column:shipping;type:decimal(20,2);default:0.00" json:"shipping"`
	Total       float64 `gorm:"column:total;type:decimal(20,2);not null" json:"total"`
	Status      string  `gorm:"column:status;size:20;default:pending" json:"status"`
	Notes       string  `gorm:"column:notes;type:text" json:"notes"`
	PhoneNumber string  `gorm:"column:phone_number;size:30" json:"phone_number"`

	ShippingAddress string `gorm:"column:shipping_address;size:500;not null" json:"shipping_address"`
	BillingAddress  string `gorm:"column:billing_address;size:500" json:"billing_address"`

	PaymentMethod string `gorm:"column:payment_method;size:50;default:COD" json:"payment_method"`
	PaymentStatus string `gorm:"column:payment_status;size:20;default:pending" json:"payment_status"`

	// Deferred discount refund. The order is charged at full price; the
	// difference is owed back to the buyer's ledger on delivery. Credited
	// flips false->true at most once.
	WalletCreditAmount     float64    `gorm:"column:wallet_credit_amount;type:decimal(20,2);default:0.00" json:"wallet_credit_amount"`
	WalletCreditCredited   bool       `gorm:"column:wallet_credit_credited;default:false" json:"wallet_credit_credited"`
	WalletCreditCreditedAt *time.Time `gorm:"column:wallet_credit_credited_at" json:"wallet_credit_credited_at"`

	Items []OrderItem `gorm:"foreignKey:OrderId" json:"items"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID              int     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderId         int     `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductId       int     `gorm:"column:product_id;not null" json:"product_id"`
	Name            string  `gorm:"column:name;size:255" json:"name"`
	ActualPrice     float64 `gorm:"column:actual_price;type:decimal(20,2);not null" json:"actual_price"`
	DiscountedPrice float64 `gorm:"column:discounted_price;type:decimal(20,2);not null" json:"discounted_price"`
	Discount        float64 `gorm:"column:discount;type:decimal(20,2);not null" json:"discount"`
	Quantity        int     `gorm:"column:quantity;not null" json:"quantity"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}
