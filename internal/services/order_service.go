package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/pkg/common"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Task Types (copied from worker/tasks.go to avoid cycle)
const (
	TypeWalletCredit = "wallet-credit"
)

type OrderService struct {
	DB     *gorm.DB
	Helper *HelperService
	Client *asynq.Client
}

func NewOrderService(db *gorm.DB, helper *HelperService, client *asynq.Client) *OrderService {
	return &OrderService{DB: db, Helper: helper, Client: client}
}

type OrderItemDTO struct {
	ProductId       int     `json:"product_id" binding:"required"`
	Name            string  `json:"name"`
	ActualPrice     float64 `json:"actual_price" binding:"required"`
	DiscountedPrice float64 `json:"discounted_price"`
	Quantity        int     `json:"quantity" binding:"required"`
}

type CreateOrderDTO struct {
	UserId          int            `json:"user_id" binding:"required"`
	Items           []OrderItemDTO `json:"items" binding:"required"`
	Shipping        float64        `json:"shipping"`
	ShippingAddress string         `json:"shipping_address" binding:"required"`
	BillingAddress  string         `json:"billing_address"`
	PhoneNumber     string         `json:"phone_number"`
	Notes           string         `json:"notes"`
	PaymentMethod   string         `json:"payment_method"`
}

// CreateOrder charges every item at full price. Active subscribers accrue the
// member discount as a deferred wallet credit, owed back only after delivery;
// everyone else pays the same price with no credit.
func (s *OrderService) CreateOrder(data CreateOrderDTO) (*models.Order, error) {
	if len(data.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}

	var user models.User
	if err := s.DB.First(&user, data.UserId).Error; err != nil {
		return nil, fmt.Errorf("user %d not found", data.UserId)
	}
	eligible := user.HasActiveSubscription(time.Now())

	subtotal := 0.0
	walletCredit := 0.0
	items := make([]models.OrderItem, 0, len(data.Items))
	for _, it := range data.Items {
		if it.Quantity <= 0 || it.ActualPrice <= 0 {
			return nil, fmt.Errorf("invalid quantity or price for product %d", it.ProductId)
		}
		discounted := it.DiscountedPrice
		if discounted <= 0 || discounted > it.ActualPrice {
			discounted = it.ActualPrice
		}
		discount := common.Round2(it.ActualPrice - discounted)

		subtotal += it.ActualPrice * float64(it.Quantity)
		if eligible {
			walletCredit += discount * float64(it.Quantity)
		}
		items = append(items, models.OrderItem{
			ProductId:       it.ProductId,
			Name:            it.Name,
			ActualPrice:     it.ActualPrice,
			DiscountedPrice: discounted,
			Discount:        discount,
			Quantity:        it.Quantity,
		})
	}

	paymentMethod := data.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "COD"
	}

	order := models.Order{
		OrderNumber:        common.GenerateOrderNumber(),
		UserId:             data.UserId,
		Subtotal:           common.Round2(subtotal),
		Shipping:           data.Shipping,
		Total:              common.Round2(subtotal + data.Shipping),
		Status:             models.OrderStatusPending,
		Notes:              data.Notes,
		PhoneNumber:        data.PhoneNumber,
		ShippingAddress:    data.ShippingAddress,
		BillingAddress:     data.BillingAddress,
		PaymentMethod:      paymentMethod,
		PaymentStatus:      "pending",
		WalletCreditAmount: common.Round2(walletCredit),
		Items:              items,
	}
	if err := s.DB.Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder returns one order with its items.
func (s *OrderService) GetOrder(orderId int) (*models.Order, error) {
	var order models.Order
	if err := s.DB.Preload("Items").First(&order, orderId).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns a user's orders, newest first.
func (s *OrderService) ListOrders(userId, page, limit int) (interface{}, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	s.DB.Model(&models.Order{}).Where("user_id = ?", userId).Count(&total)

	var orders []models.Order
	err := s.DB.Preload("Items").Where("user_id = ?", userId).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return common.PaginateResponse(orders, total, page, limit, ""), nil
}

// UpdateStatus moves an order to a new fulfilment state. Reaching delivered
// enqueues the wallet-credit job; the task id is derived from the order so
// repeated delivered updates cannot double-enqueue.
func (s *OrderService) UpdateStatus(orderId int, status string) error {
	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("invalid order status: %s", status)
	}

	res := s.DB.Model(&models.Order{}).
		Where("id = ? AND status != ?", orderId, status).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		s.DB.Model(&models.Order{}).Where("id = ?", orderId).Count(&count)
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}

	if status == models.OrderStatusDelivered && s.Client != nil {
		payload, _ := json.Marshal(map[string]int{"order_id": orderId})
		task := asynq.NewTask(TypeWalletCredit, payload)
		_, err := s.Client.Enqueue(task, asynq.TaskID(fmt.Sprintf("wallet-credit:%d", orderId)))
		if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			log.Printf("Failed to enqueue wallet credit for order %d: %v", orderId, err)
		}
	}
	return nil
}

// CreditOnDelivery pays an order's deferred discount into the buyer's ledger
// and reports the credited amount. Safe to call any number of times: the
// credited flag flips false to true in a conditional update, only the flip
// that lands pays, and every later call answers with the amount already
// credited. The credit is refused, reported as zero and with the flag left
// unset, when the buyer's subscription has lapsed by delivery time; a later
// re-activation lets a retry pay it.
func (s *OrderService) CreditOnDelivery(orderId int) (float64, error) {
	var order models.Order
	if err := s.DB.First(&order, orderId).Error; err != nil {
		return 0, err
	}

	if order.WalletCreditCredited {
		return order.WalletCreditAmount, nil
	}
	if order.Status != models.OrderStatusDelivered {
		return 0, fmt.Errorf("order %d is %s, not delivered", orderId, order.Status)
	}

	now := time.Now()

	if order.WalletCreditAmount <= 0 {
		// Nothing owed; close out the flag so the order reads as settled.
		s.DB.Model(&models.Order{}).
			Where("id = ? AND wallet_credit_credited = ?", orderId, false).
			Updates(map[string]interface{}{
				"wallet_credit_credited":    true,
				"wallet_credit_credited_at": now,
			})
		return 0, nil
	}

	var user models.User
	if err := s.DB.First(&user, order.UserId).Error; err != nil {
		return 0, err
	}
	if !user.HasActiveSubscription(now) {
		log.Printf("Wallet credit refused for order %d: user %d subscription inactive", orderId, order.UserId)
		return 0, nil
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND wallet_credit_credited = ?", orderId, false).
			Updates(map[string]interface{}{
				"wallet_credit_credited":    true,
				"wallet_credit_credited_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race to another worker; the amount is credited either way.
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", order.UserId).
			Update("total_earnings", gorm.Expr("total_earnings + ?", order.WalletCreditAmount)).Error
	})
	if err != nil {
		return 0, err
	}
	return order.WalletCreditAmount, nil
}
