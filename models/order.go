package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is permitted out of s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

// OrderItem is a snapshot of a line item taken at order-creation time.
// Name and Image are joined from the catalog for display only.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"` // paise
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
}

type Order struct {
	ID               uuid.UUID   `json:"id"`
	UserID           int         `json:"user_id"`
	Amount           int64       `json:"amount"` // paise
	Currency         string      `json:"currency"`
	GatewayOrderID   string      `json:"gateway_order_id"`
	GatewayPaymentID string      `json:"gateway_payment_id,omitempty"`
	Status           OrderStatus `json:"status"`
	Items            []OrderItem `json:"items,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice int64  `json:"unit_price" binding:"gte=0"`
}

type CreateOrderRequest struct {
	Amount int64              `json:"amount"`
	Items  []OrderItemRequest `json:"items"`
}

type ConfirmOrderRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
	Status           string `json:"status"` // empty or "paid" confirms, "failed" fails
}

type CancelOrderRequest struct {
	GatewayOrderID string `json:"gateway_order_id" binding:"required"`
}

type OrderEvent struct {
	OrderID        string      `json:"order_id"`
	UserID         int         `json:"user_id"`
	GatewayOrderID string      `json:"gateway_order_id"`
	Amount         int64       `json:"amount"`
	Currency       string      `json:"currency"`
	Status         OrderStatus `json:"status"`
	EventType      string      `json:"event_type"` // order_created, order_paid, order_failed, order_cancelled
}
