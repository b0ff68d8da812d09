package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uma-shankar-2005/Bloomcart/events"
	"github.com/uma-shankar-2005/Bloomcart/models"
	"github.com/uma-shankar-2005/Bloomcart/payment"
	"github.com/uma-shankar-2005/Bloomcart/store"
)

// Currency is fixed for the storefront; amounts are paise everywhere.
const Currency = "INR"

// CreateResult echoes the gateway's own amount and currency so the checkout
// client never has to trust its request values for display.
type CreateResult struct {
	GatewayOrderID string    `json:"gateway_order_id"`
	LocalOrderID   uuid.UUID `json:"local_order_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
}

// ReconciliationService owns the order lifecycle: one gateway intent and one
// durable row per checkout, then a single race-free status transition driven
// by the gateway callback.
type ReconciliationService struct {
	store     store.OrderStore
	gateway   payment.Gateway
	publisher events.Publisher // nil disables event publishing
	logger    *zap.Logger
}

func NewReconciliationService(orderStore store.OrderStore, gateway payment.Gateway, publisher events.Publisher, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		store:     orderStore,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
	}
}

// Create makes the remote payment intent, then records the pending order.
// The two side effects are not transactional across the process boundary:
// when the insert fails after a successful intent, the remote intent is
// abandoned (it will simply never be confirmed) and the failure is reported
// as ErrOrderPersistFailure. No remote cancellation is attempted because the
// gateway may not support it.
func (s *ReconciliationService) Create(ctx context.Context, userID int, amount int64, items []models.OrderItem) (*CreateResult, error) {
	if userID <= 0 {
		return nil, ErrUnauthenticated
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	// Random receipt tokens cannot collide under concurrent checkouts within
	// the same millisecond, unlike timestamp-derived ones.
	receipt := "order_rcpt_" + uuid.NewString()

	intent, err := s.gateway.CreateIntent(ctx, amount, Currency, receipt)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Amount:         intent.Amount,
		Currency:       intent.Currency,
		GatewayOrderID: intent.GatewayOrderID,
		Status:         models.OrderStatusPending,
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Insert(ctx, order); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateOrder
		}
		s.logger.Error("Order insert failed, remote intent abandoned",
			zap.String("gateway_order_id", intent.GatewayOrderID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrOrderPersistFailure, err)
	}

	s.publish(ctx, order, "order_created")

	return &CreateResult{
		GatewayOrderID: order.GatewayOrderID,
		LocalOrderID:   order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
	}, nil
}

// Confirm moves a pending order to PAID. Duplicate and late callbacks are
// not failures: a terminal order is returned as-is without a write.
func (s *ReconciliationService) Confirm(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (models.OrderStatus, error) {
	return s.transition(ctx, gatewayOrderID, models.OrderStatusPaid, gatewayPaymentID, "order_paid")
}

// Fail moves a pending order to FAILED with the same idempotence rules as Confirm.
func (s *ReconciliationService) Fail(ctx context.Context, gatewayOrderID string) (models.OrderStatus, error) {
	return s.transition(ctx, gatewayOrderID, models.OrderStatusFailed, "", "order_failed")
}

// Cancel moves a pending order owned by userID to CANCELLED. Orders that
// belong to someone else are reported as not found rather than forbidden.
func (s *ReconciliationService) Cancel(ctx context.Context, userID int, gatewayOrderID string) (models.OrderStatus, error) {
	order, err := s.store.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrOrderNotFound
		}
		return "", err
	}
	if order.UserID != userID {
		return "", ErrOrderNotFound
	}
	return s.transition(ctx, gatewayOrderID, models.OrderStatusCancelled, "", "order_cancelled")
}

// transition performs the compare-and-set on status = PENDING. The predicate
// is evaluated atomically with the write at the storage layer, so concurrent
// callbacks for the same gateway order cannot interleave: exactly one write
// wins and the loser observes the winner's terminal state.
func (s *ReconciliationService) transition(ctx context.Context, gatewayOrderID string, next models.OrderStatus, gatewayPaymentID, eventType string) (models.OrderStatus, error) {
	order, err := s.store.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrOrderNotFound
		}
		return "", err
	}

	if order.Status.IsTerminal() {
		return order.Status, nil
	}

	updated, err := s.store.CompareAndSetStatus(ctx, gatewayOrderID, models.OrderStatusPending, next, gatewayPaymentID)
	if errors.Is(err, store.ErrStatusConflict) {
		// Lost the race to a concurrent transition; report the winner's state.
		current, findErr := s.store.FindByGatewayOrderID(ctx, gatewayOrderID)
		if findErr != nil {
			return "", findErr
		}
		return current.Status, nil
	}
	if err != nil {
		return "", err
	}

	s.logger.Info("Order status transitioned",
		zap.String("gateway_order_id", gatewayOrderID),
		zap.String("status", updated.Status.String()),
	)
	s.publish(ctx, updated, eventType)

	return updated.Status, nil
}

func (s *ReconciliationService) publish(ctx context.Context, order *models.Order, eventType string) {
	if s.publisher == nil {
		return
	}
	event := models.OrderEvent{
		OrderID:        order.ID.String(),
		UserID:         order.UserID,
		GatewayOrderID: order.GatewayOrderID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		Status:         order.Status,
		EventType:      eventType,
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
