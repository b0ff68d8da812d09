package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/uma-shankar-2005/Bloomcart/middleware"
	"github.com/uma-shankar-2005/Bloomcart/models"
	"github.com/uma-shankar-2005/Bloomcart/service"
	"github.com/uma-shankar-2005/Bloomcart/store"
)

type OrderHandler struct {
	svc           *service.ReconciliationService
	orderStore    store.OrderStore
	webhookSecret string
	logger        *zap.Logger
}

func NewOrderHandler(svc *service.ReconciliationService, orderStore store.OrderStore, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		svc:           svc,
		orderStore:    orderStore,
		webhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		logger:        logger,
	}
}

// CreateOrder bridges the checkout client to the reconciliation service.
// Every internal failure kind collapses to a generic client-facing error; the
// specific kind goes to the logs.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := otel.Tracer("bloomcart").Start(c.Request.Context(), "CreateOrder")
	defer span.End()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.Int("user_id", userID),
		attribute.Int64("amount", req.Amount),
		attribute.Int("items", len(req.Items)),
	)

	items := make([]models.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	result, err := h.svc.Create(ctx, userID, req.Amount, items)
	if err != nil {
		span.RecordError(err)
		traceID := middleware.GetTraceID(ctx)
		if errors.Is(err, service.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		h.logger.Error("Failed to create order",
			zap.String("trace_id", traceID),
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating order"})
		return
	}

	span.SetAttributes(attribute.String("gateway_order_id", result.GatewayOrderID))
	h.logger.Info("Order created",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("gateway_order_id", result.GatewayOrderID),
		zap.String("local_order_id", result.LocalOrderID.String()),
	)
	c.JSON(http.StatusCreated, gin.H{
		"gatewayOrderId": result.GatewayOrderID,
		"localOrderId":   result.LocalOrderID,
		"amount":         result.Amount,
		"currency":       result.Currency,
	})
}

// ConfirmOrder is the confirmation entry point invoked by the client-side
// gateway handler after the hosted payment UI completes. When a webhook
// secret is configured the request must carry a valid HMAC signature over
// "gatewayOrderId|gatewayPaymentId"; otherwise the callback is client-trusted
// exactly as in the original storefront.
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	ctx, span := otel.Tracer("bloomcart").Start(c.Request.Context(), "ConfirmOrder")
	defer span.End()

	var req models.ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.String("gateway_order_id", req.GatewayOrderID))

	if h.webhookSecret != "" && !h.verifySignature(req) {
		h.logger.Warn("Rejected confirmation with bad signature",
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.String("gateway_order_id", req.GatewayOrderID),
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var status models.OrderStatus
	var err error
	if req.Status == "failed" {
		status, err = h.svc.Fail(ctx, req.GatewayOrderID)
	} else {
		status, err = h.svc.Confirm(ctx, req.GatewayOrderID, req.GatewayPaymentID)
	}
	if err != nil {
		span.RecordError(err)
		traceID := middleware.GetTraceID(ctx)
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.logger.Error("Failed to confirm order",
			zap.String("trace_id", traceID),
			zap.String("gateway_order_id", req.GatewayOrderID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating order"})
		return
	}

	middleware.RecordOrderReconciled(status.String())
	span.SetAttributes(attribute.String("order.status", status.String()))
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *OrderHandler) verifySignature(req models.ConfirmOrderRequest) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write([]byte(req.GatewayOrderID + "|" + req.GatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(req.Signature))
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	ctx, span := otel.Tracer("bloomcart").Start(c.Request.Context(), "CancelOrder")
	defer span.End()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.svc.Cancel(ctx, userID, req.GatewayOrderID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.logger.Error("Failed to cancel order",
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.String("gateway_order_id", req.GatewayOrderID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating order"})
		return
	}

	middleware.RecordOrderReconciled(status.String())
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// ListOrders returns the caller's orders newest-first with item snapshots.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, span := otel.Tracer("bloomcart").Start(c.Request.Context(), "ListOrders")
	defer span.End()

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	span.SetAttributes(attribute.Int("user_id", userID))

	orders, err := h.orderStore.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to list orders",
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
