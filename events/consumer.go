package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"go.uber.org/zap"

	"github.com/uma-shankar-2005/Bloomcart/middleware"
	"github.com/uma-shankar-2005/Bloomcart/models"
)

func InitConsumer(logger *zap.Logger) (sarama.Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true
	config.Consumer.Retry.Backoff = 1 * time.Second

	brokers := []string{getEnv("KAFKA_BROKER", "localhost:9092")}

	consumer, err := sarama.NewConsumer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	logger.Info("Kafka consumer initialized")
	return consumer, nil
}

// Notifier consumes order lifecycle events and sends customer notifications.
// Email delivery is simulated with structured log lines.
type Notifier struct {
	consumer sarama.Consumer
	topic    string
	logger   *zap.Logger
}

func NewNotifier(consumer sarama.Consumer, logger *zap.Logger) *Notifier {
	return &Notifier{
		consumer: consumer,
		topic:    getEnv("KAFKA_TOPIC", "order_events"),
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled or the partition consumer fails.
func (n *Notifier) Run(ctx context.Context) error {
	partitionConsumer, err := n.consumer.ConsumePartition(n.topic, 0, sarama.OffsetNewest)
	if err != nil {
		return fmt.Errorf("failed to consume partition: %w", err)
	}
	defer partitionConsumer.Close()

	n.logger.Info("Notification consumer started", zap.String("topic", n.topic))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case message := <-partitionConsumer.Messages():
			if err := n.handleWithRetry(message, 3); err != nil {
				n.logger.Error("Failed to handle event after retries", zap.Error(err))
			}
		case err := <-partitionConsumer.Errors():
			n.logger.Error("Kafka consumer error", zap.Error(err))
		}
	}
}

func (n *Notifier) handleWithRetry(message *sarama.ConsumerMessage, maxRetries int) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := n.handleMessage(message)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < maxRetries {
			backoff := time.Duration(attempt) * time.Second
			n.logger.Warn("Retrying event handling",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			time.Sleep(backoff)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func (n *Notifier) handleMessage(message *sarama.ConsumerMessage) error {
	// Continue the trace started by the publisher
	propagator := otel.GetTextMapPropagator()
	carrier := consumerHeaderCarrier(message.Headers)
	ctx := propagator.Extract(context.Background(), carrier)

	ctx, span := otel.Tracer("bloomcart").Start(ctx, "ProcessNotification")
	defer span.End()

	var event models.OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.EventType == "" {
		return fmt.Errorf("missing event_type in event")
	}

	span.SetAttributes(
		attribute.String("event.type", event.EventType),
		attribute.String("gateway_order_id", event.GatewayOrderID),
	)

	var subject, body string
	switch event.EventType {
	case "order_created":
		subject = "Order Confirmation"
		body = fmt.Sprintf("Your order %s has been placed! Complete the payment to confirm it.", event.GatewayOrderID)
	case "order_paid":
		subject = "Payment Successful"
		body = fmt.Sprintf("Payment for order %s was successful. Your flowers are on the way!", event.GatewayOrderID)
	case "order_failed":
		subject = "Payment Failed"
		body = fmt.Sprintf("Payment for order %s failed. Please try again or contact support.", event.GatewayOrderID)
	case "order_cancelled":
		subject = "Order Cancelled"
		body = fmt.Sprintf("Your order %s has been cancelled.", event.GatewayOrderID)
	default:
		n.logger.Debug("Unknown event type", zap.String("event_type", event.EventType))
		return nil
	}

	middleware.RecordNotificationSent(event.EventType)
	n.logger.Info("Notification sent",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("event_type", event.EventType),
		zap.String("gateway_order_id", event.GatewayOrderID),
		zap.Int("user_id", event.UserID),
		zap.String("subject", subject),
		zap.String("body", body),
	)

	return nil
}

// consumerHeaderCarrier implements the TextMapCarrier interface for consumed headers
type consumerHeaderCarrier []*sarama.RecordHeader

func (c consumerHeaderCarrier) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c consumerHeaderCarrier) Set(key, value string) {
	// Extraction only
}

func (c consumerHeaderCarrier) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}
