package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// ErrGatewayUnavailable covers every transport or gateway-side failure. The
// client never retries internally: a retry could create a duplicate remote
// intent, and that must be avoided rather than masked.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Intent is the gateway's record of an expected payment. Amount and Currency
// are the gateway's own response values, so callers never have to trust their
// request values for display.
type Intent struct {
	GatewayOrderID string
	Amount         int64 // paise
	Currency       string
}

type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*Intent, error)
}

// RazorpayClient is a thin wrapper over the Razorpay Orders API.
type RazorpayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewRazorpayClient(logger *zap.Logger) *RazorpayClient {
	return &RazorpayClient{
		baseURL:   getEnv("RAZORPAY_API_BASE", "https://api.razorpay.com/v1"),
		keyID:     getEnv("RAZORPAY_KEY_ID", ""),
		keySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (c *RazorpayClient) CreateIntent(ctx context.Context, amount int64, currency, receipt string) (*Intent, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", ErrGatewayUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Gateway rejected order creation",
			zap.Int("status", resp.StatusCode),
			zap.String("receipt", receipt),
		)
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var orderResp createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrGatewayUnavailable, err)
	}
	if orderResp.ID == "" {
		return nil, fmt.Errorf("%w: gateway response missing order id", ErrGatewayUnavailable)
	}

	return &Intent{
		GatewayOrderID: orderResp.ID,
		Amount:         orderResp.Amount,
		Currency:       orderResp.Currency,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
