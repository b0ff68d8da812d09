package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, baseURL string) *RazorpayClient {
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	return &RazorpayClient{
		baseURL:    baseURL,
		keyID:      "rzp_test_key",
		keySecret:  "rzp_test_secret",
		httpClient: &http.Client{Timeout: 2 * time.Second},
		logger:     logger,
	}
}

func TestRazorpayClient_CreateIntent_Success(t *testing.T) {
	var gotReq createOrderRequest
	var gotUser, gotPass string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotUser, gotPass, _ = r.BasicAuth()
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createOrderResponse{
			ID:       "order_abc123",
			Amount:   gotReq.Amount,
			Currency: gotReq.Currency,
			Status:   "created",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	intent, err := client.CreateIntent(context.Background(), 50000, "INR", "order_rcpt_x")
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	if intent.GatewayOrderID != "order_abc123" {
		t.Errorf("Expected order_abc123, got %s", intent.GatewayOrderID)
	}
	if intent.Amount != 50000 {
		t.Errorf("Expected amount 50000, got %d", intent.Amount)
	}
	if intent.Currency != "INR" {
		t.Errorf("Expected currency INR, got %s", intent.Currency)
	}

	if gotReq.Amount != 50000 || gotReq.Currency != "INR" || gotReq.Receipt != "order_rcpt_x" {
		t.Errorf("Unexpected request body: %+v", gotReq)
	}
	if gotUser != "rzp_test_key" || gotPass != "rzp_test_secret" {
		t.Errorf("Unexpected basic auth: %s/%s", gotUser, gotPass)
	}
}

func TestRazorpayClient_CreateIntent_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateIntent(context.Background(), 50000, "INR", "order_rcpt_x")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("Expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestRazorpayClient_CreateIntent_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := newTestClient(t, server.URL)
	_, err := client.CreateIntent(context.Background(), 50000, "INR", "order_rcpt_x")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("Expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestRazorpayClient_CreateIntent_MissingOrderID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateIntent(context.Background(), 50000, "INR", "order_rcpt_x")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("Expected ErrGatewayUnavailable, got %v", err)
	}
}
