package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateOrderSendsCredentialsAndParsesSession(t *testing.T) {
	var gotPath, gotClientID, gotSecret, gotVersion string
	var gotPayload createOrderPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotClientID = r.Header.Get("x-client-id")
		gotSecret = r.Header.Get("x-client-secret")
		gotVersion = r.Header.Get("x-api-version")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_ = json.NewEncoder(w).Encode(createOrderResponse{
			OrderID:          gotPayload.OrderID,
			PaymentSessionID: "session_abc",
		})
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:    srv.URL + "/",
		AppID:      "app_1",
		SecretKey:  "sk_1",
		APIVersion: "2023-08-01",
		ReturnURL:  "https://example.com/api/payment/verify",
		NotifyURL:  "https://example.com/api/payment/webhook",
	}, srv.Client())

	order, err := c.CreateOrder(context.Background(), OrderRequest{
		OrderID:       "genesis_1_abc",
		Amount:        129,
		CustomerName:  "Alice",
		CustomerEmail: "alice@example.com",
		CustomerPhone: "9876543210",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if gotPath != "/pg/orders" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotClientID != "app_1" || gotSecret != "sk_1" || gotVersion != "2023-08-01" {
		t.Fatal("gateway credentials not forwarded")
	}
	if gotPayload.OrderAmount != 129 || gotPayload.OrderCurrency != "INR" {
		t.Fatalf("unexpected amount %d %s", gotPayload.OrderAmount, gotPayload.OrderCurrency)
	}
	if gotPayload.OrderMeta.NotifyURL != "https://example.com/api/payment/webhook" {
		t.Fatalf("notify url not set: %q", gotPayload.OrderMeta.NotifyURL)
	}
	if order.PaymentSessionID != "session_abc" {
		t.Fatalf("unexpected session id %q", order.PaymentSessionID)
	}
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials","code":"auth_failed"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, srv.Client())

	_, err := c.CreateOrder(context.Background(), OrderRequest{OrderID: "o1", Amount: 129})
	if err == nil {
		t.Fatal("expected error on gateway rejection")
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("gateway error message not surfaced: %v", err)
	}
}

func TestCreateOrderMissingSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"order_id":"o1"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, srv.Client())

	if _, err := c.CreateOrder(context.Background(), OrderRequest{OrderID: "o1", Amount: 129}); err == nil {
		t.Fatal("expected error when payment session id is absent")
	}
}

func TestNewOrderIDShape(t *testing.T) {
	a := NewOrderID()
	b := NewOrderID()

	if !strings.HasPrefix(a, "genesis_") {
		t.Fatalf("unexpected order id %q", a)
	}
	if a == b {
		t.Fatal("order ids must be unique")
	}
}
