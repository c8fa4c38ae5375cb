package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to the payment gateway's order API. One order is opened per
// registration attempt; the returned payment session id is what the browser
// needs to launch the hosted checkout.
type Client struct {
	baseURL    string
	appID      string
	secretKey  string
	apiVersion string
	returnURL  string
	notifyURL  string
	httpClient *http.Client
}

type Config struct {
	BaseURL    string
	AppID      string
	SecretKey  string
	APIVersion string
	ReturnURL  string
	NotifyURL  string
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		appID:      cfg.AppID,
		secretKey:  cfg.SecretKey,
		apiVersion: cfg.APIVersion,
		returnURL:  cfg.ReturnURL,
		notifyURL:  cfg.NotifyURL,
		httpClient: httpClient,
	}
}

type OrderRequest struct {
	OrderID       string
	Amount        int
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

type Order struct {
	OrderID          string
	PaymentSessionID string
}

type createOrderPayload struct {
	OrderAmount     int             `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	OrderID         string          `json:"order_id"`
	CustomerDetails customerDetails `json:"customer_details"`
	OrderMeta       orderMeta       `json:"order_meta"`
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

type createOrderResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// NewOrderID mints a registration order handle. The millisecond prefix keeps
// ids roughly sortable; the uuid slice makes collisions a non-issue.
func NewOrderID() string {
	return fmt.Sprintf("genesis_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	payload := createOrderPayload{
		OrderAmount:   req.Amount,
		OrderCurrency: "INR",
		OrderID:       req.OrderID,
		CustomerDetails: customerDetails{
			CustomerID:    "cust_" + uuid.NewString()[:8],
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
		},
		OrderMeta: orderMeta{
			ReturnURL: c.returnURL,
			NotifyURL: c.notifyURL,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pg/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-client-id", c.appID)
	httpReq.Header.Set("x-client-secret", c.secretKey)
	httpReq.Header.Set("x-api-version", c.apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway order call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(raw, &gwErr); err == nil && gwErr.Message != "" {
			return nil, fmt.Errorf("gateway rejected order (%d): %s", resp.StatusCode, gwErr.Message)
		}
		return nil, fmt.Errorf("gateway rejected order: status %d", resp.StatusCode)
	}

	var orderResp createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	if orderResp.PaymentSessionID == "" {
		return nil, fmt.Errorf("gateway returned no payment session for order %s", req.OrderID)
	}

	return &Order{
		OrderID:          req.OrderID,
		PaymentSessionID: orderResp.PaymentSessionID,
	}, nil
}
