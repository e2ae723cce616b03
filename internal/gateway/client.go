package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jaylenmareko/topic-funding-sub001/internal/config"
	"github.com/shopspring/decimal"
)

// Client 支付网关HTTP客户端
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func Init(cfg config.GatewayConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base_url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gateway api_key is required")
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// FetchPayment 按ID获取支付单
func (c *Client) FetchPayment(ctx context.Context, paymentId string) (*Payment, error) {
	var payment Payment
	if err := c.doJSON(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentId), nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// FetchCheckoutSessionByPayment 按支付单ID反查支付会话
func (c *Client) FetchCheckoutSessionByPayment(ctx context.Context, paymentId string) (*CheckoutSession, error) {
	var session CheckoutSession
	path := "/v1/checkout_sessions?payment_id=" + url.QueryEscape(paymentId)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateTransfer 向创作者账户发起转账
func (c *Client) CreateTransfer(ctx context.Context, destination string, amount decimal.Decimal, metadata map[string]string) (*Transfer, error) {
	body := map[string]interface{}{
		"destination": destination,
		"amount":      amount.StringFixed(2),
		"metadata":    metadata,
	}
	var transfer Transfer
	if err := c.doJSON(ctx, http.MethodPost, "/v1/transfers", body, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

// CreateRefund 对一笔支付发起退款
func (c *Client) CreateRefund(ctx context.Context, paymentId string, reason string) (*Refund, error) {
	body := map[string]interface{}{
		"payment_id": paymentId,
		"reason":     reason,
	}
	var refund Refund
	if err := c.doJSON(ctx, http.MethodPost, "/v1/refunds", body, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// ListPayments 列出窗口内网关已确认成功的支付单
func (c *Client) ListPayments(ctx context.Context, since time.Time) ([]PaymentSummary, error) {
	var result struct {
		Data []PaymentSummary `json:"data"`
	}
	path := "/v1/payments?status=succeeded&since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// doJSON 发起请求并解析JSON响应
// 网络错误和5xx包装为TransientError, 4xx视为确定性失败
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransientError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Op: method + " " + path, Err: err}
	}

	switch {
	case resp.StatusCode >= 500:
		return &TransientError{Op: method + " " + path, Err: fmt.Errorf("gateway returned %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		if method == http.MethodGet {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("gateway returned 404: %s", string(data))
	case resp.StatusCode >= 400:
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}
