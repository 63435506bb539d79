// Package payment 封装 Stripe 支付客户端
//
// 只实现订阅结账会话创建和 Webhook 签名校验；
// 未配置密钥时客户端保持可用但报告 Configured() == false，
// 由 HTTP 层返回"支付服务未配置"。
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rankwise/internal/config"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// Client Stripe HTTP API 客户端
type Client struct {
	cfg     config.StripeConfig
	baseURL string
	http    *http.Client
}

// NewClient 创建 Stripe 客户端
func NewClient(cfg config.StripeConfig) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: stripeAPIBase,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetBaseURL 覆盖 API 地址，测试用
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Configured 是否已配置
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// CheckoutSession Stripe 结账会话
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateSubscriptionCheckout 创建订阅模式的结账会话
func (c *Client) CreateSubscriptionCheckout(ctx context.Context, priceID, customerEmail, successURL, cancelURL string) (*CheckoutSession, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("stripe is not configured")
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("customer_email", customerEmail)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe responded %d: %s", resp.StatusCode, string(body))
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode stripe response: %w", err)
	}
	return &session, nil
}

// ============================================================================
// Webhook 签名校验
// ============================================================================

// WebhookEvent 解析后的 Webhook 事件
type WebhookEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ConstructWebhookEvent 校验签名并解析事件
//
// 签名头格式：t=<unix>,v1=<hex hmac-sha256 of "<t>.<payload>">
// 签名无效或时间戳超出容忍窗口时返回错误。
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (*WebhookEvent, error) {
	if c.cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("webhook secret is not configured")
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	// 防重放：默认容忍 5 分钟时钟偏移
	if d := time.Since(time.Unix(timestamp, 0)); d > 5*time.Minute || d < -5*time.Minute {
		return nil, fmt.Errorf("webhook timestamp outside tolerance")
	}

	expected := computeSignature(c.cfg.WebhookSecret, timestamp, payload)
	valid := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("webhook signature verification failed")
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	return &event, nil
}

// SignPayload 对负载生成签名头（测试与本地联调用）
func SignPayload(secret string, timestamp int64, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, computeSignature(secret, timestamp, payload))
}

func computeSignature(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("missing signature header")
	}

	var timestamp int64 = -1
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("invalid signature timestamp")
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("malformed signature header")
	}
	return timestamp, signatures, nil
}
