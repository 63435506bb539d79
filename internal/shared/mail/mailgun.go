// Package mail 封装 Mailgun 邮件发送
//
// 未配置 API Key/域名时 Send 变为 no-op 并记录日志，
// 邮件能力缺失不应影响进程启动或业务流程。
package mail

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rankwise/internal/config"
)

const mailgunAPIBase = "https://api.mailgun.net/v3"

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, to, subject, text string) error
	SendWelcome(ctx context.Context, to, name string) error
}

// Client Mailgun HTTP API 客户端
type Client struct {
	cfg     config.MailgunConfig
	baseURL string
	http    *http.Client
}

// NewClient 创建 Mailgun 客户端
// cfg 未配置时返回的客户端所有发送调用均为 no-op。
func NewClient(cfg config.MailgunConfig) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: mailgunAPIBase,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured 是否已配置
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// Send 发送纯文本邮件
func (c *Client) Send(ctx context.Context, to, subject, text string) error {
	if !c.Configured() {
		// 未配置时降级为日志输出
		log.Printf("[mail] Mailgun not configured, would have sent to=%s subject=%q", to, subject)
		return nil
	}

	form := url.Values{}
	form.Set("from", fmt.Sprintf("RankWise <no-reply@%s>", c.cfg.Domain))
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.cfg.Domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build mailgun request: %w", err)
	}
	req.SetBasicAuth("api", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailgun request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mailgun responded %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// SendWelcome 发送注册欢迎邮件
func (c *Client) SendWelcome(ctx context.Context, to, name string) error {
	subject := "Welcome to RankWise"
	text := fmt.Sprintf("Hi %s,\n\nWelcome to RankWise! Your account is ready.\n\n— The RankWise Team", name)
	return c.Send(ctx, to, subject, text)
}

// 确保 Client 实现了 Sender 接口
var _ Sender = (*Client)(nil)
