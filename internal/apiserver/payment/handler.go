// Package payment 提供订阅结账与 webhook 回调接口。
//
// 订阅状态目前只做日志记录，不回写用户文档；
// 计费模型落库需要等产品侧定义套餐结构。
package payment

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"rankwise/internal/apiserver/auth"
	"rankwise/internal/config"
	"rankwise/internal/shared/payment"
)

// maxWebhookBody webhook 请求体大小上限
const maxWebhookBody = 64 << 10

// Handler 支付 HTTP 处理器
type Handler struct {
	client      *payment.Client
	frontendURL string
	cfg         config.StripeConfig
}

// NewHandler 创建支付处理器
func NewHandler(client *payment.Client, frontendURL string, cfg config.StripeConfig) *Handler {
	return &Handler{client: client, frontendURL: frontendURL, cfg: cfg}
}

// RegisterRoutes 注册支付相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/payment/checkout", h.CreateCheckout)
	mux.HandleFunc("POST /api/payment/webhook", h.Webhook)
}

type checkoutRequest struct {
	PriceID string `json:"priceId"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// CreateCheckout 创建订阅结账会话
//
// 路由: POST /api/payment/checkout
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	if h.client == nil || !h.client.Configured() {
		writeError(w, http.StatusServiceUnavailable, "Payment service not configured")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PriceID == "" {
		writeError(w, http.StatusBadRequest, "priceId is required")
		return
	}

	session, err := h.client.CreateSubscriptionCheckout(
		r.Context(),
		req.PriceID,
		authUser.Email,
		h.frontendURL+"/dashboard?checkout=success",
		h.frontendURL+"/pricing?checkout=cancelled",
	)
	if err != nil {
		log.Printf("[payment.checkout] create session error: %v", err)
		writeError(w, http.StatusBadGateway, "Failed to create checkout session")
		return
	}

	log.Printf("[payment] Checkout session created for %s: %s", authUser.Email, session.ID)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{
		"sessionId": session.ID,
		"url":       session.URL,
	}})
}

// Webhook 处理支付提供方回调
//
// 路由: POST /api/payment/webhook
//
// 签名校验失败一律 400；校验通过后按事件类型记录并立刻 200，
// 避免提供方重试风暴。
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.cfg.WebhookSecret == "" {
		writeError(w, http.StatusServiceUnavailable, "Payment service not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	event, err := h.client.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("[payment.webhook] signature verification failed: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		log.Printf("[payment] Checkout completed: %s", event.ID)
	case "customer.subscription.deleted":
		log.Printf("[payment] Subscription cancelled: %s", event.ID)
	case "invoice.payment_failed":
		log.Printf("[payment] Payment failed: %s", event.ID)
	default:
		log.Printf("[payment] Unhandled event type %q: %s", event.Type, event.ID)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}
