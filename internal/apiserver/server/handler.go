package server

import (
	"net/http"

	"rankwise/internal/apiserver/auth"
	"rankwise/internal/apiserver/payment"
	"rankwise/internal/apiserver/seo"
	"rankwise/internal/apiserver/user"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET  /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /auth/register - 用户注册
//   - POST /auth/login    - 用户登录
//
// 用户 (User):
//   - GET  /users/settings - 获取资料与设置
//   - PUT  /users/settings - 部分更新资料与设置
//   - POST /users/avatar   - 上传头像
//
// SEO 工具:
//   - POST   /api/seo/meta    - 生成 meta 标签
//   - POST   /api/seo/analyze - 分析 URL
//   - GET    /api/seo/history - 分析历史
//   - DELETE /api/seo/history - 清空分析历史
//
// 支付 (Payment):
//   - POST /api/payment/checkout - 创建订阅结账会话
//   - POST /api/payment/webhook  - 支付方回调（无需令牌）
//
// 中间件链（由内向外）：路由 → 指标 → 认证 → CORS
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	authCfg := auth.Config{
		JWTSecret: h.cfg.Auth.JWTSecret,
		TokenTTL:  h.cfg.Auth.TokenTTL,
	}

	// Auth 接口
	authHandler := auth.NewHandler(h.store, authCfg, h.mailer)
	authHandler.RegisterRoutes(mux)

	// User 接口
	userHandler := user.NewHandler(h.store, h.avatars)
	userHandler.RegisterRoutes(mux)

	// SEO 工具接口
	seoHandler := seo.NewHandler(h.cache)
	seoHandler.RegisterRoutes(mux)

	// 支付接口
	paymentHandler := payment.NewHandler(h.stripe, h.cfg.FrontendURL, h.cfg.Stripe)
	paymentHandler.RegisterRoutes(mux)

	// 应用指标中间件
	handler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	handler = auth.Middleware(authCfg)(handler)

	// 应用 CORS 中间件
	return corsMiddleware(h.cfg.FrontendURL)(handler)
}

// corsMiddleware 添加 CORS 头支持前端跨域请求
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Stripe-Signature")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
