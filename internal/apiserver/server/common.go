// Package server 提供 HTTP API 处理器
//
// 本包实现了 RankWise 后端的 RESTful API 入口，包括：
//   - 认证接口（注册/登录，auth 包）
//   - 用户资料与设置接口（user 包）
//   - SEO 工具接口（seo 包）
//   - 支付接口（payment 包）
//
// 文件组织：
//   - common.go: 通用工具函数和 Handler 定义
//   - handler.go: 路由配置与中间件链
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"rankwise/internal/config"
	"rankwise/internal/shared/cache"
	"rankwise/internal/shared/mail"
	"rankwise/internal/shared/payment"
	"rankwise/internal/shared/storage"

	"rankwise/internal/apiserver/user"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域独立包
//   - 持有存储层、缓存层和外部服务客户端句柄
//
// 所有依赖在进程启动时注入一次，请求处理期间只读共享。
type Handler struct {
	cfg   *config.Config
	store storage.UserStore // MongoDB 存储层（用户持久化）

	// 缓存接口
	cache cache.Cache // 分析历史缓存（Redis 或内存回退）

	// 外部服务客户端
	avatars user.AvatarStore // 头像对象存储（MinIO），可为 nil
	mailer  mail.Sender      // 邮件发送（Mailgun），可为 nil
	stripe  *payment.Client  // 支付（Stripe）

	// 内部组件
	metrics *Metrics // Prometheus 指标
}

// NewHandler 创建 Handler 实例
func NewHandler(cfg *config.Config, store storage.UserStore, c cache.Cache,
	avatars user.AvatarStore, mailer mail.Sender, stripe *payment.Client,
	metrics *Metrics) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   store,
		cache:   c,
		avatars: avatars,
		mailer:  mailer,
		stripe:  stripe,
		metrics: metrics,
	}
}

// Health 健康检查
//
// 路由: GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
