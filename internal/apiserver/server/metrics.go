// Package server Prometheus 指标导出
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有 API Server 指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// 业务指标
	RegistrationsTotal prometheus.Counter
	LoginsTotal        *prometheus.CounterVec
	AvatarUploadsTotal *prometheus.CounterVec
	AnalysesTotal      prometheus.Counter
}

// NewMetrics 创建指标实例
//
// reg 通常传 prometheus.DefaultRegisterer；测试传独立 Registry
// 避免重复注册 panic。
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		RegistrationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total successful user registrations",
			},
		),
		LoginsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total login attempts by result",
			},
			[]string{"result"},
		),
		AvatarUploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "avatar_uploads_total",
				Help:      "Total avatar uploads by result",
			},
			[]string{"result"},
		),
		AnalysesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "seo_analyses_total",
				Help:      "Total SEO URL analyses performed",
			},
		),
	}
}

// MetricsMiddleware 创建 HTTP 指标中间件
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// 包装 ResponseWriter 以捕获状态码
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(wrapped.statusCode)

		// 路径全部是固定路由，无高基数风险
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)

		m.recordBusiness(r.Method, r.URL.Path, wrapped.statusCode)
	})
}

// recordBusiness 按路由维护业务计数器
func (m *Metrics) recordBusiness(method, path string, status int) {
	switch {
	case method == http.MethodPost && path == "/auth/register" && status == http.StatusCreated:
		m.RegistrationsTotal.Inc()
	case method == http.MethodPost && path == "/auth/login":
		result := "failure"
		if status == http.StatusOK {
			result = "success"
		}
		m.LoginsTotal.WithLabelValues(result).Inc()
	case method == http.MethodPost && path == "/users/avatar":
		result := "failure"
		if status == http.StatusOK {
			result = "success"
		}
		m.AvatarUploadsTotal.WithLabelValues(result).Inc()
	case method == http.MethodPost && path == "/api/seo/analyze" && status == http.StatusOK:
		m.AnalysesTotal.Inc()
	}
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// MetricsHandler 返回 Prometheus HTTP Handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
