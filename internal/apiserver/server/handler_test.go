package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankwise/internal/config"
	"rankwise/internal/shared/cache"
	"rankwise/internal/shared/payment"
	"rankwise/internal/shared/storage"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Env:         config.EnvTest,
		FrontendURL: "http://localhost:3000",
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
		},
	}
	metrics := NewMetrics("rankwise", prometheus.NewRegistry())
	h := NewHandler(cfg, storage.NewMemStore(), cache.NewMemoryCache(),
		nil, nil, payment.NewClient(config.StripeConfig{}), metrics)
	return h.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := testRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCORSHeaders(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := testRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users/settings"},
		{http.MethodPut, "/users/settings"},
		{http.MethodPost, "/users/avatar"},
		{http.MethodPost, "/api/seo/analyze"},
		{http.MethodGet, "/api/seo/history"},
		{http.MethodPost, "/api/payment/checkout"},
	}
	for _, p := range paths {
		rec := doJSON(t, router, p.method, p.path, "{}", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

// 完整注册→登录→改设置→查历史流程。
func TestEndToEndFlow(t *testing.T) {
	router := testRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var reg struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	require.NotEmpty(t, reg.Token)

	rec = doJSON(t, router, http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	token := login.Token

	rec = doJSON(t, router, http.MethodPut, "/users/settings", `{"company":"Acme"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/users/settings", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"company":"Acme"`)

	rec = doJSON(t, router, http.MethodPost, "/api/seo/analyze", `{"url":"https://example.com"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/seo/history", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://example.com")
}

func TestWebhookIsPublic(t *testing.T) {
	router := testRouter(t)

	// 未配置 webhook secret 时应报 503 而不是 401
	rec := doJSON(t, router, http.MethodPost, "/api/payment/webhook", "{}", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
