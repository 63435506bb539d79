package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rankwise/internal/shared/model"
	"rankwise/internal/shared/storage"
)

func newTestHandler(t *testing.T) (*Handler, *storage.MemStore) {
	t.Helper()
	store := storage.NewMemStore()
	return NewHandler(store, testConfig(), nil), store
}

func postJSON(t *testing.T, h http.Handler, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func routes(h *Handler) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func TestRegisterSuccess(t *testing.T) {
	h, store := newTestHandler(t)

	rec := postJSON(t, routes(h), "/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool            `json:"success"`
		Token   string          `json:"token"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)

	// 响应里绝不出现密码字段
	assert.NotContains(t, rec.Body.String(), "password")

	// 默认设置已播种
	var data map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	settings := data["settings"].(map[string]any)
	notifications := settings["notifications"].(map[string]any)
	assert.Equal(t, true, notifications["email"])
	prefs := settings["preferences"].(map[string]any)
	assert.Equal(t, "weekly", prefs["defaultChangeFreq"])

	// 令牌可解析且指向新建用户
	claims, err := ParseToken(testConfig(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)

	// 用户已落库且密码为 bcrypt 哈希
	u, err := store.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, CheckPassword("secret123", u.PasswordHash))
}

func TestRegisterValidation(t *testing.T) {
	h, store := newTestHandler(t)
	mux := routes(h)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing name", `{"email":"a@b.com","password":"secret123"}`, "Name, email and password are required"},
		{"missing email", `{"name":"A","password":"secret123"}`, "Name, email and password are required"},
		{"missing password", `{"name":"A","email":"a@b.com"}`, "Name, email and password are required"},
		{"short password", `{"name":"A","email":"a@b.com","password":"12345"}`, "Password must be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, mux, "/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}

	// 校验失败不产生任何持久化
	n, err := store.CountUsersByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRegisterDuplicate(t *testing.T) {
	h, store := newTestHandler(t)
	mux := routes(h)

	body := `{"name":"Alice","email":"alice@example.com","password":"secret123"}`
	rec := postJSON(t, mux, "/auth/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, mux, "/auth/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "User already exists")

	n, err := store.CountUsersByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// recordingMailer 记录欢迎邮件调用
type recordingMailer struct {
	welcomed chan string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, text string) error { return nil }

func (m *recordingMailer) SendWelcome(ctx context.Context, to, name string) error {
	m.welcomed <- to
	return nil
}

func TestRegisterSendsWelcomeEmail(t *testing.T) {
	store := storage.NewMemStore()
	mailer := &recordingMailer{welcomed: make(chan string, 1)}
	h := NewHandler(store, testConfig(), mailer)

	rec := postJSON(t, routes(h), "/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	select {
	case to := <-mailer.welcomed:
		assert.Equal(t, "alice@example.com", to)
	case <-time.After(2 * time.Second):
		t.Fatal("welcome email was not sent")
	}
}

func TestLoginSuccess(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := routes(h)

	postJSON(t, mux, "/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret123"}`)

	rec := postJSON(t, mux, "/auth/login",
		`{"email":"alice@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestLoginValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := postJSON(t, routes(h), "/auth/login", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email and password are required")
}

// 未知邮箱和密码错误的响应必须逐字节一致，防止用户枚举。
func TestLoginUniformFailure(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := routes(h)

	postJSON(t, mux, "/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret123"}`)

	unknown := postJSON(t, mux, "/auth/login",
		`{"email":"nobody@example.com","password":"secret123"}`)
	wrongPass := postJSON(t, mux, "/auth/login",
		`{"email":"alice@example.com","password":"wrong-pass"}`)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.True(t, bytes.Equal(unknown.Body.Bytes(), wrongPass.Body.Bytes()))
}

func TestMiddleware(t *testing.T) {
	cfg := testConfig()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user != nil {
			w.Header().Set("X-User-Email", user.Email)
		}
		w.WriteHeader(http.StatusOK)
	})
	protected := Middleware(cfg)(next)

	t.Run("public path passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/settings", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "No token, authorization denied")
	})

	t.Run("bad token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/settings", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Token is not valid")
	})

	t.Run("valid token injects user", func(t *testing.T) {
		u := &model.User{ID: bson.NewObjectID(), Name: "Alice", Email: "alice@example.com"}
		token, err := GenerateToken(cfg, u)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/users/settings", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice@example.com", rec.Header().Get("X-User-Email"))
	})
}
