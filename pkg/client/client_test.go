package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"rankwise/pkg/client/localstore"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *localstore.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := localstore.NewWithDB(db)
	require.NoError(t, err)

	return New(srv.URL, store), store
}

// fakeAPI 模拟服务端认证接口
func fakeAPI(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid email or password"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "test-token",
			"data":    map[string]any{"id": "6512bd43d9caa6e02c990b0a", "name": "Alice", "email": req["email"]},
		})
	})
	mux.HandleFunc("PUT /users/settings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "No token, authorization denied"})
			return
		}
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"id": "6512bd43d9caa6e02c990b0a", "name": "Alice",
				"email": "alice@example.com", "company": req["company"],
			},
		})
	})
	mux.HandleFunc("POST /api/seo/analyze", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"url": "https://example.com", "score": 87, "recommendations": []string{"x"}},
		})
	})
	return mux
}

func TestLoginPersistsSession(t *testing.T) {
	c, store := newTestClient(t, fakeAPI(t))
	ctx := context.Background()

	user, err := c.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	// 令牌与用户快照落入本地存储
	token, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "test-token", string(token))

	assert.True(t, c.IsAuthenticated(ctx))

	cached, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "alice@example.com", cached.Email)
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	c, _ := newTestClient(t, fakeAPI(t))
	ctx := context.Background()

	_, err := c.Login(ctx, "alice@example.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid email or password", apiErr.Message)

	assert.False(t, c.IsAuthenticated(ctx))
}

func TestLogoutClearsSessionAndFeatureCache(t *testing.T) {
	c, store := newTestClient(t, fakeAPI(t))
	ctx := context.Background()

	_, err := c.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	_, err = c.AnalyzeURL(ctx, "https://example.com")
	require.NoError(t, err)

	cached, err := store.Get(ctx, "history:analyzer:last")
	require.NoError(t, err)
	require.NotNil(t, cached)

	require.NoError(t, c.Logout(ctx))

	assert.False(t, c.IsAuthenticated(ctx))
	u, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	cached, err = store.Get(ctx, "history:analyzer:last")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestUpdateSettingsRefreshesSnapshot(t *testing.T) {
	c, _ := newTestClient(t, fakeAPI(t))
	ctx := context.Background()

	_, err := c.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	company := "Acme"
	updated, err := c.UpdateSettings(ctx, SettingsUpdate{Company: &company})
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated.Company)

	cached, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme", cached.Company)
}

func TestAuthedCallWithoutSession(t *testing.T) {
	c, _ := newTestClient(t, fakeAPI(t))

	_, err := c.GetSettings(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

// 会话在客户端重建后仍然有效（同一存储句柄）。
func TestSessionSurvivesClientRestart(t *testing.T) {
	srv := httptest.NewServer(fakeAPI(t))
	defer srv.Close()

	path := t.TempDir() + "/session.db"
	store, err := localstore.Open(path)
	require.NoError(t, err)

	ctx := context.Background()
	c := New(srv.URL, store)
	_, err = c.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store2, err := localstore.Open(path)
	require.NoError(t, err)
	defer store2.Close()

	c2 := New(srv.URL, store2)
	assert.True(t, c2.IsAuthenticated(ctx))
}
