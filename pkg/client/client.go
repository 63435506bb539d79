// Package client RankWise API 的 Go 客户端
//
// 会话状态（令牌、用户快照）写入本地 SQLite 存储，进程重启后仍然
// 保持登录态。IsAuthenticated 只检查令牌是否存在，不校验签名和
// 有效期：过期令牌要等服务端返回 401 才暴露。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"rankwise/internal/shared/model"
	"rankwise/pkg/client/localstore"
)

// 本地存储键
const (
	keyToken = "token"
	keyUser  = "user"

	// 功能级缓存键前缀，退出登录时整体清理
	historyKeyPrefix = "history:"
)

// Client RankWise API 客户端
type Client struct {
	baseURL string
	http    *http.Client
	store   *localstore.Store
}

// New 创建客户端
func New(baseURL string, store *localstore.Store) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
	}
}

// apiResponse 服务端统一响应信封
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Token   string          `json:"token"`
	Message string          `json:"message"`
}

// APIError 服务端返回的业务错误
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// ============================================================================
// 会话
// ============================================================================

// Register 注册并持久化会话
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	return c.authenticate(ctx, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// Login 登录并持久化会话
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (*model.User, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, path, body, false)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(resp.Data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	if err := c.store.Set(ctx, keyToken, []byte(resp.Token)); err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, keyUser, resp.Data); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout 清除本地会话及功能缓存
//
// 纯本地操作，服务端无会话状态可失效。
func (c *Client) Logout(ctx context.Context) error {
	if err := c.store.Delete(ctx, keyToken); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, keyUser); err != nil {
		return err
	}
	return c.store.DeleteByPrefix(ctx, historyKeyPrefix)
}

// IsAuthenticated 是否持有令牌
//
// 只检查令牌存在性，不校验有效期。
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	token, err := c.store.Get(ctx, keyToken)
	return err == nil && len(token) > 0
}

// CurrentUser 返回本地缓存的用户快照，未登录时返回 (nil, nil)
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	raw, err := c.store.Get(ctx, keyUser)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &user, nil
}

// ============================================================================
// 设置与头像
// ============================================================================

// SettingsUpdate 设置更新请求，nil 字段不会发送
type SettingsUpdate struct {
	Name     *string             `json:"name,omitempty"`
	Email    *string             `json:"email,omitempty"`
	Company  *string             `json:"company,omitempty"`
	Role     *string             `json:"role,omitempty"`
	Settings *model.UserSettings `json:"settings,omitempty"`
}

// GetSettings 拉取服务端最新资料并刷新本地快照
func (c *Client) GetSettings(ctx context.Context) (*model.User, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/users/settings", nil, true)
	if err != nil {
		return nil, err
	}
	return c.cacheUser(ctx, resp.Data)
}

// UpdateSettings 更新资料并刷新本地快照
func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) (*model.User, error) {
	resp, err := c.doJSON(ctx, http.MethodPut, "/users/settings", update, true)
	if err != nil {
		return nil, err
	}
	return c.cacheUser(ctx, resp.Data)
}

// UploadAvatar 上传头像并刷新本地快照
func (c *Client) UploadAvatar(ctx context.Context, filename string, data []byte) (*model.User, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("avatar", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/avatar", buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.setAuth(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	return c.cacheUser(ctx, resp.Data)
}

func (c *Client) cacheUser(ctx context.Context, raw json.RawMessage) (*model.User, error) {
	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	if err := c.store.Set(ctx, keyUser, raw); err != nil {
		return nil, err
	}
	return &user, nil
}

// ============================================================================
// SEO 工具
// ============================================================================

// AnalysisResult 一次 URL 分析结果
type AnalysisResult struct {
	URL             string    `json:"url"`
	Score           int       `json:"score"`
	Recommendations []string  `json:"recommendations"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
}

// AnalyzeURL 分析 URL，结果同时写入本地功能缓存
func (c *Client) AnalyzeURL(ctx context.Context, url string) (*AnalysisResult, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/seo/analyze", map[string]string{"url": url}, true)
	if err != nil {
		return nil, err
	}

	var result AnalysisResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	if err := c.store.Set(ctx, historyKeyPrefix+"analyzer:last", resp.Data); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalysisHistory 拉取服务端分析历史
func (c *Client) AnalysisHistory(ctx context.Context) ([]*AnalysisResult, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/api/seo/history", nil, true)
	if err != nil {
		return nil, err
	}
	var records []*AnalysisResult
	if err := json.Unmarshal(resp.Data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}

// ============================================================================
// HTTP 底层
// ============================================================================

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, authed bool) (*apiResponse, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		if err := c.setAuth(ctx, req); err != nil {
			return nil, err
		}
	}

	return c.send(req)
}

func (c *Client) setAuth(ctx context.Context, req *http.Request) error {
	token, err := c.store.Get(ctx, keyToken)
	if err != nil {
		return err
	}
	if len(token) == 0 {
		return &APIError{StatusCode: http.StatusUnauthorized, Message: "not authenticated"}
	}
	req.Header.Set("Authorization", "Bearer "+string(token))
	return nil
}

func (c *Client) send(req *http.Request) (*apiResponse, error) {
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", httpResp.StatusCode, err)
	}
	if httpResp.StatusCode >= 400 || !resp.Success {
		return nil, &APIError{StatusCode: httpResp.StatusCode, Message: resp.Message}
	}
	return &resp, nil
}
