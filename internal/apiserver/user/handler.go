package user

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"rankwise/internal/apiserver/auth"
	"rankwise/internal/shared/model"
	"rankwise/internal/shared/storage"
)

// maxAvatarSize 头像上传大小上限
const maxAvatarSize = 5 << 20 // 5 MiB

// AvatarStore 头像对象存储接口，objstore.Client 实现
type AvatarStore interface {
	UploadAvatar(ctx context.Context, userID string, data []byte, contentType string) (string, error)
}

// Handler 用户资料与设置 HTTP 处理器
type Handler struct {
	store   storage.UserStore
	avatars AvatarStore
}

// NewHandler 创建处理器。avatars 为 nil 时头像上传返回 503。
func NewHandler(store storage.UserStore, avatars AvatarStore) *Handler {
	return &Handler{store: store, avatars: avatars}
}

// RegisterRoutes 注册用户相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /users/settings", h.GetSettings)
	mux.HandleFunc("PUT /users/settings", h.UpdateSettings)
	mux.HandleFunc("POST /users/avatar", h.UploadAvatar)
}

// updateRequest 设置更新请求体，所有字段可选。
// settings 一旦出现即整体替换，不做字段级合并。
type updateRequest struct {
	Name     *string             `json:"name"`
	Email    *string             `json:"email"`
	Company  *string             `json:"company"`
	Role     *string             `json:"role"`
	Settings *model.UserSettings `json:"settings"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// GetSettings 获取当前用户资料与设置
//
// 路由: GET /users/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	u, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[user.settings] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: u})
}

// UpdateSettings 部分更新用户资料与设置
//
// 路由: PUT /users/settings
//
// 只写请求里出现的字段；空请求体也会刷新 updatedAt。
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := storage.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Company:  req.Company,
		Role:     req.Role,
		Settings: req.Settings,
	}

	u, err := h.store.UpdateUser(r.Context(), authUser.ID, update)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[user.settings] UpdateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: u})
}

// UploadAvatar 上传头像
//
// 路由: POST /users/avatar （multipart/form-data，字段名 avatar）
//
// 对象键由用户 ID 决定，重复上传直接覆盖旧头像。
// 只有对象存储写入成功后才更新用户文档。
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	if h.avatars == nil {
		writeError(w, http.StatusServiceUnavailable, "Avatar storage not configured")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	if len(data) > maxAvatarSize {
		writeError(w, http.StatusBadRequest, "File too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.avatars.UploadAvatar(r.Context(), authUser.ID, data, contentType)
	if err != nil {
		// 对象存储失败时不得留下半截状态，用户文档保持原样
		log.Printf("[user.avatar] upload error: %v", err)
		writeError(w, http.StatusBadGateway, "Failed to upload avatar")
		return
	}

	u, err := h.store.UpdateUser(r.Context(), authUser.ID, storage.UserUpdate{Avatar: &url})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[user.avatar] UpdateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update avatar")
		return
	}

	log.Printf("[user] Avatar updated: %s -> %s", authUser.ID, url)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: u})
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
