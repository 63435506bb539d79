package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"rankwise/internal/shared/mail"
	"rankwise/internal/shared/model"
	"rankwise/internal/shared/storage"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	store  storage.UserStore
	cfg    Config
	mailer mail.Sender
}

// NewHandler 创建认证处理器
// mailer 可以为 nil（未配置邮件服务）。
func NewHandler(store storage.UserStore, cfg Config, mailer mail.Sender) *Handler {
	return &Handler{store: store, cfg: cfg, mailer: mailer}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// envelope 统一响应信封 {success, data?, token?, message?}
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Token   string      `json:"token,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
//
// 路由: POST /auth/register
//
// 校验 → 邮箱查重 → bcrypt 哈希 → 播种默认设置并落库 → 签发令牌。
// 并发注册同一邮箱时由 users.email 唯一索引裁决，冲突同样报 409。
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	// 检查邮箱是否已注册
	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.register] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}

	// 哈希密码，明文不落库
	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.register] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	now := time.Now()
	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Settings:     model.DefaultUserSettings(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// check-then-insert 竞争窗口由唯一索引收口
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		log.Printf("[auth.register] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := GenerateToken(h.cfg, user)
	if err != nil {
		log.Printf("[auth.register] GenerateToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if h.mailer != nil {
		// 欢迎邮件异步发送，失败只记日志，不影响注册结果
		go func(email, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.mailer.SendWelcome(ctx, email, name); err != nil {
				log.Printf("[auth.register] welcome mail error: %v", err)
			}
		}(user.Email, user.Name)
	}

	log.Printf("[auth] User registered: %s (%s)", user.Email, user.ID.Hex())
	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    user.Sanitize(),
		Token:   token,
	})
}

// Login 用户登录
//
// 路由: POST /auth/login
//
// 未知邮箱与密码错误返回完全一致的状态和消息，避免用户枚举。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.login] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := GenerateToken(h.cfg, user)
	if err != nil {
		log.Printf("[auth.login] GenerateToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("[auth] User logged in: %s", user.Email)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    user.Sanitize(),
		Token:   token,
	})
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
