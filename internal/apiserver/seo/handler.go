// Package seo 提供 SEO 工具接口：meta 标签生成、URL 分析与分析历史。
//
// 分析打分目前是占位实现：对 URL 做确定性哈希映射到 60-99 区间，
// 不做真实抓取和解析。接口契约与后续接入真实分析引擎保持兼容。
package seo

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rankwise/internal/apiserver/auth"
	"rankwise/internal/shared/cache"
)

// defaultHistoryLimit GET /api/seo/history 默认返回条数
const defaultHistoryLimit = 20

// Handler SEO 工具 HTTP 处理器
type Handler struct {
	cache cache.Cache
}

// NewHandler 创建 SEO 处理器
func NewHandler(c cache.Cache) *Handler {
	return &Handler{cache: c}
}

// RegisterRoutes 注册 SEO 相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/seo/meta", h.GenerateMeta)
	mux.HandleFunc("POST /api/seo/analyze", h.AnalyzeURL)
	mux.HandleFunc("GET /api/seo/history", h.History)
	mux.HandleFunc("DELETE /api/seo/history", h.ClearHistory)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type metaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	URL         string `json:"url"`
}

type metaResult struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    string   `json:"keywords"`
	Tags        []string `json:"tags"`
	Suggestions []string `json:"suggestions"`
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ============================================================================
// Handlers
// ============================================================================

// GenerateMeta 生成 meta 标签片段及优化建议
//
// 路由: POST /api/seo/meta
func (h *Handler) GenerateMeta(w http.ResponseWriter, r *http.Request) {
	var req metaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	tags := []string{
		fmt.Sprintf("<title>%s</title>", req.Title),
		fmt.Sprintf(`<meta name="description" content="%s">`, req.Description),
		fmt.Sprintf(`<meta property="og:title" content="%s">`, req.Title),
		fmt.Sprintf(`<meta property="og:description" content="%s">`, req.Description),
	}
	if req.Keywords != "" {
		tags = append(tags, fmt.Sprintf(`<meta name="keywords" content="%s">`, req.Keywords))
	}
	if req.URL != "" {
		tags = append(tags, fmt.Sprintf(`<link rel="canonical" href="%s">`, req.URL))
		tags = append(tags, fmt.Sprintf(`<meta property="og:url" content="%s">`, req.URL))
	}

	var suggestions []string
	if n := len(req.Title); n < 30 || n > 60 {
		suggestions = append(suggestions, "Keep the title between 30 and 60 characters")
	}
	if n := len(req.Description); n < 120 || n > 160 {
		suggestions = append(suggestions, "Keep the description between 120 and 160 characters")
	}
	if req.Keywords == "" {
		suggestions = append(suggestions, "Add a few focus keywords")
	}
	if suggestions == nil {
		suggestions = []string{"Meta tags look good"}
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: metaResult{
		Title:       req.Title,
		Description: req.Description,
		Keywords:    req.Keywords,
		Tags:        tags,
		Suggestions: suggestions,
	}})
}

// AnalyzeURL 分析 URL 并把结果写入用户历史
//
// 路由: POST /api/seo/analyze
func (h *Handler) AnalyzeURL(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "Invalid URL")
		return
	}

	rec := &cache.AnalysisRecord{
		URL:             req.URL,
		Score:           scoreURL(req.URL),
		Recommendations: recommendationsFor(req.URL),
		AnalyzedAt:      time.Now(),
	}

	if err := h.cache.AppendAnalysis(r.Context(), authUser.ID, rec); err != nil {
		// 历史只是便利功能，写入失败不影响本次分析结果
		log.Printf("[seo.analyze] AppendAnalysis error: %v", err)
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: rec})
}

// History 返回当前用户的分析历史（时间倒序）
//
// 路由: GET /api/seo/history?limit=N
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	records, err := h.cache.ListAnalyses(r.Context(), authUser.ID, limit)
	if err != nil {
		log.Printf("[seo.history] ListAnalyses error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if records == nil {
		records = []*cache.AnalysisRecord{}
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: records})
}

// ClearHistory 清空当前用户的分析历史
//
// 路由: DELETE /api/seo/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	if err := h.cache.ClearAnalyses(r.Context(), authUser.ID); err != nil {
		log.Printf("[seo.history] ClearAnalyses error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// ============================================================================
// 打分逻辑（占位实现）
// ============================================================================

// scoreURL 把 URL 确定性映射到 [60, 99]，同一 URL 永远得到同一分数
func scoreURL(rawURL string) int {
	h := fnv.New32a()
	h.Write([]byte(rawURL))
	return 60 + int(h.Sum32()%40)
}

func recommendationsFor(rawURL string) []string {
	recs := []string{
		"Add descriptive alt text to all images",
		"Use a single h1 heading per page",
		"Compress images to improve load time",
	}
	if !strings.HasPrefix(rawURL, "https://") {
		recs = append([]string{"Serve the page over HTTPS"}, recs...)
	}
	return recs
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
