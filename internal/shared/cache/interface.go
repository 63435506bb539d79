// Package cache 缓存层抽象接口
//
// 提供临时状态和缓存的存取能力，生产环境由 Redis 实现，
// 未配置 Redis 时回退到内存实现。
package cache

import (
	"context"
	"time"
)

// AnalysisRecord 一次 URL 分析的缓存记录
type AnalysisRecord struct {
	URL             string    `json:"url"`
	Score           int       `json:"score"`
	Recommendations []string  `json:"recommendations"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
}

// AnalysisHistoryCache 分析历史缓存接口
type AnalysisHistoryCache interface {
	// AppendAnalysis 追加一条分析记录（最新在前，历史有上限）
	AppendAnalysis(ctx context.Context, userID string, rec *AnalysisRecord) error

	// ListAnalyses 按时间倒序返回最多 limit 条记录
	ListAnalyses(ctx context.Context, userID string, limit int) ([]*AnalysisRecord, error)

	// ClearAnalyses 清空某用户的全部历史
	ClearAnalyses(ctx context.Context, userID string) error
}

// Cache 缓存组合接口
type Cache interface {
	AnalysisHistoryCache
	Close() error
}
