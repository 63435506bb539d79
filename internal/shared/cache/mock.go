// Package cache 缓存层内存实现
package cache

import (
	"context"
	"sync"
)

// ============================================================================
// MemoryCache - 内存 Cache 实现（测试与无 Redis 部署时使用）
// ============================================================================

// MemoryCache 进程内的分析历史缓存
type MemoryCache struct {
	mu      sync.RWMutex
	history map[string][]*AnalysisRecord
}

// NewMemoryCache 创建 MemoryCache 实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{history: make(map[string][]*AnalysisRecord)}
}

func (c *MemoryCache) AppendAnalysis(ctx context.Context, userID string, rec *AnalysisRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := append([]*AnalysisRecord{rec}, c.history[userID]...)
	if len(records) > maxHistoryLen {
		records = records[:maxHistoryLen]
	}
	c.history[userID] = records
	return nil
}

func (c *MemoryCache) ListAnalyses(ctx context.Context, userID string, limit int) ([]*AnalysisRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := c.history[userID]
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	out := make([]*AnalysisRecord, len(records))
	copy(out, records)
	return out, nil
}

func (c *MemoryCache) ClearAnalyses(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.history, userID)
	return nil
}

// Close 关闭缓存
func (c *MemoryCache) Close() error {
	return nil
}

// maxHistoryLen 单个用户保留的最大历史条数
const maxHistoryLen = 20

// 确保 MemoryCache 实现了 Cache 接口
var _ Cache = (*MemoryCache)(nil)
