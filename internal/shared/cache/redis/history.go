package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rankwise/internal/shared/cache"
)

const (
	historyKeyPrefix = "seo:history:"
	maxHistoryLen    = 20
	historyTTL       = 30 * 24 * time.Hour
)

func historyKey(userID string) string {
	return historyKeyPrefix + userID
}

// AppendAnalysis 追加一条分析记录并裁剪历史长度
func (s *Store) AppendAnalysis(ctx context.Context, userID string, rec *cache.AnalysisRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal analysis record: %w", err)
	}

	key := historyKey(userID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxHistoryLen-1)
	pipe.Expire(ctx, key, historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append analysis history: %w", err)
	}
	return nil
}

// ListAnalyses 按时间倒序返回最多 limit 条记录
func (s *Store) ListAnalyses(ctx context.Context, userID string, limit int) ([]*cache.AnalysisRecord, error) {
	if limit <= 0 || limit > maxHistoryLen {
		limit = maxHistoryLen
	}

	raw, err := s.client.LRange(ctx, historyKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list analysis history: %w", err)
	}

	records := make([]*cache.AnalysisRecord, 0, len(raw))
	for _, item := range raw {
		var rec cache.AnalysisRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue // 跳过损坏的记录
		}
		records = append(records, &rec)
	}
	return records, nil
}

// ClearAnalyses 清空某用户的全部历史
func (s *Store) ClearAnalyses(ctx context.Context, userID string) error {
	return s.client.Del(ctx, historyKey(userID)).Err()
}

// 确保 Store 实现了 Cache 接口
var _ cache.Cache = (*Store)(nil)
