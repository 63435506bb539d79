// Package localstore 提供客户端本地的持久化键值存储
//
// 会话令牌、用户快照和各功能的本地缓存都落在同一张 SQLite 表里，
// 客户端重启后会话仍然有效。
package localstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store SQLite 键值存储
type Store struct {
	db *sql.DB
}

// Open 打开（必要时创建）本地存储文件
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init local store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB 用已有连接创建存储，测试用
func NewWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to init local store schema: %w", err)
	}
	return s, nil
}

// Get 读取键值，键不存在时返回 (nil, nil)
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session[%s]: %w", key, err)
	}
	return value, nil
}

// Set 写入键值，已存在时覆盖
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set session[%s]: %w", key, err)
	}
	return nil
}

// Delete 删除单个键
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", key, err)
	}
	return nil
}

// DeleteByPrefix 删除某前缀下的全部键（功能级缓存清理用）
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE key LIKE ? || '%'`, prefix)
	if err != nil {
		return fmt.Errorf("failed to delete session keys with prefix %s: %w", prefix, err)
	}
	return nil
}

// Close 关闭底层数据库
func (s *Store) Close() error {
	return s.db.Close()
}
