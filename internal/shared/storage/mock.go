// Package storage 提供存储层抽象
//
// mock.go 提供用于测试的内存 UserStore 实现
package storage

import (
	"context"
	"sync"
	"time"

	"rankwise/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// MemStore - 内存 UserStore 实现（用于测试）
// ============================================================================

// MemStore 内存用户存储，email 唯一性与 Mongo 唯一索引行为一致
type MemStore struct {
	mu    sync.RWMutex
	users map[string]*model.User // key: id hex
}

// NewMemStore 创建内存存储实例
func NewMemStore() *MemStore {
	return &MemStore{users: make(map[string]*model.User)}
}

func (s *MemStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	stored := *user
	s.users[user.ID.Hex()] = &stored
	return nil
}

func (s *MemStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	// 与 mongostore 投影排除 password 的行为一致
	return u.Sanitize(), nil
}

func (s *MemStore) UpdateUser(ctx context.Context, id string, update UserUpdate) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.Company != nil {
		u.Company = *update.Company
	}
	if update.Role != nil {
		u.Role = *update.Role
	}
	if update.Avatar != nil {
		u.Avatar = *update.Avatar
	}
	if update.Settings != nil {
		u.Settings = *update.Settings
	}
	u.UpdatedAt = time.Now()
	return u.Sanitize(), nil
}

func (s *MemStore) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, u := range s.users {
		if u.Email == email {
			n++
		}
	}
	return n, nil
}

// Close 关闭存储
func (s *MemStore) Close() error {
	return nil
}

// 确保 MemStore 实现了 UserStore 接口
var _ UserStore = (*MemStore)(nil)
