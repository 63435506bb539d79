// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"rankwise/internal/shared/model"
)

// UserUpdate 用户部分更新
// 只有非 nil 字段会被写入；密码永远不能通过该路径修改。
type UserUpdate struct {
	Name     *string
	Email    *string
	Company  *string
	Role     *string
	Avatar   *string
	Settings *model.UserSettings
}

// Empty 是否没有任何待更新字段（updated_at 仍会刷新）
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Company == nil &&
		u.Role == nil && u.Avatar == nil && u.Settings == nil
}

// UserStore 用户存储接口
type UserStore interface {
	// CreateUser 插入新用户并回填 ID。
	// email 唯一索引冲突时返回 ErrDuplicate。
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByEmail 按邮箱查找，包含密码哈希（登录校验用）。
	// 不存在时返回 (nil, nil)。
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUserByID 按 ID 查找，password 字段在查询投影层面排除。
	// 不存在时返回 (nil, nil)。
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// UpdateUser 部分更新并返回更新后的净化记录（读写一致）。
	// updated_at 总是刷新；用户不存在时返回 ErrNotFound。
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*model.User, error)

	// CountUsersByEmail 统计某邮箱的用户数（测试与唯一性校验用）
	CountUsersByEmail(ctx context.Context, email string) (int64, error)

	Close() error
}
