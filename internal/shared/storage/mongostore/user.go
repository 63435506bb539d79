package mongostore

import (
	"context"
	"errors"
	"time"

	"rankwise/internal/shared/model"
	"rankwise/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// sanitizedProjection 在查询层面排除密码字段，
// 读取路径从一开始就拿不到哈希，而不是事后过滤。
var sanitizedProjection = bson.D{{Key: "password", Value: 0}}

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	id, err := insertOne(ctx, s.col(ColUsers), user)
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetUserByEmail 按邮箱查找，包含密码哈希（仅登录校验使用）
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

// GetUserByID 按 ID 查找净化记录
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, nil
	}
	opts := options.FindOne().SetProjection(sanitizedProjection)
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: oid}}, opts)
}

// UpdateUser 部分更新，返回更新后的净化记录
func (s *Store) UpdateUser(ctx context.Context, id string, update storage.UserUpdate) (*model.User, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.D{{Key: "updated_at", Value: time.Now()}}
	if update.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *update.Name})
	}
	if update.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *update.Email})
	}
	if update.Company != nil {
		set = append(set, bson.E{Key: "company", Value: *update.Company})
	}
	if update.Role != nil {
		set = append(set, bson.E{Key: "role", Value: *update.Role})
	}
	if update.Avatar != nil {
		set = append(set, bson.E{Key: "avatar", Value: *update.Avatar})
	}
	if update.Settings != nil {
		set = append(set, bson.E{Key: "settings", Value: *update.Settings})
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(sanitizedProjection)
	user, err := findOneAndUpdate[model.User](ctx, s.col(ColUsers), oid, set, opts)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// CountUsersByEmail 统计某邮箱的用户数
func (s *Store) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	return s.col(ColUsers).CountDocuments(ctx, bson.D{{Key: "email", Value: email}})
}

// 确保 Store 实现了 UserStore 接口
var _ storage.UserStore = (*Store)(nil)
