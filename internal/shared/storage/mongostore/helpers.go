package mongostore

import (
	"context"
	"errors"

	"rankwise/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// wrapError 将 MongoDB 错误转换为领域错误
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicate
	}
	return err
}

// findOne 查找单个文档并解码到 result
// 文档不存在时返回 (nil, nil)
func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.D, opts ...options.Lister[options.FindOneOptions]) (*T, error) {
	var result T
	err := col.FindOne(ctx, filter, opts...).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrapError(err)
	}
	return &result, nil
}

// insertOne 插入单个文档
func insertOne(ctx context.Context, col *mongo.Collection, doc interface{}) (bson.ObjectID, error) {
	res, err := col.InsertOne(ctx, doc)
	if err != nil {
		return bson.NilObjectID, wrapError(err)
	}
	id, _ := res.InsertedID.(bson.ObjectID)
	return id, nil
}

// findOneAndUpdate 按 _id $set 更新并返回更新后的文档
// 不存在时返回 storage.ErrNotFound
func findOneAndUpdate[T any](ctx context.Context, col *mongo.Collection, id bson.ObjectID, set bson.D, opts ...options.Lister[options.FindOneAndUpdateOptions]) (*T, error) {
	var result T
	err := col.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		opts...,
	).Decode(&result)
	if err != nil {
		return nil, wrapError(err)
	}
	return &result, nil
}

// parseObjectID 解析十六进制字符串 ID
// 无效 ID 等价于实体不存在
func parseObjectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, storage.ErrNotFound
	}
	return oid, nil
}
