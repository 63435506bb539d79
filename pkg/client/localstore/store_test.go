package localstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewWithDB(db)
	require.NoError(t, err)
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)
	v, err := s.Get(context.Background(), "token")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "token", []byte("abc")))
	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)

	// 覆盖写
	require.NoError(t, s.Set(ctx, "token", []byte("def")))
	v, err = s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("def"), v)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "token", []byte("abc")))
	require.NoError(t, s.Delete(ctx, "token"))

	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Nil(t, v)

	// 删除不存在的键不报错
	require.NoError(t, s.Delete(ctx, "token"))
}

func TestDeleteByPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "history:analyzer:last", []byte("1")))
	require.NoError(t, s.Set(ctx, "history:sitemap:last", []byte("2")))
	require.NoError(t, s.Set(ctx, "token", []byte("abc")))

	require.NoError(t, s.DeleteByPrefix(ctx, "history:"))

	v, err := s.Get(ctx, "history:analyzer:last")
	require.NoError(t, err)
	assert.Nil(t, v)

	// 前缀之外的键不受影响
	v, err = s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)
}

func TestOpenFile(t *testing.T) {
	path := t.TempDir() + "/session.db"
	s, err := Open(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "token", []byte("abc")))
	require.NoError(t, s.Close())

	// 重新打开后数据仍在
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)
}
