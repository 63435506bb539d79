package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rankwise/internal/shared/model"
)

func testConfig() Config {
	return Config{JWTSecret: "test-secret", TokenTTL: time.Hour}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("secret123", "not-a-hash"))
}

func TestGenerateAndParseToken(t *testing.T) {
	cfg := testConfig()
	user := &model.User{
		ID:    bson.NewObjectID(),
		Name:  "Alice",
		Email: "alice@example.com",
	}

	token, err := GenerateToken(cfg, user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
}

func TestParseTokenWrongSecret(t *testing.T) {
	cfg := testConfig()
	user := &model.User{ID: bson.NewObjectID(), Email: "bob@example.com"}

	token, err := GenerateToken(cfg, user)
	require.NoError(t, err)

	_, err = ParseToken(Config{JWTSecret: "other-secret", TokenTTL: time.Hour}, token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	cfg := Config{JWTSecret: "test-secret", TokenTTL: -time.Minute}
	user := &model.User{ID: bson.NewObjectID(), Email: "bob@example.com"}

	token, err := GenerateToken(cfg, user)
	require.NoError(t, err)

	_, err = ParseToken(testConfig(), token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken(testConfig(), "not.a.token")
	assert.Error(t, err)
}
