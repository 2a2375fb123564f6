package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hello123")
	require.NoError(t, err)
	assert.NotEqual(t, "hello123", hash)

	assert.True(t, CheckPassword("hello123", hash))
	assert.False(t, CheckPassword("hello124", hash))
}

func TestHashAPIKey(t *testing.T) {
	h1 := HashAPIKey("ih_abc_xyz")
	h2 := HashAPIKey("ih_abc_xyz")
	h3 := HashAPIKey("ih_abc_xyw")

	// 同一密钥哈希必须稳定，用于查库比对
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // SHA256 十六进制
}
