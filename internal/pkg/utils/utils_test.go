package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomString(t *testing.T) {
	s1 := GenerateRandomString(32)
	s2 := GenerateRandomString(32)

	assert.Len(t, s1, 32)
	assert.NotEqual(t, s1, s2)
}

func TestGenerateAPIKey(t *testing.T) {
	key, prefix := GenerateAPIKey()

	assert.True(t, strings.HasPrefix(key, "ih_"))
	assert.Len(t, prefix, 8)
	// 前缀包含在完整 Key 里，方便列表里对账
	assert.True(t, strings.HasPrefix(key, "ih_"+prefix+"_"))
}

func TestGenerateWebhookSecret(t *testing.T) {
	secret := GenerateWebhookSecret()
	assert.True(t, strings.HasPrefix(secret, "whsec_"))
	assert.Len(t, secret, len("whsec_")+40)
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"My Team", "my-team"},
		{"  Data Lab  ", "data-lab"},
		{"Acme, Inc.", "acme-inc"},
		{"ABC123", "abc123"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GenerateSlug(tt.input), "input=%q", tt.input)
	}
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***e@example.com", MaskEmail("alice@example.com"))
	assert.Equal(t, "ab@example.com", MaskEmail("ab@example.com")) // 过短不处理
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "hello", TruncateString("hello", 10))
	assert.Equal(t, "hel...", TruncateString("hello", 3))
}
