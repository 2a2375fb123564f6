package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateRandomString 生成随机字符串
func GenerateRandomString(length int) string {
	bytes := make([]byte, length/2+1)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)[:length]
}

// GenerateInviteToken 生成邀请 Token
func GenerateInviteToken() string {
	return GenerateRandomString(32)
}

// GenerateWebhookSecret 生成 Webhook 签名密钥
func GenerateWebhookSecret() string {
	return "whsec_" + GenerateRandomString(40)
}

// GenerateAPIKey 生成 API Key
// 格式: ih_<前缀8位>_<随机40位>，前缀用于列表展示
func GenerateAPIKey() (key, prefix string) {
	prefix = GenerateRandomString(8)
	return "ih_" + prefix + "_" + GenerateRandomString(40), prefix
}

// GenerateSlug 生成 URL 友好的 slug
func GenerateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	var result strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r > 127 {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// MaskEmail 隐藏邮箱中间部分
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}
	name := parts[0]
	domain := parts[1]
	if len(name) <= 2 {
		return email
	}
	masked := name[0:1] + "***" + name[len(name)-1:]
	return masked + "@" + domain
}

// TruncateString 截断字符串
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
