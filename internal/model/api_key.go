package model

import "time"

// APIKey 组织级 API 密钥
// 明文只在创建时返回一次，库中仅保留 SHA256 哈希和展示用前缀
type APIKey struct {
	BaseModel
	OrgID      string     `gorm:"type:varchar(36);index;not null" json:"org_id"`
	CreatedBy  string     `gorm:"type:varchar(36);not null" json:"created_by"`
	Name       string     `gorm:"type:varchar(100);not null" json:"name"`
	Prefix     string     `gorm:"type:varchar(20);not null" json:"prefix"`
	KeyHash    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Scopes     string     `gorm:"type:json" json:"scopes"` // 权限范围 JSON 数组
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpireAt   *time.Time `json:"expire_at"`
	Revoked    bool       `gorm:"default:false" json:"revoked"`
}

func (APIKey) TableName() string {
	return "api_keys"
}

// IsActive API Key 是否可用
func (k *APIKey) IsActive() bool {
	if k.Revoked {
		return false
	}
	if k.ExpireAt != nil && time.Now().After(*k.ExpireAt) {
		return false
	}
	return true
}
