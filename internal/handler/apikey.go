package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/crypto"
	"insighthub/internal/pkg/response"
	"insighthub/internal/pkg/utils"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
)

type APIKeyHandler struct{}

func NewAPIKeyHandler() *APIKeyHandler {
	return &APIKeyHandler{}
}

// CreateAPIKeyRequest 创建 API 密钥请求
type CreateAPIKeyRequest struct {
	Name       string   `json:"name" binding:"required"`
	Scopes     []string `json:"scopes"`
	ExpireDays int      `json:"expire_days"` // 0 表示永不过期
}

// Create 创建 API 密钥（明文仅返回一次）
func (h *APIKeyHandler) Create(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	userID := middleware.GetUserID(c)

	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	// 检查密钥配额
	var org model.Organization
	model.DB.First(&org, "id = ?", orgID)
	var count int64
	model.DB.Model(&model.APIKey{}).Where("org_id = ? AND revoked = ?", orgID, false).Count(&count)
	if org.MaxAPIKeys > 0 && count >= int64(org.MaxAPIKeys) {
		response.Error(c, 403, fmt.Sprintf("API密钥数量已达上限 (%d)", org.MaxAPIKeys))
		return
	}

	plaintext, prefix := utils.GenerateAPIKey()

	scopes := "[]"
	if len(req.Scopes) > 0 {
		b, _ := json.Marshal(req.Scopes)
		scopes = string(b)
	}

	apiKey := model.APIKey{
		OrgID:     orgID,
		CreatedBy: userID,
		Name:      req.Name,
		Prefix:    prefix,
		KeyHash:   crypto.HashAPIKey(plaintext),
		Scopes:    scopes,
	}
	if req.ExpireDays > 0 {
		expireAt := time.Now().AddDate(0, 0, req.ExpireDays)
		apiKey.ExpireAt = &expireAt
	}

	if err := model.DB.Create(&apiKey).Error; err != nil {
		response.ServerError(c, "创建API密钥失败")
		return
	}

	service.InvalidateStats(orgID)

	response.Success(c, gin.H{
		"id":        apiKey.ID,
		"name":      apiKey.Name,
		"key":       plaintext,
		"prefix":    apiKey.Prefix,
		"expire_at": apiKey.ExpireAt,
	})
}

// List 获取 API 密钥列表（不含哈希）
func (h *APIKeyHandler) List(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var keys []model.APIKey
	model.DB.Where("org_id = ?", orgID).Order("created_at DESC").Find(&keys)

	response.Success(c, keys)
}

// Revoke 吊销 API 密钥
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	id := c.Param("id")

	var apiKey model.APIKey
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&apiKey).Error; err != nil {
		response.NotFound(c, "API密钥不存在")
		return
	}

	if apiKey.Revoked {
		response.Error(c, 400, "API密钥已被吊销")
		return
	}

	model.DB.Model(&apiKey).Update("revoked", true)
	service.InvalidateStats(orgID)
	response.SuccessWithMessage(c, "API密钥已吊销", nil)
}
