package handler

import (
	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct{}

func NewOrganizationHandler() *OrganizationHandler {
	return &OrganizationHandler{}
}

// Get 获取组织详情
func (h *OrganizationHandler) Get(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var org model.Organization
	if err := model.DB.First(&org, "id = ?", orgID).Error; err != nil {
		response.NotFound(c, "组织不存在")
		return
	}

	var memberCount int64
	model.DB.Model(&model.User{}).Where("org_id = ?", orgID).Count(&memberCount)

	response.Success(c, gin.H{
		"id":             org.ID,
		"name":           org.Name,
		"slug":           org.Slug,
		"logo":           org.Logo,
		"email":          org.Email,
		"website":        org.Website,
		"status":         org.Status,
		"plan":           org.Plan,
		"max_dashboards": org.MaxDashboards,
		"max_members":    org.MaxMembers,
		"max_webhooks":   org.MaxWebhooks,
		"max_api_keys":   org.MaxAPIKeys,
		"member_count":   memberCount,
		"created_at":     org.CreatedAt,
	})
}

// UpdateOrganizationRequest 更新组织请求
type UpdateOrganizationRequest struct {
	Name    string `json:"name"`
	Logo    string `json:"logo"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// Update 更新组织信息
func (h *OrganizationHandler) Update(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var req UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var org model.Organization
	if err := model.DB.First(&org, "id = ?", orgID).Error; err != nil {
		response.NotFound(c, "组织不存在")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Logo != "" {
		updates["logo"] = req.Logo
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Website != "" {
		updates["website"] = req.Website
	}

	if len(updates) > 0 {
		if err := model.DB.Model(&org).Updates(updates).Error; err != nil {
			response.ServerError(c, "更新组织失败")
			return
		}
	}

	response.SuccessWithMessage(c, "组织更新成功", nil)
}

// Delete 删除组织（仅 Owner，软删除后挂起所有成员）
func (h *OrganizationHandler) Delete(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var org model.Organization
	if err := model.DB.First(&org, "id = ?", orgID).Error; err != nil {
		response.NotFound(c, "组织不存在")
		return
	}

	tx := model.DB.Begin()

	if err := tx.Model(&org).Update("status", model.OrgStatusDeleted).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "删除组织失败")
		return
	}

	// 禁用所有成员并吊销会话
	tx.Model(&model.User{}).Where("org_id = ?", orgID).Update("status", model.UserStatusDisabled)
	tx.Model(&model.Session{}).
		Where("user_id IN (?)", tx.Model(&model.User{}).Select("id").Where("org_id = ?", orgID)).
		Update("revoked", true)

	tx.Commit()

	response.SuccessWithMessage(c, "组织已删除", nil)
}

// GetSettings 获取组织设置
func (h *OrganizationHandler) GetSettings(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var settings []model.Setting
	model.DB.Where("org_id = ?", orgID).Find(&settings)

	result := make(map[string]string, len(settings))
	for _, s := range settings {
		result[s.Key] = s.Value
	}

	response.Success(c, result)
}

// PutSettingRequest 写入组织设置请求
type PutSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// PutSetting 写入组织设置（存在则更新）
func (h *OrganizationHandler) PutSetting(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var req PutSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var setting model.Setting
	err := model.DB.Where("org_id = ? AND `key` = ?", orgID, req.Key).First(&setting).Error
	if err != nil {
		setting = model.Setting{
			OrgID: orgID,
			Key:   req.Key,
			Value: req.Value,
		}
		if err := model.DB.Create(&setting).Error; err != nil {
			response.ServerError(c, "保存设置失败")
			return
		}
	} else {
		if err := model.DB.Model(&setting).Update("value", req.Value).Error; err != nil {
			response.ServerError(c, "保存设置失败")
			return
		}
	}

	response.SuccessWithMessage(c, "设置已保存", nil)
}
