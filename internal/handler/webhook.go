package handler

import (
	"fmt"

	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/response"
	"insighthub/internal/pkg/utils"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	webhookService *service.WebhookService
}

func NewWebhookHandler() *WebhookHandler {
	return &WebhookHandler{
		webhookService: service.NewWebhookService(),
	}
}

// CreateWebhookRequest 创建 Webhook 请求
type CreateWebhookRequest struct {
	URL    string   `json:"url" binding:"required,url"`
	Events []string `json:"events" binding:"required"`
}

// Create 创建 Webhook
func (h *WebhookHandler) Create(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var req CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := model.ValidateEvents(req.Events); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// 检查 Webhook 配额
	var org model.Organization
	model.DB.First(&org, "id = ?", orgID)
	var count int64
	model.DB.Model(&model.Webhook{}).Where("org_id = ?", orgID).Count(&count)
	if org.MaxWebhooks > 0 && count >= int64(org.MaxWebhooks) {
		response.Error(c, 403, fmt.Sprintf("Webhook 数量已达上限 (%d)，请升级套餐", org.MaxWebhooks))
		return
	}

	webhook := model.Webhook{
		OrgID:  orgID,
		URL:    req.URL,
		Secret: utils.GenerateWebhookSecret(),
		Status: model.WebhookStatusActive,
	}
	webhook.SetEvents(req.Events)

	if err := model.DB.Create(&webhook).Error; err != nil {
		response.ServerError(c, "创建Webhook失败")
		return
	}

	service.InvalidateStats(orgID)

	// 密钥仅在创建时返回一次
	response.Success(c, gin.H{
		"id":     webhook.ID,
		"url":    webhook.URL,
		"secret": webhook.Secret,
		"events": webhook.GetEvents(),
		"status": webhook.Status,
	})
}

// List 获取 Webhook 列表
func (h *WebhookHandler) List(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	page, pageSize := response.GetPageParams(c)
	query := model.DB.Model(&model.Webhook{}).Where("org_id = ?", orgID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var webhooks []model.Webhook
	query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&webhooks)

	response.SuccessPage(c, webhooks, total, page, pageSize)
}

// getWebhook 查找组织内的 Webhook
func (h *WebhookHandler) getWebhook(c *gin.Context) (*model.Webhook, bool) {
	orgID := middleware.GetOrgID(c)
	id := c.Param("id")

	var webhook model.Webhook
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&webhook).Error; err != nil {
		response.NotFound(c, "Webhook不存在")
		return nil, false
	}
	return &webhook, true
}

// Get 获取 Webhook 详情
func (h *WebhookHandler) Get(c *gin.Context) {
	webhook, ok := h.getWebhook(c)
	if !ok {
		return
	}
	response.Success(c, webhook)
}

// UpdateWebhookRequest 更新 Webhook 请求
type UpdateWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

// Update 更新 Webhook
func (h *WebhookHandler) Update(c *gin.Context) {
	webhook, ok := h.getWebhook(c)
	if !ok {
		return
	}

	var req UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.URL != "" {
		updates["url"] = req.URL
	}
	if len(req.Events) > 0 {
		if err := model.ValidateEvents(req.Events); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		tmp := model.Webhook{}
		tmp.SetEvents(req.Events)
		updates["events"] = tmp.Events
	}

	if len(updates) > 0 {
		if err := model.DB.Model(webhook).Updates(updates).Error; err != nil {
			response.ServerError(c, "更新Webhook失败")
			return
		}
	}

	response.SuccessWithMessage(c, "Webhook更新成功", nil)
}

// Delete 删除 Webhook（级联删除投递记录）
func (h *WebhookHandler) Delete(c *gin.Context) {
	webhook, ok := h.getWebhook(c)
	if !ok {
		return
	}

	tx := model.DB.Begin()
	tx.Where("webhook_id = ?", webhook.ID).Delete(&model.WebhookDelivery{})
	if err := tx.Delete(webhook).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "删除Webhook失败")
		return
	}
	tx.Commit()

	service.InvalidateStats(webhook.OrgID)
	response.SuccessWithMessage(c, "Webhook已删除", nil)
}

// Pause 暂停 Webhook
func (h *WebhookHandler) Pause(c *gin.Context) {
	webhook, ok := h.getWebhook(c)
	if !ok {
		return
	}

	model.DB.Model(webhook).Update("status", model.WebhookStatusPaused)
	response.SuccessWithMessage(c, "Webhook已暂停", nil)
}

// Resume 恢复 Webhook（清零失败计数）
func (h *WebhookHandler) Resume(c *gin.Context) {
	webhook, ok := h.getWebhook(c)
	if !ok {
		return
	}

	model.DB.Model(webhook).Updates(map[string]interface{}{
		"status":        model.WebhookStatusActive,
		"failure_count": 0,
		"last_error":    "",
	})
	response.SuccessWithMessage(c, "Webhook已恢复", nil)
}

// Test 发送测试事件（同步投递并返回结果）
func (h *WebhookHandler) Test(c *gin.Context) {
	webhook, ok := h.getWebhook(c)
	if !ok {
		return
	}

	delivery := h.webhookService.SendTest(*webhook)

	response.Success(c, gin.H{
		"success":         delivery.Success,
		"response_status": delivery.ResponseStatus,
		"response_body":   delivery.ResponseBody,
		"duration_ms":     delivery.Duration,
	})
}

// ListDeliveries 获取 Webhook 投递记录
func (h *WebhookHandler) ListDeliveries(c *gin.Context) {
	webhook, ok := h.getWebhook(c)
	if !ok {
		return
	}

	page, pageSize := response.GetPageParams(c)
	query := model.DB.Model(&model.WebhookDelivery{}).Where("webhook_id = ?", webhook.ID)

	if success := c.Query("success"); success == "true" {
		query = query.Where("success = ?", true)
	} else if success == "false" {
		query = query.Where("success = ?", false)
	}

	var total int64
	query.Count(&total)

	var deliveries []model.WebhookDelivery
	query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&deliveries)

	response.SuccessPage(c, deliveries, total, page, pageSize)
}
