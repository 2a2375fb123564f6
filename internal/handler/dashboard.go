package handler

import (
	"fmt"

	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/response"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	webhookService *service.WebhookService
}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{
		webhookService: service.NewWebhookService(),
	}
}

// CreateDashboardRequest 创建仪表盘请求
type CreateDashboardRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Layout      string `json:"layout"`
	Visibility  string `json:"visibility"`
}

// Create 创建仪表盘
func (h *DashboardHandler) Create(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	userID := middleware.GetUserID(c)

	var req CreateDashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	// 检查仪表盘配额
	var org model.Organization
	model.DB.First(&org, "id = ?", orgID)
	var count int64
	model.DB.Model(&model.Dashboard{}).Where("org_id = ?", orgID).Count(&count)
	if org.MaxDashboards > 0 && count >= int64(org.MaxDashboards) {
		response.Error(c, 403, fmt.Sprintf("仪表盘数量已达上限 (%d)，请升级套餐", org.MaxDashboards))
		return
	}

	visibility := model.DashboardVisibilityTeam
	if req.Visibility != "" {
		if req.Visibility != string(model.DashboardVisibilityPrivate) && req.Visibility != string(model.DashboardVisibilityTeam) {
			response.BadRequest(c, "无效的可见性")
			return
		}
		visibility = model.DashboardVisibility(req.Visibility)
	}

	dashboard := model.Dashboard{
		OrgID:       orgID,
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Layout:      req.Layout,
		Visibility:  visibility,
	}
	if err := model.DB.Create(&dashboard).Error; err != nil {
		response.ServerError(c, "创建仪表盘失败")
		return
	}

	h.webhookService.TriggerDashboardEvent(model.EventDashboardCreated, &dashboard)
	service.InvalidateStats(orgID)

	response.Success(c, dashboard)
}

// List 获取仪表盘列表
func (h *DashboardHandler) List(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	userID := middleware.GetUserID(c)

	page, pageSize := response.GetPageParams(c)
	// 私有仪表盘仅对所有者可见
	query := model.DB.Model(&model.Dashboard{}).
		Where("org_id = ?", orgID).
		Where("visibility = ? OR owner_id = ?", model.DashboardVisibilityTeam, userID)

	if keyword := c.Query("keyword"); keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}
	if starred := c.Query("starred"); starred == "true" {
		query = query.Where("starred = ?", true)
	}

	var total int64
	query.Count(&total)

	var dashboards []model.Dashboard
	query.Order("starred DESC, updated_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&dashboards)

	response.SuccessPage(c, dashboards, total, page, pageSize)
}

// getDashboard 查找组织内对当前用户可见的仪表盘
func (h *DashboardHandler) getDashboard(c *gin.Context) (*model.Dashboard, bool) {
	orgID := middleware.GetOrgID(c)
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	var dashboard model.Dashboard
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&dashboard).Error; err != nil {
		response.NotFound(c, "仪表盘不存在")
		return nil, false
	}
	if dashboard.Visibility == model.DashboardVisibilityPrivate && dashboard.OwnerID != userID {
		response.NotFound(c, "仪表盘不存在")
		return nil, false
	}
	return &dashboard, true
}

// Get 获取仪表盘详情（含组件）
func (h *DashboardHandler) Get(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	var dashboard model.Dashboard
	if err := model.DB.Preload("Widgets").Where("id = ? AND org_id = ?", id, orgID).First(&dashboard).Error; err != nil {
		response.NotFound(c, "仪表盘不存在")
		return
	}
	if dashboard.Visibility == model.DashboardVisibilityPrivate && dashboard.OwnerID != userID {
		response.NotFound(c, "仪表盘不存在")
		return
	}

	response.Success(c, dashboard)
}

// UpdateDashboardRequest 更新仪表盘请求
type UpdateDashboardRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Layout      string  `json:"layout"`
	Visibility  string  `json:"visibility"`
}

// Update 更新仪表盘
func (h *DashboardHandler) Update(c *gin.Context) {
	dashboard, ok := h.getDashboard(c)
	if !ok {
		return
	}

	var req UpdateDashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Layout != "" {
		updates["layout"] = req.Layout
	}
	if req.Visibility != "" {
		if req.Visibility != string(model.DashboardVisibilityPrivate) && req.Visibility != string(model.DashboardVisibilityTeam) {
			response.BadRequest(c, "无效的可见性")
			return
		}
		updates["visibility"] = req.Visibility
	}

	if len(updates) > 0 {
		if err := model.DB.Model(dashboard).Updates(updates).Error; err != nil {
			response.ServerError(c, "更新仪表盘失败")
			return
		}
	}

	h.webhookService.TriggerDashboardEvent(model.EventDashboardUpdated, dashboard)

	response.SuccessWithMessage(c, "仪表盘更新成功", nil)
}

// Delete 删除仪表盘（级联删除组件和评论）
func (h *DashboardHandler) Delete(c *gin.Context) {
	dashboard, ok := h.getDashboard(c)
	if !ok {
		return
	}

	tx := model.DB.Begin()
	tx.Where("dashboard_id = ?", dashboard.ID).Delete(&model.Widget{})
	tx.Where("dashboard_id = ?", dashboard.ID).Delete(&model.Comment{})
	if err := tx.Delete(dashboard).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "删除仪表盘失败")
		return
	}
	tx.Commit()

	h.webhookService.TriggerDashboardEvent(model.EventDashboardDeleted, dashboard)
	service.InvalidateStats(dashboard.OrgID)

	response.SuccessWithMessage(c, "仪表盘已删除", nil)
}

// Star 收藏/取消收藏仪表盘
func (h *DashboardHandler) Star(c *gin.Context) {
	dashboard, ok := h.getDashboard(c)
	if !ok {
		return
	}

	if err := model.DB.Model(dashboard).Update("starred", !dashboard.Starred).Error; err != nil {
		response.ServerError(c, "操作失败")
		return
	}

	response.Success(c, gin.H{"starred": !dashboard.Starred})
}

// Duplicate 复制仪表盘（含组件）
func (h *DashboardHandler) Duplicate(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	userID := middleware.GetUserID(c)

	dashboard, ok := h.getDashboard(c)
	if !ok {
		return
	}

	// 检查仪表盘配额
	var org model.Organization
	model.DB.First(&org, "id = ?", orgID)
	var count int64
	model.DB.Model(&model.Dashboard{}).Where("org_id = ?", orgID).Count(&count)
	if org.MaxDashboards > 0 && count >= int64(org.MaxDashboards) {
		response.Error(c, 403, fmt.Sprintf("仪表盘数量已达上限 (%d)，请升级套餐", org.MaxDashboards))
		return
	}

	var widgets []model.Widget
	model.DB.Where("dashboard_id = ?", dashboard.ID).Find(&widgets)

	tx := model.DB.Begin()

	copied := model.Dashboard{
		OrgID:       orgID,
		OwnerID:     userID,
		Name:        dashboard.Name + " (副本)",
		Description: dashboard.Description,
		Layout:      dashboard.Layout,
		Visibility:  model.DashboardVisibilityPrivate,
	}
	if err := tx.Create(&copied).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "复制仪表盘失败")
		return
	}

	for _, w := range widgets {
		nw := model.Widget{
			DashboardID: copied.ID,
			Type:        w.Type,
			Title:       w.Title,
			PosX:        w.PosX,
			PosY:        w.PosY,
			Width:       w.Width,
			Height:      w.Height,
			Config:      w.Config,
			Query:       w.Query,
		}
		if err := tx.Create(&nw).Error; err != nil {
			tx.Rollback()
			response.ServerError(c, "复制组件失败")
			return
		}
	}

	tx.Commit()

	h.webhookService.TriggerDashboardEvent(model.EventDashboardCreated, &copied)
	service.InvalidateStats(orgID)

	response.Success(c, copied)
}
