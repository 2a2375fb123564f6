package handler

import (
	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/response"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
)

type WidgetHandler struct {
	webhookService *service.WebhookService
}

func NewWidgetHandler() *WidgetHandler {
	return &WidgetHandler{
		webhookService: service.NewWebhookService(),
	}
}

// getParentDashboard 查找组件所属的仪表盘并校验归属
func (h *WidgetHandler) getParentDashboard(c *gin.Context) (*model.Dashboard, bool) {
	orgID := middleware.GetOrgID(c)
	userID := middleware.GetUserID(c)
	dashboardID := c.Param("id")

	var dashboard model.Dashboard
	if err := model.DB.Where("id = ? AND org_id = ?", dashboardID, orgID).First(&dashboard).Error; err != nil {
		response.NotFound(c, "仪表盘不存在")
		return nil, false
	}
	if dashboard.Visibility == model.DashboardVisibilityPrivate && dashboard.OwnerID != userID {
		response.NotFound(c, "仪表盘不存在")
		return nil, false
	}
	return &dashboard, true
}

// CreateWidgetRequest 创建组件请求
type CreateWidgetRequest struct {
	Type   string `json:"type" binding:"required"`
	Title  string `json:"title" binding:"required"`
	PosX   int    `json:"pos_x"`
	PosY   int    `json:"pos_y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Config string `json:"config"`
	Query  string `json:"query"`
}

// Create 在仪表盘上创建组件
func (h *WidgetHandler) Create(c *gin.Context) {
	dashboard, ok := h.getParentDashboard(c)
	if !ok {
		return
	}

	var req CreateWidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if !model.IsValidWidgetType(model.WidgetType(req.Type)) {
		response.BadRequest(c, "无效的组件类型")
		return
	}

	width := req.Width
	if width <= 0 {
		width = 4
	}
	height := req.Height
	if height <= 0 {
		height = 3
	}

	widget := model.Widget{
		DashboardID: dashboard.ID,
		Type:        model.WidgetType(req.Type),
		Title:       req.Title,
		PosX:        req.PosX,
		PosY:        req.PosY,
		Width:       width,
		Height:      height,
		Config:      req.Config,
		Query:       req.Query,
	}
	if err := model.DB.Create(&widget).Error; err != nil {
		response.ServerError(c, "创建组件失败")
		return
	}

	h.webhookService.TriggerWidgetEvent(model.EventWidgetCreated, dashboard.OrgID, &widget)
	service.InvalidateStats(dashboard.OrgID)

	response.Success(c, widget)
}

// List 获取仪表盘的组件列表
func (h *WidgetHandler) List(c *gin.Context) {
	dashboard, ok := h.getParentDashboard(c)
	if !ok {
		return
	}

	var widgets []model.Widget
	model.DB.Where("dashboard_id = ?", dashboard.ID).Order("pos_y ASC, pos_x ASC").Find(&widgets)

	response.Success(c, widgets)
}

// UpdateWidgetRequest 更新组件请求
type UpdateWidgetRequest struct {
	Title  string `json:"title"`
	PosX   *int   `json:"pos_x"`
	PosY   *int   `json:"pos_y"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
	Config string `json:"config"`
	Query  string `json:"query"`
}

// Update 更新组件
func (h *WidgetHandler) Update(c *gin.Context) {
	dashboard, ok := h.getParentDashboard(c)
	if !ok {
		return
	}

	var widget model.Widget
	if err := model.DB.Where("id = ? AND dashboard_id = ?", c.Param("widget_id"), dashboard.ID).First(&widget).Error; err != nil {
		response.NotFound(c, "组件不存在")
		return
	}

	var req UpdateWidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.PosX != nil {
		updates["pos_x"] = *req.PosX
	}
	if req.PosY != nil {
		updates["pos_y"] = *req.PosY
	}
	if req.Width != nil && *req.Width > 0 {
		updates["width"] = *req.Width
	}
	if req.Height != nil && *req.Height > 0 {
		updates["height"] = *req.Height
	}
	if req.Config != "" {
		updates["config"] = req.Config
	}
	if req.Query != "" {
		updates["query"] = req.Query
	}

	if len(updates) > 0 {
		if err := model.DB.Model(&widget).Updates(updates).Error; err != nil {
			response.ServerError(c, "更新组件失败")
			return
		}
	}

	h.webhookService.TriggerWidgetEvent(model.EventWidgetUpdated, dashboard.OrgID, &widget)

	response.SuccessWithMessage(c, "组件更新成功", nil)
}

// Delete 删除组件
func (h *WidgetHandler) Delete(c *gin.Context) {
	dashboard, ok := h.getParentDashboard(c)
	if !ok {
		return
	}

	var widget model.Widget
	if err := model.DB.Where("id = ? AND dashboard_id = ?", c.Param("widget_id"), dashboard.ID).First(&widget).Error; err != nil {
		response.NotFound(c, "组件不存在")
		return
	}

	if err := model.DB.Delete(&widget).Error; err != nil {
		response.ServerError(c, "删除组件失败")
		return
	}

	h.webhookService.TriggerWidgetEvent(model.EventWidgetDeleted, dashboard.OrgID, &widget)
	service.InvalidateStats(dashboard.OrgID)

	response.SuccessWithMessage(c, "组件已删除", nil)
}
