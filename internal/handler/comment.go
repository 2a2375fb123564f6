package handler

import (
	"fmt"

	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/response"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	notificationService *service.NotificationService
}

func NewCommentHandler() *CommentHandler {
	return &CommentHandler{
		notificationService: service.NewNotificationService(),
	}
}

// getParentDashboard 查找评论所属的仪表盘并校验归属
func (h *CommentHandler) getParentDashboard(c *gin.Context) (*model.Dashboard, bool) {
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

// List 获取仪表盘的评论列表
func (h *CommentHandler) List(c *gin.Context) {
	dashboard, ok := h.getParentDashboard(c)
	if !ok {
		return
	}

	page, pageSize := response.GetPageParams(c)
	query := model.DB.Model(&model.Comment{}).Where("dashboard_id = ?", dashboard.ID)

	var total int64
	query.Count(&total)

	var comments []model.Comment
	query.Preload("User").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&comments)

	response.SuccessPage(c, comments, total, page, pageSize)
}

// CreateCommentRequest 发表评论请求
type CreateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// Create 发表评论
func (h *CommentHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	dashboard, ok := h.getParentDashboard(c)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	comment := model.Comment{
		DashboardID: dashboard.ID,
		UserID:      userID,
		Body:        req.Body,
	}
	if err := model.DB.Create(&comment).Error; err != nil {
		response.ServerError(c, "发表评论失败")
		return
	}

	service.InvalidateStats(dashboard.OrgID)

	// 通知仪表盘所有者（自己评论自己的不通知）
	if dashboard.OwnerID != userID {
		var commenter model.User
		model.DB.First(&commenter, "id = ?", userID)
		h.notificationService.Notify(dashboard.OwnerID, dashboard.OrgID, model.NotificationTypeComment,
			"新评论", fmt.Sprintf("%s 评论了仪表盘「%s」", commenter.Name, dashboard.Name))
	}

	response.Success(c, comment)
}

// UpdateCommentRequest 编辑评论请求
type UpdateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// Update 编辑评论（仅本人）
func (h *CommentHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)

	dashboard, ok := h.getParentDashboard(c)
	if !ok {
		return
	}

	var comment model.Comment
	if err := model.DB.Where("id = ? AND dashboard_id = ?", c.Param("comment_id"), dashboard.ID).First(&comment).Error; err != nil {
		response.NotFound(c, "评论不存在")
		return
	}

	if comment.UserID != userID {
		response.Forbidden(c, "只能编辑自己的评论")
		return
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	model.DB.Model(&comment).Updates(map[string]interface{}{
		"body":   req.Body,
		"edited": true,
	})

	response.SuccessWithMessage(c, "评论已更新", nil)
}

// Delete 删除评论（本人或管理员）
func (h *CommentHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	role := middleware.GetUserRole(c)

	dashboard, ok := h.getParentDashboard(c)
	if !ok {
		return
	}

	var comment model.Comment
	if err := model.DB.Where("id = ? AND dashboard_id = ?", c.Param("comment_id"), dashboard.ID).First(&comment).Error; err != nil {
		response.NotFound(c, "评论不存在")
		return
	}

	isAdmin := role == string(model.RoleOwner) || role == string(model.RoleAdmin)
	if comment.UserID != userID && !isAdmin {
		response.Forbidden(c, "只能删除自己的评论")
		return
	}

	if err := model.DB.Delete(&comment).Error; err != nil {
		response.ServerError(c, "删除评论失败")
		return
	}

	service.InvalidateStats(dashboard.OrgID)
	response.SuccessWithMessage(c, "评论已删除", nil)
}
