package handler

import (
	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct{}

func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

// List 获取通知列表
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	page, pageSize := response.GetPageParams(c)
	query := model.DB.Model(&model.Notification{}).Where("user_id = ?", userID)

	if unread := c.Query("unread"); unread == "true" {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	query.Count(&total)

	var notifications []model.Notification
	query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&notifications)

	response.SuccessPage(c, notifications, total, page, pageSize)
}

// UnreadCount 获取未读通知数量
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var count int64
	model.DB.Model(&model.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&count)

	response.Success(c, gin.H{"count": count})
}

// MarkRead 标记单条通知已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	var notification model.Notification
	if err := model.DB.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error; err != nil {
		response.NotFound(c, "通知不存在")
		return
	}

	model.DB.Model(&notification).Update("is_read", true)
	response.SuccessWithMessage(c, "已标记为已读", nil)
}

// MarkAllRead 标记全部通知已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := middleware.GetUserID(c)

	model.DB.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Update("is_read", true)

	response.SuccessWithMessage(c, "全部通知已标记为已读", nil)
}
