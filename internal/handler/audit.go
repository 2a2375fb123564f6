package handler

import (
	"time"

	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuditHandler struct{}

func NewAuditHandler() *AuditHandler {
	return &AuditHandler{}
}

// buildQuery 按查询参数组装审计日志筛选条件
func (h *AuditHandler) buildQuery(c *gin.Context) *gorm.DB {
	orgID := middleware.GetOrgID(c)
	query := model.DB.Model(&model.AuditLog{}).Where("org_id = ?", orgID)

	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if userEmail := c.Query("user_email"); userEmail != "" {
		query = query.Where("user_email = ?", userEmail)
	}
	// 全文搜索：描述、邮箱、资源ID
	if keyword := c.Query("keyword"); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("description LIKE ? OR user_email LIKE ? OR resource_id LIKE ?", like, like, like)
	}
	// 时间范围
	if startStr := c.Query("start"); startStr != "" {
		if start, err := time.Parse("2006-01-02", startStr); err == nil {
			query = query.Where("created_at >= ?", start)
		}
	}
	if endStr := c.Query("end"); endStr != "" {
		if end, err := time.Parse("2006-01-02", endStr); err == nil {
			query = query.Where("created_at < ?", end.AddDate(0, 0, 1))
		}
	}

	return query
}

// List 搜索审计日志
func (h *AuditHandler) List(c *gin.Context) {
	page, pageSize := response.GetPageParams(c)
	query := h.buildQuery(c)

	var total int64
	query.Count(&total)

	var logs []model.AuditLog
	query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs)

	response.SuccessPage(c, logs, total, page, pageSize)
}

// Get 获取审计日志详情
func (h *AuditHandler) Get(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	id := c.Param("id")

	var entry model.AuditLog
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&entry).Error; err != nil {
		response.NotFound(c, "审计日志不存在")
		return
	}

	response.Success(c, entry)
}

// actionCount 按操作类型的聚合结果
type actionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// GetStats 获取审计日志统计（最近7天）
func (h *AuditHandler) GetStats(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	since := time.Now().AddDate(0, 0, -7)

	var total int64
	model.DB.Model(&model.AuditLog{}).
		Where("org_id = ? AND created_at >= ?", orgID, since).Count(&total)

	var byAction []actionCount
	model.DB.Model(&model.AuditLog{}).
		Select("action, COUNT(*) as count").
		Where("org_id = ? AND created_at >= ?", orgID, since).
		Group("action").Scan(&byAction)

	var activeUsers int64
	model.DB.Model(&model.AuditLog{}).
		Where("org_id = ? AND created_at >= ?", orgID, since).
		Distinct("user_id").Count(&activeUsers)

	response.Success(c, gin.H{
		"total":        total,
		"by_action":    byAction,
		"active_users": activeUsers,
		"since":        since.Format("2006-01-02"),
	})
}
