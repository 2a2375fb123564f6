package handler

import (
	"time"

	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/response"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct{}

func NewStatisticsHandler() *StatisticsHandler {
	return &StatisticsHandler{}
}

// GetOverview 获取组织统计概览（Redis 缓存 5 分钟）
func (h *StatisticsHandler) GetOverview(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	// 先查缓存
	var cached map[string]interface{}
	if service.GetCachedStats(orgID, &cached) {
		response.Success(c, cached)
		return
	}

	var dashboards, widgets, members, webhooks, comments, apiKeys int64
	model.DB.Model(&model.Dashboard{}).Where("org_id = ?", orgID).Count(&dashboards)
	model.DB.Model(&model.Widget{}).
		Joins("JOIN dashboards ON dashboards.id = widgets.dashboard_id").
		Where("dashboards.org_id = ? AND dashboards.deleted_at IS NULL", orgID).Count(&widgets)
	model.DB.Model(&model.User{}).Where("org_id = ?", orgID).Count(&members)
	model.DB.Model(&model.Webhook{}).Where("org_id = ?", orgID).Count(&webhooks)
	model.DB.Model(&model.Comment{}).
		Joins("JOIN dashboards ON dashboards.id = comments.dashboard_id").
		Where("dashboards.org_id = ? AND dashboards.deleted_at IS NULL", orgID).Count(&comments)
	model.DB.Model(&model.APIKey{}).Where("org_id = ? AND revoked = ?", orgID, false).Count(&apiKeys)

	// 最近7天活动
	since := time.Now().AddDate(0, 0, -7)
	var recentActivity int64
	model.DB.Model(&model.AuditLog{}).
		Where("org_id = ? AND created_at >= ?", orgID, since).Count(&recentActivity)

	var lastReport model.ReportRun
	var lastReportDate string
	if err := model.DB.Where("org_id = ? AND status = ?", orgID, model.ReportRunStatusSuccess).
		Order("created_at DESC").First(&lastReport).Error; err == nil {
		lastReportDate = lastReport.ReportDate
	}

	stats := gin.H{
		"dashboards":       dashboards,
		"widgets":          widgets,
		"members":          members,
		"webhooks":         webhooks,
		"comments":         comments,
		"api_keys":         apiKeys,
		"recent_activity":  recentActivity,
		"last_report_date": lastReportDate,
		"generated_at":     time.Now(),
	}

	service.SetCachedStats(orgID, stats)

	response.Success(c, stats)
}
