package handler

import (
	"os"
	"path/filepath"
	"time"

	"insighthub/internal/config"
	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/response"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler() *ReportHandler {
	return &ReportHandler{
		reportService: service.NewReportService(),
	}
}

// List 获取报告生成记录
func (h *ReportHandler) List(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	page, pageSize := response.GetPageParams(c)
	query := model.DB.Model(&model.ReportRun{}).Where("org_id = ?", orgID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var runs []model.ReportRun
	query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&runs)

	response.SuccessPage(c, runs, total, page, pageSize)
}

// Download 下载报告文件
func (h *ReportHandler) Download(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	id := c.Param("id")

	var run model.ReportRun
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&run).Error; err != nil {
		response.NotFound(c, "报告不存在")
		return
	}

	if run.FilePath == "" {
		response.NotFound(c, "报告文件不存在")
		return
	}

	// 防止路径穿越，只允许下载报告目录内的文件
	cfg := config.Get()
	reportsDir, err := filepath.Abs(cfg.Storage.ReportsDir)
	if err != nil {
		response.ServerError(c, "读取报告文件失败")
		return
	}
	target, err := filepath.Abs(run.FilePath)
	if err != nil || filepath.Dir(target) != reportsDir {
		response.NotFound(c, "报告文件不存在")
		return
	}

	if _, err := os.Stat(target); err != nil {
		response.NotFound(c, "报告文件已被清理")
		return
	}

	c.FileAttachment(target, filepath.Base(target))
}

// Generate 手动触发生成当日报告
func (h *ReportHandler) Generate(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var org model.Organization
	if err := model.DB.First(&org, "id = ?", orgID).Error; err != nil {
		response.NotFound(c, "组织不存在")
		return
	}

	run, err := h.reportService.GenerateForOrg(&org, time.Now())
	if err != nil {
		response.ServerError(c, "生成报告失败: "+err.Error())
		return
	}

	response.Success(c, run)
}
