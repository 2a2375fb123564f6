package handler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"insighthub/internal/model"
	"insighthub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	auditHandler *AuditHandler
}

func NewExportHandler() *ExportHandler {
	return &ExportHandler{
		auditHandler: NewAuditHandler(),
	}
}

// ExportAuditLogs 导出审计日志（CSV 或 JSON，最多 10000 条）
func (h *ExportHandler) ExportAuditLogs(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "json" {
		response.BadRequest(c, "不支持的导出格式，仅支持 csv 和 json")
		return
	}

	query := h.auditHandler.buildQuery(c)

	var logs []model.AuditLog
	query.Order("created_at DESC").Limit(10000).Find(&logs)

	filename := fmt.Sprintf("audit_logs_%s.%s", time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if format == "json" {
		c.Header("Content-Type", "application/json; charset=utf-8")
		data, err := json.Marshal(logs)
		if err != nil {
			response.ServerError(c, "导出失败")
			return
		}
		c.Writer.Write(data)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	// 写入 BOM，避免 Excel 打开中文乱码
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"时间", "操作人", "操作", "资源", "资源ID", "描述", "IP地址", "响应码"})
	for _, entry := range logs {
		w.Write([]string{
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.UserEmail,
			entry.Action,
			entry.Resource,
			entry.ResourceID,
			entry.Description,
			entry.IPAddress,
			fmt.Sprintf("%d", entry.ResponseCode),
		})
	}
	w.Flush()
}
