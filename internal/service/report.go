package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"insighthub/internal/config"
	"insighthub/internal/model"
)

// ReportService 每日报告服务
// 逐个组织串行生成：统计各项资源数量、取最近 24 小时操作记录，
// 写入 JSON 文件并邮件发送给 Owner/Admin
type ReportService struct {
	emailService   *EmailService
	webhookService *WebhookService
}

// NewReportService 创建报告服务
func NewReportService() *ReportService {
	return &ReportService{
		emailService:   NewEmailService(),
		webhookService: NewWebhookService(),
	}
}

// ReportCounts 报告中的资源计数
type ReportCounts struct {
	Dashboards  int64 `json:"dashboards"`
	Widgets     int64 `json:"widgets"`
	Members     int64 `json:"members"`
	Webhooks    int64 `json:"webhooks"`
	Comments    int64 `json:"comments"`
	APIKeys     int64 `json:"api_keys"`
	AuditEvents int64 `json:"audit_events"`
}

// ReportAuditEntry 报告中的操作记录条目
type ReportAuditEntry struct {
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyReport 每日报告内容（序列化为不含换行的 JSON 文件）
type DailyReport struct {
	OrgID       string             `json:"org_id"`
	OrgName     string             `json:"org_name"`
	ReportDate  string             `json:"report_date"`
	GeneratedAt time.Time          `json:"generated_at"`
	WindowStart time.Time          `json:"window_start"`
	WindowEnd   time.Time          `json:"window_end"`
	Counts      ReportCounts       `json:"counts"`
	AuditLog    []ReportAuditEntry `json:"audit_log"`
}

// RunDaily 为所有活跃组织生成当日报告
// 单个组织出错只记录日志并继续，循环结束后清理过期报告文件
func (s *ReportService) RunDaily() {
	log.Println("开始生成每日报告...")

	var orgs []model.Organization
	if err := model.DB.Where("status = ?", model.OrgStatusActive).Find(&orgs).Error; err != nil {
		log.Printf("查询组织列表失败: %v", err)
		return
	}

	now := time.Now()
	succeeded := 0
	for _, org := range orgs {
		if _, err := s.GenerateForOrg(&org, now); err != nil {
			log.Printf("生成报告失败: org=%s, err=%v", org.ID, err)
			continue
		}
		succeeded++
	}

	s.CleanupOldReports(now)

	log.Printf("每日报告生成完成: %d/%d", succeeded, len(orgs))
}

// GenerateForOrg 为单个组织生成当日报告
func (s *ReportService) GenerateForOrg(org *model.Organization, now time.Time) (*model.ReportRun, error) {
	cfg := config.Get()

	report := DailyReport{
		OrgID:       org.ID,
		OrgName:     org.Name,
		ReportDate:  now.Format("2006-01-02"),
		GeneratedAt: now,
		WindowEnd:   now,
		WindowStart: now.Add(-time.Duration(cfg.Report.AuditWindowHour) * time.Hour),
	}

	// 逐项统计，单个查询失败记录日志后继续
	if err := model.DB.Model(&model.Dashboard{}).Where("org_id = ?", org.ID).Count(&report.Counts.Dashboards).Error; err != nil {
		log.Printf("统计仪表盘失败: org=%s, err=%v", org.ID, err)
	}
	if err := model.DB.Model(&model.Widget{}).
		Joins("JOIN dashboards ON widgets.dashboard_id = dashboards.id").
		Where("dashboards.org_id = ?", org.ID).Count(&report.Counts.Widgets).Error; err != nil {
		log.Printf("统计组件失败: org=%s, err=%v", org.ID, err)
	}
	if err := model.DB.Model(&model.User{}).Where("org_id = ?", org.ID).Count(&report.Counts.Members).Error; err != nil {
		log.Printf("统计成员失败: org=%s, err=%v", org.ID, err)
	}
	if err := model.DB.Model(&model.Webhook{}).Where("org_id = ?", org.ID).Count(&report.Counts.Webhooks).Error; err != nil {
		log.Printf("统计 Webhook 失败: org=%s, err=%v", org.ID, err)
	}
	if err := model.DB.Model(&model.Comment{}).
		Joins("JOIN dashboards ON comments.dashboard_id = dashboards.id").
		Where("dashboards.org_id = ?", org.ID).Count(&report.Counts.Comments).Error; err != nil {
		log.Printf("统计评论失败: org=%s, err=%v", org.ID, err)
	}
	if err := model.DB.Model(&model.APIKey{}).Where("org_id = ? AND revoked = ?", org.ID, false).Count(&report.Counts.APIKeys).Error; err != nil {
		log.Printf("统计 API Key 失败: org=%s, err=%v", org.ID, err)
	}

	// 最近 24 小时操作记录（有界窗口）
	var entries []model.AuditLog
	if err := model.DB.Where("org_id = ? AND created_at >= ? AND created_at < ?",
		org.ID, report.WindowStart, report.WindowEnd).
		Order("created_at ASC").Find(&entries).Error; err != nil {
		log.Printf("查询操作记录失败: org=%s, err=%v", org.ID, err)
	}
	report.Counts.AuditEvents = int64(len(entries))
	for _, e := range entries {
		report.AuditLog = append(report.AuditLog, ReportAuditEntry{
			Action:    e.Action,
			Resource:  e.Resource,
			UserEmail: e.UserEmail,
			CreatedAt: e.CreatedAt,
		})
	}

	// 写入报告文件（单行 JSON）
	filePath, err := s.writeReportFile(&report, now)

	run := model.ReportRun{
		OrgID:      org.ID,
		ReportDate: report.ReportDate,
		FilePath:   filePath,
	}
	summary, _ := json.Marshal(report.Counts)
	run.Summary = string(summary)

	if err != nil {
		run.Status = model.ReportRunStatusFailed
		run.Error = err.Error()
		model.DB.Create(&run)
		return &run, err
	}

	// 邮件发送给 Owner 和 Admin
	run.EmailedTo = s.emailReport(org, &report)
	run.Status = model.ReportRunStatusSuccess
	model.DB.Create(&run)

	// 触发 Webhook
	s.webhookService.TriggerReportGenerated(org.ID, report.ReportDate, filePath)

	return &run, nil
}

// writeReportFile 序列化并写入报告文件
// 文件名格式: <组织ID>_<ISO日期>.json
func (s *ReportService) writeReportFile(report *DailyReport, now time.Time) (string, error) {
	dir := config.Get().Storage.ReportsDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	// json.Marshal 输出不含换行
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("序列化报告失败: %w", err)
	}

	filePath := filepath.Join(dir, model.ReportFileName(report.OrgID, now))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("写入报告文件失败: %w", err)
	}

	return filePath, nil
}

// emailReport 发送报告邮件给组织的 Owner 和 Admin，返回成功发送数
func (s *ReportService) emailReport(org *model.Organization, report *DailyReport) int {
	if !config.Get().Email.Enabled {
		return 0
	}

	var recipients []model.User
	if err := model.DB.Where("org_id = ? AND role IN ? AND status = ?",
		org.ID, []model.UserRole{model.RoleOwner, model.RoleAdmin}, model.UserStatusActive).
		Find(&recipients).Error; err != nil {
		log.Printf("查询报告收件人失败: org=%s, err=%v", org.ID, err)
		return 0
	}

	data := DailyReportEmailData{
		OrgName:     org.Name,
		ReportDate:  report.ReportDate,
		Dashboards:  report.Counts.Dashboards,
		Widgets:     report.Counts.Widgets,
		Members:     report.Counts.Members,
		Webhooks:    report.Counts.Webhooks,
		Comments:    report.Counts.Comments,
		AuditEvents: report.Counts.AuditEvents,
	}

	sent := 0
	for _, user := range recipients {
		if err := s.emailService.SendDailyReport(user.Email, data); err != nil {
			log.Printf("发送报告邮件失败: %s, err=%v", user.Email, err)
			continue
		}
		sent++
	}
	return sent
}

// CleanupOldReports 删除超过保留期的报告文件
func (s *ReportService) CleanupOldReports(now time.Time) {
	cfg := config.Get()
	dir := cfg.Storage.ReportsDir
	cutoff := now.AddDate(0, 0, -cfg.Report.RetentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("读取报告目录失败: %v", err)
		}
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				log.Printf("删除过期报告失败: %s, err=%v", entry.Name(), err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		log.Printf("清理过期报告文件: %d 个", removed)
	}
}
