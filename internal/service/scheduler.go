package service

import (
	"log"
	"time"

	"insighthub/internal/config"
	"insighthub/internal/model"

	"github.com/robfig/cron/v3"
)

// SchedulerService 定时任务服务
type SchedulerService struct {
	cron          *cron.Cron
	reportService *ReportService
}

// NewSchedulerService 创建定时任务服务
func NewSchedulerService() *SchedulerService {
	return &SchedulerService{
		cron:          cron.New(),
		reportService: NewReportService(),
	}
}

// Start 注册并启动定时任务
func (s *SchedulerService) Start() error {
	cfg := config.Get()

	// 每日报告（默认每天 06:00）
	if cfg.Report.Enabled {
		if _, err := s.cron.AddFunc(cfg.Report.CronSpec, s.reportService.RunDaily); err != nil {
			return err
		}
	}

	// 每天凌晨 3 点清理过期数据
	if _, err := s.cron.AddFunc("0 3 * * *", s.CleanupExpiredData); err != nil {
		return err
	}

	// 每小时清理过期邀请
	if _, err := s.cron.AddFunc("@hourly", s.ExpireInvitations); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("定时任务服务已启动")
	return nil
}

// Stop 停止定时任务
func (s *SchedulerService) Stop() {
	s.cron.Stop()
}

// CleanupExpiredData 清理过期数据
func (s *SchedulerService) CleanupExpiredData() {
	log.Println("开始清理过期数据...")

	// 清理 90 天前的 Webhook 投递记录
	ninetyDaysAgo := time.Now().AddDate(0, 0, -90)
	result := model.DB.Where("created_at < ?", ninetyDaysAgo).Delete(&model.WebhookDelivery{})
	log.Printf("清理 Webhook 投递记录: %d 条", result.RowsAffected)

	// 清理已过期的会话
	result = model.DB.Where("expire_at < ?", time.Now()).Delete(&model.Session{})
	log.Printf("清理过期会话: %d 条", result.RowsAffected)

	// 清理 30 天前的已读通知
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	result = model.DB.Where("is_read = ? AND created_at < ?", true, thirtyDaysAgo).Delete(&model.Notification{})
	log.Printf("清理已读通知: %d 条", result.RowsAffected)

	log.Println("过期数据清理完成")
}

// ExpireInvitations 将过期的待接受邀请标记为已过期
func (s *SchedulerService) ExpireInvitations() {
	result := model.DB.Model(&model.Invitation{}).
		Where("status = ? AND expire_at < ?", model.InviteStatusPending, time.Now()).
		Update("status", model.InviteStatusExpired)
	if result.RowsAffected > 0 {
		log.Printf("标记过期邀请: %d 条", result.RowsAffected)
	}
}
