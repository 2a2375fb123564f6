package model

import (
	"insighthub/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB 初始化数据库连接
func InitDB(cfg *config.DatabaseConfig) error {
	var logLevel logger.LogLevel
	if config.Get().Server.Mode == "debug" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Silent
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true, // 禁用外键约束检查
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	DB = db
	return nil
}

// AutoMigrate 自动迁移数据库表
func AutoMigrate() error {
	return DB.AutoMigrate(
		// 多租户核心模型
		&Organization{},
		&User{},
		&Invitation{},
		&Session{},
		&APIKey{},
		// 仪表盘
		&Dashboard{},
		&Widget{},
		&Comment{},
		// Webhook
		&Webhook{},
		&WebhookDelivery{},
		// 通知与日志
		&Notification{},
		&AuditLog{},
		&Setting{},
		// 计费
		&BillingAccount{},
		&Invoice{},
		&PaymentRecord{},
		// 报告
		&ReportRun{},
	)
}
