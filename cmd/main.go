package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"insighthub/internal/config"
	"insighthub/internal/handler"
	"insighthub/internal/model"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	migrate := flag.Bool("migrate", false, "是否执行数据库迁移")
	initDemo := flag.Bool("init-demo", false, "初始化演示组织和账号")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	if err := model.InitDB(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	log.Println("数据库连接成功")

	// 自动执行数据库迁移（确保表结构是最新的）
	log.Println("检查数据库表结构...")
	if err := model.AutoMigrate(); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 数据库迁移（仅迁移模式）
	if *migrate {
		log.Println("数据库迁移完成")
		os.Exit(0)
	}

	// 初始化演示组织
	if *initDemo {
		initDemoOrg()
		os.Exit(0)
	}

	// 初始化 Redis（可选，连接失败仅降级不退出）
	if err := service.InitRedis(&cfg.Redis); err != nil {
		log.Printf("Redis 连接失败，统计缓存已禁用: %v", err)
	} else if cfg.Redis.Enabled {
		log.Println("Redis 连接成功")
	}
	defer service.CloseRedis()

	// 创建报告存储目录
	os.MkdirAll(cfg.Storage.ReportsDir, 0755)

	// 启动定时任务
	scheduler := service.NewSchedulerService()
	if err := scheduler.Start(); err != nil {
		log.Fatalf("启动定时任务失败: %v", err)
	}
	defer scheduler.Stop()

	// 创建 Gin 引擎
	r := gin.New()

	// 设置路由
	handler.SetupRouter(r)

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("服务器启动在 http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
}

// initDemoOrg 创建演示组织和 Owner 账号
func initDemoOrg() {
	log.Println("初始化演示组织...")

	demoEmail := "demo@example.com"
	demoPassword := "demo123"

	var existing model.User
	if err := model.DB.Where("email = ?", demoEmail).First(&existing).Error; err == nil {
		log.Println("演示账号已存在")
		return
	}

	tx := model.DB.Begin()

	org := model.Organization{
		Name:   "演示组织",
		Slug:   "demo",
		Email:  demoEmail,
		Status: model.OrgStatusActive,
		Plan:   model.OrgPlanPro,
	}
	if err := tx.Create(&org).Error; err != nil {
		tx.Rollback()
		log.Fatalf("创建演示组织失败: %v", err)
	}

	owner := model.User{
		OrgID:  org.ID,
		Email:  demoEmail,
		Name:   "演示账号",
		Role:   model.RoleOwner,
		Status: model.UserStatusActive,
	}
	if err := owner.SetPassword(demoPassword); err != nil {
		tx.Rollback()
		log.Fatalf("密码加密失败: %v", err)
	}
	if err := tx.Create(&owner).Error; err != nil {
		tx.Rollback()
		log.Fatalf("创建演示账号失败: %v", err)
	}

	account := model.BillingAccount{
		OrgID:        org.ID,
		Plan:         model.OrgPlanPro,
		BillingEmail: demoEmail,
	}
	if err := tx.Create(&account).Error; err != nil {
		tx.Rollback()
		log.Fatalf("创建计费账户失败: %v", err)
	}

	tx.Commit()

	log.Println("演示组织创建成功!")
	log.Println("邮箱: demo@example.com")
	log.Println("密码: demo123")
	log.Println("")
	log.Println("【重要提示】请登录后立即修改默认密码！")
}
