package handler

import (
	"insighthub/internal/config"
	"insighthub/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(r *gin.Engine) {
	cfg := config.Get()

	// 全局中间件
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(gin.Recovery())

	// 安全响应头
	if cfg.Security.EnableSecurityHeaders {
		r.Use(middleware.SecurityHeadersMiddleware())
	}

	// 速率限制器
	limiter := middleware.NewGeneralLimiter()
	authLimiter := middleware.NewAuthLimiter()
	exportLimiter := middleware.NewExportLimiter()

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API 路由组
	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiter))

	// API 健康检查（供 Docker/K8s 使用）
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "insighthub"})
	})

	// 初始化 Handler
	authHandler := NewAuthHandler()
	orgHandler := NewOrganizationHandler()
	memberHandler := NewMemberHandler()
	dashboardHandler := NewDashboardHandler()
	widgetHandler := NewWidgetHandler()
	commentHandler := NewCommentHandler()
	webhookHandler := NewWebhookHandler()
	apiKeyHandler := NewAPIKeyHandler()
	auditHandler := NewAuditHandler()
	exportHandler := NewExportHandler()
	billingHandler := NewBillingHandler()
	statsHandler := NewStatisticsHandler()
	reportHandler := NewReportHandler()
	notificationHandler := NewNotificationHandler()
	wsHandler := NewWSHandler()

	// ==================== 公开接口 ====================
	// 用户认证（更严格的速率限制）
	auth := api.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(authLimiter))
	{
		auth.POST("/register", authHandler.Register)              // 注册新组织
		auth.POST("/login", authHandler.Login)                    // 成员登录
		auth.POST("/accept-invite", memberHandler.AcceptInvite)   // 接受邀请
	}

	// ==================== 需要认证的接口 ====================
	authenticated := api.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	authenticated.Use(middleware.OrgMiddleware())
	{
		// 个人信息
		authenticated.GET("/auth/profile", authHandler.GetProfile)
		authenticated.PUT("/auth/profile", authHandler.UpdateProfile)
		authenticated.PUT("/auth/password", authHandler.ChangePassword)
		authenticated.GET("/auth/sessions", authHandler.ListSessions)
		authenticated.DELETE("/auth/sessions/:id", authHandler.RevokeSession)

		// 站内通知
		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		// WebSocket 通知推送
		authenticated.GET("/ws", wsHandler.HandleNotifications)
	}

	// ==================== 管理接口 ====================
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.OrgMiddleware())
	admin.Use(middleware.AuditMiddleware())
	{
		// 组织管理
		org := admin.Group("/organization")
		{
			org.GET("", orgHandler.Get)
			org.PUT("", middleware.PermissionMiddleware("org:update"), orgHandler.Update)
			org.DELETE("", middleware.OwnerMiddleware(), orgHandler.Delete)
			org.GET("/settings", orgHandler.GetSettings)
			org.PUT("/settings", middleware.PermissionMiddleware("org:update"), orgHandler.PutSetting)
		}

		// 成员管理
		members := admin.Group("/members")
		{
			members.GET("", memberHandler.List)
			members.GET("/:id", memberHandler.Get)
			members.POST("", middleware.PermissionMiddleware("member:invite"), memberHandler.Invite)
			members.PUT("/:id", middleware.PermissionMiddleware("member:update"), memberHandler.Update)
			members.PUT("/:id/role", middleware.PermissionMiddleware("member:update"), memberHandler.UpdateRole)
			members.DELETE("/:id", middleware.PermissionMiddleware("member:delete"), memberHandler.Remove)
			members.POST("/:id/reset-password", middleware.PermissionMiddleware("member:update"), memberHandler.ResetPassword)
		}

		// 邀请管理
		invitations := admin.Group("/invitations")
		{
			invitations.GET("", middleware.PermissionMiddleware("member:read"), memberHandler.ListInvitations)
			invitations.POST("/:id/revoke", middleware.PermissionMiddleware("member:invite"), memberHandler.RevokeInvitation)
		}

		// 仪表盘管理
		dashboards := admin.Group("/dashboards")
		{
			dashboards.POST("", middleware.PermissionMiddleware("dashboard:create"), dashboardHandler.Create)
			dashboards.GET("", dashboardHandler.List)
			dashboards.GET("/:id", dashboardHandler.Get)
			dashboards.PUT("/:id", middleware.PermissionMiddleware("dashboard:update"), dashboardHandler.Update)
			dashboards.DELETE("/:id", middleware.PermissionMiddleware("dashboard:delete"), dashboardHandler.Delete)
			dashboards.POST("/:id/star", dashboardHandler.Star)
			dashboards.POST("/:id/duplicate", middleware.PermissionMiddleware("dashboard:create"), dashboardHandler.Duplicate)

			// 组件
			dashboards.POST("/:id/widgets", middleware.PermissionMiddleware("dashboard:update"), widgetHandler.Create)
			dashboards.GET("/:id/widgets", widgetHandler.List)
			dashboards.PUT("/:id/widgets/:widget_id", middleware.PermissionMiddleware("dashboard:update"), widgetHandler.Update)
			dashboards.DELETE("/:id/widgets/:widget_id", middleware.PermissionMiddleware("dashboard:update"), widgetHandler.Delete)

			// 评论
			dashboards.GET("/:id/comments", commentHandler.List)
			dashboards.POST("/:id/comments", commentHandler.Create)
			dashboards.PUT("/:id/comments/:comment_id", commentHandler.Update)
			dashboards.DELETE("/:id/comments/:comment_id", commentHandler.Delete)
		}

		// Webhook 管理
		webhooks := admin.Group("/webhooks")
		{
			webhooks.POST("", middleware.PermissionMiddleware("webhook:create"), webhookHandler.Create)
			webhooks.GET("", middleware.PermissionMiddleware("webhook:read"), webhookHandler.List)
			webhooks.GET("/:id", middleware.PermissionMiddleware("webhook:read"), webhookHandler.Get)
			webhooks.PUT("/:id", middleware.PermissionMiddleware("webhook:update"), webhookHandler.Update)
			webhooks.DELETE("/:id", middleware.PermissionMiddleware("webhook:delete"), webhookHandler.Delete)
			webhooks.POST("/:id/pause", middleware.PermissionMiddleware("webhook:update"), webhookHandler.Pause)
			webhooks.POST("/:id/resume", middleware.PermissionMiddleware("webhook:update"), webhookHandler.Resume)
			webhooks.POST("/:id/test", middleware.PermissionMiddleware("webhook:update"), webhookHandler.Test)
			webhooks.GET("/:id/deliveries", middleware.PermissionMiddleware("webhook:read"), webhookHandler.ListDeliveries)
		}

		// API 密钥管理
		apiKeys := admin.Group("/api-keys")
		{
			apiKeys.POST("", middleware.PermissionMiddleware("apikey:create"), apiKeyHandler.Create)
			apiKeys.GET("", middleware.PermissionMiddleware("apikey:read"), apiKeyHandler.List)
			apiKeys.POST("/:id/revoke", middleware.PermissionMiddleware("apikey:delete"), apiKeyHandler.Revoke)
		}

		// 审计日志
		audit := admin.Group("/audit-logs")
		audit.Use(middleware.PermissionMiddleware("audit:read"))
		{
			audit.GET("", auditHandler.List)
			audit.GET("/stats", auditHandler.GetStats)
			audit.GET("/:id", auditHandler.Get)
		}

		// 审计日志导出（更严格的速率限制）
		export := admin.Group("/export")
		export.Use(middleware.PermissionMiddleware("export:read"))
		export.Use(middleware.RateLimitMiddleware(exportLimiter))
		{
			export.GET("/audit-logs", exportHandler.ExportAuditLogs)
		}

		// 计费管理
		billing := admin.Group("/billing")
		billing.Use(middleware.PermissionMiddleware("billing:read"))
		{
			billing.GET("/account", billingHandler.GetAccount)
			billing.PUT("/account", middleware.PermissionMiddleware("billing:update"), billingHandler.UpdateAccount)
			billing.POST("/plan", middleware.PermissionMiddleware("billing:update"), billingHandler.ChangePlan)
			billing.GET("/invoices", billingHandler.ListInvoices)
			billing.GET("/invoices/:id", billingHandler.GetInvoice)
			billing.POST("/invoices/:id/pay", middleware.PermissionMiddleware("billing:update"), billingHandler.PayInvoice)
			billing.GET("/payments", billingHandler.ListPayments)
		}

		// 统计数据
		admin.GET("/statistics/overview", middleware.PermissionMiddleware("stats:read"), statsHandler.GetOverview)

		// 每日报告
		reports := admin.Group("/reports")
		reports.Use(middleware.PermissionMiddleware("report:read"))
		{
			reports.GET("", reportHandler.List)
			reports.GET("/:id/download", reportHandler.Download)
			reports.POST("/generate", middleware.AdminMiddleware(), reportHandler.Generate)
		}
	}
}
