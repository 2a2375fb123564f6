package middleware

import (
	"strings"

	"insighthub/internal/config"
	"insighthub/internal/model"
	"insighthub/internal/pkg/crypto"
	"insighthub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT 认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "缺少认证信息")
			c.Abort()
			return
		}

		// Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "认证格式错误")
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := crypto.ParseToken(token, config.Get().JWT.Secret)
		if err != nil {
			response.Unauthorized(c, "无效的认证信息")
			c.Abort()
			return
		}

		// 校验会话状态，已撤销的令牌立即失效
		var session model.Session
		if err := model.DB.Where("token_hash = ?", crypto.HashAPIKey(token)).First(&session).Error; err != nil {
			response.Unauthorized(c, "会话不存在，请重新登录")
			c.Abort()
			return
		}
		if !session.IsActive() {
			response.Unauthorized(c, "会话已失效，请重新登录")
			c.Abort()
			return
		}

		// 将用户信息存入上下文
		c.Set("user_id", claims.UserID)
		c.Set("org_id", claims.OrgID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// OrgMiddleware 组织隔离中间件 - 确保所有操作都在组织范围内
func OrgMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, exists := c.Get("org_id")
		if !exists || orgID == "" {
			response.Forbidden(c, "缺少组织信息")
			c.Abort()
			return
		}

		// 验证组织状态
		var org model.Organization
		if err := model.DB.First(&org, "id = ?", orgID).Error; err != nil {
			response.Forbidden(c, "组织不存在")
			c.Abort()
			return
		}

		if org.Status != model.OrgStatusActive {
			response.Forbidden(c, "组织已被暂停")
			c.Abort()
			return
		}

		c.Next()
	}
}

// PermissionMiddleware 权限检查中间件
func PermissionMiddleware(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		orgID, _ := c.Get("org_id")

		// 获取用户信息
		var user model.User
		if err := model.DB.Where("id = ? AND org_id = ?", userID, orgID).First(&user).Error; err != nil {
			response.Forbidden(c, "用户不存在")
			c.Abort()
			return
		}

		// 检查权限
		if !user.HasPermission(permission) {
			response.Forbidden(c, "没有操作权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminMiddleware 管理员权限中间件（Owner 或 Admin）
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Forbidden(c, "需要管理员权限")
			c.Abort()
			return
		}

		roleStr := role.(string)
		if roleStr != string(model.RoleOwner) && roleStr != string(model.RoleAdmin) {
			response.Forbidden(c, "需要管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OwnerMiddleware 所有者权限中间件
func OwnerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role != string(model.RoleOwner) {
			response.Forbidden(c, "需要所有者权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetOrgID 从上下文获取组织 ID
func GetOrgID(c *gin.Context) string {
	orgID, _ := c.Get("org_id")
	if id, ok := orgID.(string); ok {
		return id
	}
	return ""
}

// GetUserEmail 从上下文获取用户邮箱
func GetUserEmail(c *gin.Context) string {
	email, _ := c.Get("email")
	if e, ok := email.(string); ok {
		return e
	}
	return ""
}

// GetUserRole 从上下文获取用户角色
func GetUserRole(c *gin.Context) string {
	role, _ := c.Get("role")
	if r, ok := role.(string); ok {
		return r
	}
	return ""
}
