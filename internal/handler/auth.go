package handler

import (
	"fmt"
	"time"

	"insighthub/internal/config"
	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/crypto"
	"insighthub/internal/pkg/response"
	"insighthub/internal/pkg/utils"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// RegisterRequest 注册请求（创建新组织）
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	OrgName  string `json:"org_name"` // 可选，默认使用用户名
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 注册新组织（创建组织和 Owner）
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	// 检查邮箱是否已存在
	var existingUser model.User
	if err := model.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		response.Error(c, 400, "邮箱已被注册")
		return
	}

	// 生成组织 slug
	orgName := req.OrgName
	if orgName == "" {
		orgName = req.Name + "的团队"
	}
	slug := utils.GenerateSlug(orgName)

	// 检查 slug 是否已存在
	var existingOrg model.Organization
	if err := model.DB.Where("slug = ?", slug).First(&existingOrg).Error; err == nil {
		// 如果存在，添加随机后缀
		slug = slug + "-" + uuid.New().String()[:8]
	}

	// 开始事务
	tx := model.DB.Begin()

	// 创建组织
	org := model.Organization{
		Name:   orgName,
		Slug:   slug,
		Email:  req.Email,
		Status: model.OrgStatusActive,
		Plan:   model.OrgPlanFree,
	}
	if err := tx.Create(&org).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "创建组织失败")
		return
	}

	// 创建用户（Owner）
	user := model.User{
		OrgID:  org.ID,
		Email:  req.Email,
		Name:   req.Name,
		Role:   model.RoleOwner,
		Status: model.UserStatusActive,
	}
	if err := user.SetPassword(req.Password); err != nil {
		tx.Rollback()
		response.ServerError(c, "密码加密失败")
		return
	}

	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "创建用户失败")
		return
	}

	// 创建计费账户
	account := model.BillingAccount{
		OrgID:        org.ID,
		Plan:         model.OrgPlanFree,
		BillingEmail: req.Email,
	}
	if err := tx.Create(&account).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "创建计费账户失败")
		return
	}

	// 提交事务
	tx.Commit()

	token, err := h.issueToken(c, &user, org.ID)
	if err != nil {
		response.ServerError(c, "生成Token失败")
		return
	}

	response.Success(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
		"organization": gin.H{
			"id":   org.ID,
			"name": org.Name,
			"slug": org.Slug,
			"plan": org.Plan,
		},
	})
}

// Login 成员登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	clientIP := c.ClientIP()
	loginLimiter := service.GetLoginLimiter()
	ipLimiter := service.GetIPLoginLimiter()

	// 检查 IP 是否被锁定
	if locked, remaining := ipLimiter.IsLocked(clientIP); locked {
		response.Error(c, 429, fmt.Sprintf("IP 已被临时锁定，请 %d 分钟后再试", int(remaining.Minutes())+1))
		return
	}

	// 检查账号是否被锁定
	if locked, remaining := loginLimiter.IsLocked(req.Email); locked {
		response.Error(c, 429, fmt.Sprintf("账号已被临时锁定，请 %d 分钟后再试", int(remaining.Minutes())+1))
		return
	}

	// 查找用户
	var user model.User
	if err := model.DB.Preload("Organization").Where("email = ?", req.Email).First(&user).Error; err != nil {
		// 记录失败
		loginLimiter.RecordFailure(req.Email)
		ipLimiter.RecordFailure(clientIP)
		remainingAttempts := loginLimiter.GetRemainingAttempts(req.Email)
		if remainingAttempts > 0 {
			response.Error(c, 401, fmt.Sprintf("邮箱或密码错误，还剩 %d 次尝试机会", remainingAttempts))
		} else {
			response.Error(c, 401, "邮箱或密码错误")
		}
		return
	}

	// 验证密码
	if !user.CheckPassword(req.Password) {
		// 记录失败
		locked, lockDuration := loginLimiter.RecordFailure(req.Email)
		ipLimiter.RecordFailure(clientIP)
		if locked {
			response.Error(c, 429, fmt.Sprintf("登录失败次数过多，账号已被锁定 %d 分钟", int(lockDuration.Minutes())))
		} else {
			remainingAttempts := loginLimiter.GetRemainingAttempts(req.Email)
			response.Error(c, 401, fmt.Sprintf("邮箱或密码错误，还剩 %d 次尝试机会", remainingAttempts))
		}
		return
	}

	// 检查用户状态
	if user.Status != model.UserStatusActive {
		response.Error(c, 403, "账号已被禁用")
		return
	}

	// 检查组织状态
	if user.Organization != nil && user.Organization.Status != model.OrgStatusActive {
		response.Error(c, 403, "组织已被暂停")
		return
	}

	// 登录成功，清除失败记录
	loginLimiter.RecordSuccess(req.Email)
	ipLimiter.RecordSuccess(clientIP)

	// 更新最后登录时间和IP
	now := time.Now()
	model.DB.Model(&user).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": clientIP,
	})

	token, err := h.issueToken(c, &user, user.OrgID)
	if err != nil {
		response.ServerError(c, "生成Token失败")
		return
	}

	response.Success(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
		"organization": gin.H{
			"id":   user.Organization.ID,
			"name": user.Organization.Name,
			"slug": user.Organization.Slug,
			"plan": user.Organization.Plan,
		},
	})
}

// issueToken 生成 JWT 并记录会话
func (h *AuthHandler) issueToken(c *gin.Context, user *model.User, orgID string) (string, error) {
	cfg := config.Get()
	token, err := crypto.GenerateToken(user.ID, orgID, user.Email, string(user.Role), cfg.JWT.Secret, cfg.JWT.ExpireHours)
	if err != nil {
		return "", err
	}

	session := model.Session{
		UserID:    user.ID,
		TokenHash: crypto.HashAPIKey(token),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		ExpireAt:  time.Now().Add(time.Duration(cfg.JWT.ExpireHours) * time.Hour),
	}
	model.DB.Create(&session)

	return token, nil
}

// GetProfile 获取当前用户信息
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")
	orgID, _ := c.Get("org_id")

	var user model.User
	if err := model.DB.First(&user, "id = ?", userID).Error; err != nil {
		response.NotFound(c, "用户不存在")
		return
	}

	var org model.Organization
	model.DB.First(&org, "id = ?", orgID)

	response.Success(c, gin.H{
		"user": gin.H{
			"id":             user.ID,
			"email":          user.Email,
			"name":           user.Name,
			"avatar":         user.Avatar,
			"role":           user.Role,
			"email_verified": user.EmailVerified,
			"created_at":     user.CreatedAt,
			"last_login_at":  user.LastLoginAt,
		},
		"organization": gin.H{
			"id":             org.ID,
			"name":           org.Name,
			"slug":           org.Slug,
			"plan":           org.Plan,
			"max_dashboards": org.MaxDashboards,
			"max_members":    org.MaxMembers,
			"max_webhooks":   org.MaxWebhooks,
		},
	})
}

// UpdateProfileRequest 更新个人资料请求
type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// UpdateProfile 更新个人资料
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var user model.User
	if err := model.DB.First(&user, "id = ?", userID).Error; err != nil {
		response.NotFound(c, "用户不存在")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Avatar != "" {
		updates["avatar"] = req.Avatar
	}
	if len(updates) > 0 {
		model.DB.Model(&user).Updates(updates)
	}

	response.SuccessWithMessage(c, "资料更新成功", nil)
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword 修改密码
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var user model.User
	if err := model.DB.First(&user, "id = ?", userID).Error; err != nil {
		response.NotFound(c, "用户不存在")
		return
	}

	// 验证旧密码
	if !user.CheckPassword(req.OldPassword) {
		response.Error(c, 400, "原密码错误")
		return
	}

	// 设置新密码
	if err := user.SetPassword(req.NewPassword); err != nil {
		response.ServerError(c, "密码加密失败")
		return
	}

	if err := model.DB.Save(&user).Error; err != nil {
		response.ServerError(c, "修改密码失败")
		return
	}

	// 修改密码后吊销其他会话
	model.DB.Model(&model.Session{}).Where("user_id = ?", userID).Update("revoked", true)

	response.SuccessWithMessage(c, "密码修改成功", nil)
}

// ListSessions 获取当前用户的会话列表
func (h *AuthHandler) ListSessions(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var sessions []model.Session
	model.DB.Where("user_id = ? AND revoked = ? AND expire_at > ?", userID, false, time.Now()).
		Order("created_at DESC").Find(&sessions)

	response.Success(c, sessions)
}

// RevokeSession 吊销指定会话
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	var session model.Session
	if err := model.DB.Where("id = ? AND user_id = ?", id, userID).First(&session).Error; err != nil {
		response.NotFound(c, "会话不存在")
		return
	}

	model.DB.Model(&session).Update("revoked", true)
	response.SuccessWithMessage(c, "会话已吊销", nil)
}
