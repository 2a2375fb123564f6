package handler

import (
	"fmt"
	"log"
	"time"

	"insighthub/internal/config"
	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/crypto"
	"insighthub/internal/pkg/response"
	"insighthub/internal/pkg/utils"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	emailService        *service.EmailService
	webhookService      *service.WebhookService
	notificationService *service.NotificationService
}

func NewMemberHandler() *MemberHandler {
	return &MemberHandler{
		emailService:        service.NewEmailService(),
		webhookService:      service.NewWebhookService(),
		notificationService: service.NewNotificationService(),
	}
}

// List 获取成员列表
func (h *MemberHandler) List(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	page, pageSize := response.GetPageParams(c)
	query := model.DB.Model(&model.User{}).Where("org_id = ?", orgID)

	// 角色筛选
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	// 状态筛选
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	// 搜索
	if keyword := c.Query("keyword"); keyword != "" {
		query = query.Where("email LIKE ? OR name LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	var total int64
	query.Count(&total)

	var members []model.User
	query.Order("created_at ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&members)

	response.SuccessPage(c, members, total, page, pageSize)
}

// Get 获取成员详情
func (h *MemberHandler) Get(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	id := c.Param("id")

	var member model.User
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&member).Error; err != nil {
		response.NotFound(c, "成员不存在")
		return
	}

	response.Success(c, member)
}

// InviteRequest 邀请成员请求
type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

// Invite 邀请新成员
func (h *MemberHandler) Invite(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	userID := middleware.GetUserID(c)

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if !model.IsValidRole(model.UserRole(req.Role)) || model.UserRole(req.Role) == model.RoleOwner {
		response.BadRequest(c, "无效的角色")
		return
	}

	// 检查成员配额
	var org model.Organization
	model.DB.First(&org, "id = ?", orgID)
	var memberCount int64
	model.DB.Model(&model.User{}).Where("org_id = ?", orgID).Count(&memberCount)
	if org.MaxMembers > 0 && memberCount >= int64(org.MaxMembers) {
		response.Error(c, 403, fmt.Sprintf("成员数量已达上限 (%d)，请升级套餐", org.MaxMembers))
		return
	}

	// 检查邮箱是否已存在
	var existingUser model.User
	if err := model.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		response.Error(c, 400, "该邮箱已被注册")
		return
	}

	// 检查是否有待处理的邀请
	var existingInvite model.Invitation
	if err := model.DB.Where("org_id = ? AND email = ? AND status = ?",
		orgID, req.Email, model.InviteStatusPending).First(&existingInvite).Error; err == nil {
		response.Error(c, 400, "该邮箱已有待处理的邀请")
		return
	}

	var inviter model.User
	model.DB.First(&inviter, "id = ?", userID)

	invitation := model.Invitation{
		OrgID:     orgID,
		Email:     req.Email,
		Role:      model.UserRole(req.Role),
		Token:     utils.GenerateInviteToken(),
		InvitedBy: userID,
		Status:    model.InviteStatusPending,
		ExpireAt:  time.Now().Add(7 * 24 * time.Hour),
	}
	if err := model.DB.Create(&invitation).Error; err != nil {
		response.ServerError(c, "创建邀请失败")
		return
	}

	// 发送邀请邮件（失败仅记录日志）
	cfg := config.Get()
	if cfg.Email.Enabled {
		acceptURL := fmt.Sprintf("%s/invite/accept?token=%s", cfg.Server.BaseURL, invitation.Token)
		if err := h.emailService.SendInvite(req.Email, service.InviteEmailData{
			InviterName: inviter.Name,
			OrgName:     org.Name,
			Role:        req.Role,
			AcceptURL:   acceptURL,
			ExpireDays:  7,
		}); err != nil {
			log.Printf("[邀请] 发送邮件失败 %s: %v", utils.MaskEmail(req.Email), err)
		}
	}

	// 触发 member.invited webhook
	h.webhookService.TriggerMemberInvited(orgID, req.Email, model.UserRole(req.Role))

	response.Success(c, gin.H{
		"id":        invitation.ID,
		"email":     invitation.Email,
		"role":      invitation.Role,
		"token":     invitation.Token,
		"expire_at": invitation.ExpireAt,
	})
}

// AcceptInviteRequest 接受邀请请求
type AcceptInviteRequest struct {
	Token    string `json:"token" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// AcceptInvite 接受邀请（公开端点）
func (h *MemberHandler) AcceptInvite(c *gin.Context) {
	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var invitation model.Invitation
	if err := model.DB.Where("token = ?", req.Token).First(&invitation).Error; err != nil {
		response.NotFound(c, "邀请不存在")
		return
	}

	if invitation.Status != model.InviteStatusPending {
		response.Error(c, 400, "邀请已失效")
		return
	}
	if invitation.IsExpired() {
		model.DB.Model(&invitation).Update("status", model.InviteStatusExpired)
		response.Error(c, 400, "邀请已过期")
		return
	}

	// 检查组织状态
	var org model.Organization
	if err := model.DB.First(&org, "id = ?", invitation.OrgID).Error; err != nil || org.Status != model.OrgStatusActive {
		response.Error(c, 400, "组织不可用")
		return
	}

	now := time.Now()
	user := model.User{
		OrgID:         invitation.OrgID,
		Email:         invitation.Email,
		Name:          req.Name,
		Role:          invitation.Role,
		Status:        model.UserStatusActive,
		EmailVerified: true,
		InvitedBy:     &invitation.InvitedBy,
		InvitedAt:     &now,
	}
	if err := user.SetPassword(req.Password); err != nil {
		response.ServerError(c, "密码加密失败")
		return
	}

	tx := model.DB.Begin()
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "创建用户失败")
		return
	}
	if err := tx.Model(&invitation).Update("status", model.InviteStatusAccepted).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "更新邀请状态失败")
		return
	}
	tx.Commit()

	service.InvalidateStats(invitation.OrgID)

	// 通知邀请人
	h.notificationService.Notify(invitation.InvitedBy, invitation.OrgID, model.NotificationTypeMember,
		"成员加入", fmt.Sprintf("%s 已接受邀请加入组织", user.Email))

	// 签发 Token
	cfg := config.Get()
	token, err := crypto.GenerateToken(user.ID, user.OrgID, user.Email, string(user.Role), cfg.JWT.Secret, cfg.JWT.ExpireHours)
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
	})
}

// UpdateMemberRequest 更新成员请求
type UpdateMemberRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Update 更新成员信息
func (h *MemberHandler) Update(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	id := c.Param("id")

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var member model.User
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&member).Error; err != nil {
		response.NotFound(c, "成员不存在")
		return
	}

	// Owner 不能被禁用
	if member.Role == model.RoleOwner && req.Status == string(model.UserStatusDisabled) {
		response.Error(c, 403, "不能禁用组织所有者")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if len(updates) > 0 {
		model.DB.Model(&member).Updates(updates)
	}

	response.SuccessWithMessage(c, "成员更新成功", nil)
}

// UpdateRoleRequest 变更角色请求
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateRole 变更成员角色
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	operatorID := middleware.GetUserID(c)
	id := c.Param("id")

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if !model.IsValidRole(model.UserRole(req.Role)) {
		response.BadRequest(c, "无效的角色")
		return
	}

	var member model.User
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&member).Error; err != nil {
		response.NotFound(c, "成员不存在")
		return
	}

	// 变更 Owner 角色只能由 Owner 本人转让
	newRole := model.UserRole(req.Role)
	if member.Role == model.RoleOwner || newRole == model.RoleOwner {
		var operator model.User
		model.DB.First(&operator, "id = ?", operatorID)
		if !operator.IsOwner() {
			response.Forbidden(c, "只有组织所有者可以转让所有权")
			return
		}
	}

	// 保证组织至少有一个 Owner
	if member.Role == model.RoleOwner && newRole != model.RoleOwner {
		var ownerCount int64
		model.DB.Model(&model.User{}).Where("org_id = ? AND role = ?", orgID, model.RoleOwner).Count(&ownerCount)
		if ownerCount <= 1 {
			response.Error(c, 403, "组织必须至少保留一个所有者")
			return
		}
	}

	tx := model.DB.Begin()
	if err := tx.Model(&member).Update("role", newRole).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "变更角色失败")
		return
	}
	// 所有权转让：原所有者同时降级为管理员，组织始终只有一个所有者
	if newRole == model.RoleOwner && member.Role != model.RoleOwner {
		if err := tx.Model(&model.User{}).Where("id = ? AND org_id = ?", operatorID, orgID).
			Update("role", model.RoleAdmin).Error; err != nil {
			tx.Rollback()
			response.ServerError(c, "变更角色失败")
			return
		}
	}
	tx.Commit()

	response.SuccessWithMessage(c, "角色变更成功", nil)
}

// Remove 移除成员
func (h *MemberHandler) Remove(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	operatorID := middleware.GetUserID(c)
	id := c.Param("id")

	if id == operatorID {
		response.Error(c, 400, "不能移除自己")
		return
	}

	var member model.User
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&member).Error; err != nil {
		response.NotFound(c, "成员不存在")
		return
	}

	if member.Role == model.RoleOwner {
		response.Forbidden(c, "不能移除组织所有者")
		return
	}

	tx := model.DB.Begin()
	if err := tx.Delete(&member).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "移除成员失败")
		return
	}
	// 吊销会话
	tx.Model(&model.Session{}).Where("user_id = ?", member.ID).Update("revoked", true)
	tx.Commit()

	service.InvalidateStats(orgID)

	// 触发 member.removed webhook
	h.webhookService.TriggerMemberRemoved(orgID, member.ID, member.Email)

	response.SuccessWithMessage(c, "成员已移除", nil)
}

// ResetPassword 重置成员密码（管理员操作）
func (h *MemberHandler) ResetPassword(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	id := c.Param("id")

	var member model.User
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&member).Error; err != nil {
		response.NotFound(c, "成员不存在")
		return
	}

	if member.Role == model.RoleOwner {
		response.Forbidden(c, "不能重置组织所有者的密码")
		return
	}

	// 生成临时密码
	newPassword := utils.GenerateRandomString(12)
	if err := member.SetPassword(newPassword); err != nil {
		response.ServerError(c, "密码加密失败")
		return
	}
	if err := model.DB.Save(&member).Error; err != nil {
		response.ServerError(c, "重置密码失败")
		return
	}

	// 吊销该成员所有会话
	model.DB.Model(&model.Session{}).Where("user_id = ?", member.ID).Update("revoked", true)

	response.Success(c, gin.H{
		"password": newPassword,
	})
}

// ListInvitations 获取邀请列表
func (h *MemberHandler) ListInvitations(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	page, pageSize := response.GetPageParams(c)
	query := model.DB.Model(&model.Invitation{}).Where("org_id = ?", orgID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var invitations []model.Invitation
	query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&invitations)

	response.SuccessPage(c, invitations, total, page, pageSize)
}

// RevokeInvitation 撤销邀请
func (h *MemberHandler) RevokeInvitation(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	id := c.Param("id")

	var invitation model.Invitation
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&invitation).Error; err != nil {
		response.NotFound(c, "邀请不存在")
		return
	}

	if invitation.Status != model.InviteStatusPending {
		response.Error(c, 400, "只能撤销待处理的邀请")
		return
	}

	model.DB.Model(&invitation).Update("status", model.InviteStatusRevoked)
	response.SuccessWithMessage(c, "邀请已撤销", nil)
}
