package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户 - 组织内的成员账号
type User struct {
	BaseModel
	OrgID    string     `gorm:"type:varchar(36);index;not null" json:"org_id"`
	Email    string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Password string     `gorm:"type:varchar(255);not null" json:"-"`
	Name     string     `gorm:"type:varchar(50)" json:"name"`
	Avatar   string     `gorm:"type:varchar(500)" json:"avatar"`
	Role     UserRole   `gorm:"type:varchar(20);not null;default:viewer" json:"role"`
	Status   UserStatus `gorm:"type:varchar(20);default:active" json:"status"`

	// 安全相关
	LastLoginAt   *time.Time `json:"last_login_at"`
	LastLoginIP   string     `gorm:"type:varchar(45)" json:"last_login_ip"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified"`

	// 邀请相关
	InvitedBy *string    `gorm:"type:varchar(36)" json:"invited_by"`
	InvitedAt *time.Time `json:"invited_at"`

	// 关联
	Organization *Organization `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
}

// UserRole 用户角色
type UserRole string

const (
	RoleOwner  UserRole = "owner"  // 所有者：全部权限，可删除组织
	RoleAdmin  UserRole = "admin"  // 管理员：管理成员和所有资源
	RoleMember UserRole = "member" // 成员：管理仪表盘、Webhook 等资源
	RoleViewer UserRole = "viewer" // 查看者：只读权限
)

// UserStatus 用户状态
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"   // 正常
	UserStatusInvited  UserStatus = "invited"  // 已邀请待接受
	UserStatusDisabled UserStatus = "disabled" // 已禁用
)

func (User) TableName() string {
	return "users"
}

// SetPassword 设置密码（加密）
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// HasPermission 检查是否有指定权限
func (u *User) HasPermission(permission string) bool {
	return RolePermissions[u.Role][permission]
}

// IsOwner 是否是所有者
func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

// IsAdmin 是否是管理员（包括所有者）
func (u *User) IsAdmin() bool {
	return u.Role == RoleOwner || u.Role == RoleAdmin
}

// IsValidRole 检查角色取值是否合法
func IsValidRole(role UserRole) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// RolePermissions 角色权限映射
var RolePermissions = map[UserRole]map[string]bool{
	RoleOwner: {
		// 组织管理
		"org:read":   true,
		"org:update": true,
		"org:delete": true,
		// 成员管理
		"member:read":   true,
		"member:invite": true,
		"member:update": true,
		"member:delete": true,
		// 仪表盘
		"dashboard:read":   true,
		"dashboard:create": true,
		"dashboard:update": true,
		"dashboard:delete": true,
		// Webhook
		"webhook:read":   true,
		"webhook:create": true,
		"webhook:update": true,
		"webhook:delete": true,
		// API Key
		"apikey:read":   true,
		"apikey:create": true,
		"apikey:delete": true,
		// 计费
		"billing:read":   true,
		"billing:update": true,
		// 统计、审计与导出
		"stats:read":  true,
		"audit:read":  true,
		"export:read": true,
		"report:read": true,
	},
	RoleAdmin: {
		// 组织管理
		"org:read":   true,
		"org:update": true,
		"org:delete": false,
		// 成员管理
		"member:read":   true,
		"member:invite": true,
		"member:update": true,
		"member:delete": true,
		// 仪表盘
		"dashboard:read":   true,
		"dashboard:create": true,
		"dashboard:update": true,
		"dashboard:delete": true,
		// Webhook
		"webhook:read":   true,
		"webhook:create": true,
		"webhook:update": true,
		"webhook:delete": true,
		// API Key
		"apikey:read":   true,
		"apikey:create": true,
		"apikey:delete": true,
		// 计费
		"billing:read":   true,
		"billing:update": false,
		// 统计、审计与导出
		"stats:read":  true,
		"audit:read":  true,
		"export:read": true,
		"report:read": true,
	},
	RoleMember: {
		// 组织管理
		"org:read":   true,
		"org:update": false,
		"org:delete": false,
		// 成员管理
		"member:read":   true,
		"member:invite": false,
		"member:update": false,
		"member:delete": false,
		// 仪表盘
		"dashboard:read":   true,
		"dashboard:create": true,
		"dashboard:update": true,
		"dashboard:delete": true,
		// Webhook
		"webhook:read":   true,
		"webhook:create": true,
		"webhook:update": true,
		"webhook:delete": false,
		// API Key
		"apikey:read":   true,
		"apikey:create": false,
		"apikey:delete": false,
		// 计费
		"billing:read":   false,
		"billing:update": false,
		// 统计、审计与导出
		"stats:read":  true,
		"audit:read":  false,
		"export:read": false,
		"report:read": true,
	},
	RoleViewer: {
		// 组织管理
		"org:read":   true,
		"org:update": false,
		"org:delete": false,
		// 成员管理
		"member:read":   true,
		"member:invite": false,
		"member:update": false,
		"member:delete": false,
		// 仪表盘
		"dashboard:read":   true,
		"dashboard:create": false,
		"dashboard:update": false,
		"dashboard:delete": false,
		// Webhook
		"webhook:read":   true,
		"webhook:create": false,
		"webhook:update": false,
		"webhook:delete": false,
		// API Key
		"apikey:read":   false,
		"apikey:create": false,
		"apikey:delete": false,
		// 计费
		"billing:read":   false,
		"billing:update": false,
		// 统计、审计与导出
		"stats:read":  true,
		"audit:read":  false,
		"export:read": false,
		"report:read": false,
	},
}

// Invitation 成员邀请
type Invitation struct {
	BaseModel
	OrgID     string       `gorm:"type:varchar(36);index;not null" json:"org_id"`
	Email     string       `gorm:"type:varchar(100);not null" json:"email"`
	Role      UserRole     `gorm:"type:varchar(20);default:viewer" json:"role"`
	Token     string       `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`
	InvitedBy string       `gorm:"type:varchar(36);not null" json:"invited_by"`
	Status    InviteStatus `gorm:"type:varchar(20);default:pending" json:"status"`
	ExpireAt  time.Time    `gorm:"not null" json:"expire_at"`

	// 关联
	Organization *Organization `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
}

// InviteStatus 邀请状态
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"  // 待接受
	InviteStatusAccepted InviteStatus = "accepted" // 已接受
	InviteStatusExpired  InviteStatus = "expired"  // 已过期
	InviteStatusRevoked  InviteStatus = "revoked"  // 已撤销
)

func (Invitation) TableName() string {
	return "invitations"
}

// IsExpired 是否已过期
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpireAt)
}

// Session 登录会话
type Session struct {
	BaseModel
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	TokenHash string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	IPAddress string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string    `gorm:"type:varchar(500)" json:"user_agent"`
	ExpireAt  time.Time `gorm:"not null" json:"expire_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}

func (Session) TableName() string {
	return "sessions"
}

// IsActive 会话是否有效
func (s *Session) IsActive() bool {
	return !s.Revoked && time.Now().Before(s.ExpireAt)
}
