package model

// Notification 站内通知
type Notification struct {
	BaseModel
	UserID  string `gorm:"type:varchar(36);index" json:"user_id"`
	OrgID   string `gorm:"type:varchar(36);index" json:"org_id"`
	Type    string `gorm:"type:varchar(50);not null" json:"type"`
	Title   string `gorm:"type:varchar(200);not null" json:"title"`
	Content string `gorm:"type:text" json:"content"`
	IsRead  bool   `gorm:"default:false" json:"is_read"`
}

func (Notification) TableName() string {
	return "notifications"
}

// 通知类型常量
const (
	NotificationTypeSystem  = "system"  // 系统通知
	NotificationTypeMember  = "member"  // 成员变动
	NotificationTypeComment = "comment" // 评论提醒
	NotificationTypeReport  = "report"  // 报告生成
	NotificationTypeBilling = "billing" // 账单提醒
)
