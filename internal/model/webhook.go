package model

import (
	"encoding/json"
	"errors"
	"time"
)

// Webhook 出站回调配置
type Webhook struct {
	BaseModel
	OrgID           string        `gorm:"type:varchar(36);index;not null" json:"org_id"`
	URL             string        `gorm:"type:varchar(500);not null" json:"url"`
	Secret          string        `gorm:"type:varchar(100);not null" json:"-"`
	Events          string        `gorm:"type:json;not null" json:"events"` // 事件名 JSON 数组
	Status          WebhookStatus `gorm:"type:varchar(20);default:active" json:"status"`
	FailureCount    int           `gorm:"default:0" json:"failure_count"` // 连续失败次数
	LastTriggeredAt *time.Time    `json:"last_triggered_at"`
	LastError       string        `gorm:"type:varchar(500)" json:"last_error"`
}

// WebhookStatus Webhook 状态
type WebhookStatus string

const (
	WebhookStatusActive WebhookStatus = "active" // 正常
	WebhookStatusPaused WebhookStatus = "paused" // 已暂停
	WebhookStatusFailed WebhookStatus = "failed" // 连续失败自动停用
)

func (Webhook) TableName() string {
	return "webhooks"
}

// WebhookEvent 事件类型
type WebhookEvent string

// 事件名固定为 12 种，与前端订阅表单一致
const (
	EventDashboardCreated  WebhookEvent = "dashboard.created"
	EventDashboardUpdated  WebhookEvent = "dashboard.updated"
	EventDashboardDeleted  WebhookEvent = "dashboard.deleted"
	EventWidgetCreated     WebhookEvent = "widget.created"
	EventWidgetUpdated     WebhookEvent = "widget.updated"
	EventWidgetDeleted     WebhookEvent = "widget.deleted"
	EventMemberInvited     WebhookEvent = "member.invited"
	EventMemberRemoved     WebhookEvent = "member.removed"
	EventReportGenerated   WebhookEvent = "report.generated"
	EventBillingPayment    WebhookEvent = "billing.payment"
	EventBillingPlanChange WebhookEvent = "billing.plan_changed"
	EventWebhookTest       WebhookEvent = "webhook.test"
)

// AllWebhookEvents 全部可订阅事件
var AllWebhookEvents = []WebhookEvent{
	EventDashboardCreated,
	EventDashboardUpdated,
	EventDashboardDeleted,
	EventWidgetCreated,
	EventWidgetUpdated,
	EventWidgetDeleted,
	EventMemberInvited,
	EventMemberRemoved,
	EventReportGenerated,
	EventBillingPayment,
	EventBillingPlanChange,
	EventWebhookTest,
}

// IsValidWebhookEvent 检查事件名是否合法
func IsValidWebhookEvent(event string) bool {
	for _, e := range AllWebhookEvents {
		if string(e) == event {
			return true
		}
	}
	return false
}

// ValidateEvents 校验事件列表：不能为空且必须全部是已知事件
func ValidateEvents(events []string) error {
	if len(events) == 0 {
		return errors.New("事件列表不能为空")
	}
	for _, e := range events {
		if !IsValidWebhookEvent(e) {
			return errors.New("未知的事件类型: " + e)
		}
	}
	return nil
}

// SetEvents 序列化事件列表
func (w *Webhook) SetEvents(events []string) error {
	if err := ValidateEvents(events); err != nil {
		return err
	}
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	w.Events = string(data)
	return nil
}

// GetEvents 反序列化事件列表
func (w *Webhook) GetEvents() []string {
	var events []string
	json.Unmarshal([]byte(w.Events), &events)
	return events
}

// Subscribes 是否订阅了指定事件
func (w *Webhook) Subscribes(event WebhookEvent) bool {
	for _, e := range w.GetEvents() {
		if e == string(event) {
			return true
		}
	}
	return false
}

// WebhookDelivery Webhook 投递记录
type WebhookDelivery struct {
	BaseModel
	WebhookID      string `gorm:"type:varchar(36);index;not null" json:"webhook_id"`
	EventType      string `gorm:"type:varchar(50);not null" json:"event_type"`
	Payload        string `gorm:"type:json;not null" json:"payload"`
	ResponseStatus int    `json:"response_status"` // 接收端 HTTP 状态码
	ResponseBody   string `gorm:"type:text" json:"response_body"`
	Success        bool   `json:"success"`
	Duration       int64  `gorm:"type:bigint" json:"duration"` // 毫秒
}

func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}
