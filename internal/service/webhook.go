package service

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"insighthub/internal/config"
	"insighthub/internal/model"
)

// WebhookService Webhook 服务
type WebhookService struct{}

// NewWebhookService 创建 Webhook 服务
func NewWebhookService() *WebhookService {
	return &WebhookService{}
}

// WebhookPayload Webhook 负载
type WebhookPayload struct {
	Event     model.WebhookEvent     `json:"event"`
	Timestamp int64                  `json:"timestamp"`
	OrgID     string                 `json:"org_id"`
	Data      map[string]interface{} `json:"data"`
}

// SendWebhook 向组织内订阅了该事件的所有 Webhook 投递
func (s *WebhookService) SendWebhook(orgID string, event model.WebhookEvent, data map[string]interface{}) error {
	// 查找该组织的所有活跃 Webhook
	var webhooks []model.Webhook
	model.DB.Where("org_id = ? AND status = ?", orgID, model.WebhookStatusActive).Find(&webhooks)

	if len(webhooks) == 0 {
		return nil
	}

	payload := WebhookPayload{
		Event:     event,
		Timestamp: time.Now().Unix(),
		OrgID:     orgID,
		Data:      data,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// 异步发送，只投递订阅了该事件的 Webhook
	for _, webhook := range webhooks {
		if !webhook.Subscribes(event) {
			continue
		}
		go s.deliver(webhook, string(event), payloadBytes)
	}

	return nil
}

// SendTest 发送测试事件，同步返回投递结果
func (s *WebhookService) SendTest(webhook model.Webhook) model.WebhookDelivery {
	payload := WebhookPayload{
		Event:     model.EventWebhookTest,
		Timestamp: time.Now().Unix(),
		OrgID:     webhook.OrgID,
		Data:      map[string]interface{}{"webhook_id": webhook.ID},
	}
	payloadBytes, _ := json.Marshal(payload)
	return s.deliver(webhook, string(model.EventWebhookTest), payloadBytes)
}

// deliver 投递单个 Webhook 并记录结果
func (s *WebhookService) deliver(webhook model.Webhook, event string, payload []byte) model.WebhookDelivery {
	start := time.Now()

	delivery := model.WebhookDelivery{
		WebhookID: webhook.ID,
		EventType: event,
		Payload:   string(payload),
	}

	resp, err := s.post(webhook, payload)
	delivery.Duration = time.Since(start).Milliseconds()

	if err != nil {
		delivery.Success = false
		delivery.ResponseBody = err.Error()
	} else {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		delivery.ResponseStatus = resp.StatusCode
		delivery.ResponseBody = string(body)
		delivery.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	}

	s.record(webhook, delivery)
	return delivery
}

// post 构造并发送 HTTP 请求
func (s *WebhookService) post(webhook model.Webhook, payload []byte) (*http.Response, error) {
	req, err := http.NewRequest("POST", webhook.URL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", GenerateSignature(webhook.Secret, payload))
	req.Header.Set("X-Webhook-Timestamp", time.Now().Format(time.RFC3339))

	timeout := 10 * time.Second
	if cfg := config.Get(); cfg != nil && cfg.Webhook.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return client.Do(req)
}

// GenerateSignature 生成 HMAC-SHA256 签名
func GenerateSignature(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// record 保存投递记录并维护失败计数
func (s *WebhookService) record(webhook model.Webhook, delivery model.WebhookDelivery) {
	model.DB.Create(&delivery)

	now := time.Now()
	updates := map[string]interface{}{
		"last_triggered_at": now,
	}

	if delivery.Success {
		updates["failure_count"] = 0
		updates["last_error"] = ""
	} else {
		failureCount := webhook.FailureCount + 1
		updates["failure_count"] = failureCount
		updates["last_error"] = delivery.ResponseBody

		// 连续失败过多时自动停用
		maxFailures := 10
		if cfg := config.Get(); cfg != nil && cfg.Webhook.MaxFailures > 0 {
			maxFailures = cfg.Webhook.MaxFailures
		}
		if failureCount >= maxFailures {
			updates["status"] = model.WebhookStatusFailed
		}
	}

	model.DB.Model(&model.Webhook{}).Where("id = ?", webhook.ID).Updates(updates)
}

// TriggerDashboardEvent 触发仪表盘相关事件
func (s *WebhookService) TriggerDashboardEvent(event model.WebhookEvent, dashboard *model.Dashboard) {
	s.SendWebhook(dashboard.OrgID, event, map[string]interface{}{
		"dashboard_id":   dashboard.ID,
		"dashboard_name": dashboard.Name,
		"owner_id":       dashboard.OwnerID,
	})
}

// TriggerWidgetEvent 触发组件相关事件
func (s *WebhookService) TriggerWidgetEvent(event model.WebhookEvent, orgID string, widget *model.Widget) {
	s.SendWebhook(orgID, event, map[string]interface{}{
		"widget_id":    widget.ID,
		"dashboard_id": widget.DashboardID,
		"type":         widget.Type,
		"title":        widget.Title,
	})
}

// TriggerMemberInvited 触发成员邀请事件
func (s *WebhookService) TriggerMemberInvited(orgID, email string, role model.UserRole) {
	s.SendWebhook(orgID, model.EventMemberInvited, map[string]interface{}{
		"email": email,
		"role":  role,
	})
}

// TriggerMemberRemoved 触发成员移除事件
func (s *WebhookService) TriggerMemberRemoved(orgID, userID, email string) {
	s.SendWebhook(orgID, model.EventMemberRemoved, map[string]interface{}{
		"user_id": userID,
		"email":   email,
	})
}

// TriggerBillingPayment 触发支付事件
func (s *WebhookService) TriggerBillingPayment(orgID string, invoice *model.Invoice, payment *model.PaymentRecord) {
	s.SendWebhook(orgID, model.EventBillingPayment, map[string]interface{}{
		"invoice_id":     invoice.ID,
		"invoice_number": invoice.Number,
		"amount":         payment.Amount.String(),
		"currency":       invoice.Currency,
		"status":         payment.Status,
	})
}

// TriggerPlanChanged 触发套餐变更事件
func (s *WebhookService) TriggerPlanChanged(orgID string, oldPlan, newPlan model.OrgPlan) {
	s.SendWebhook(orgID, model.EventBillingPlanChange, map[string]interface{}{
		"old_plan": oldPlan,
		"new_plan": newPlan,
	})
}

// TriggerReportGenerated 触发报告生成事件
func (s *WebhookService) TriggerReportGenerated(orgID, reportDate, filePath string) {
	s.SendWebhook(orgID, model.EventReportGenerated, map[string]interface{}{
		"report_date": reportDate,
		"file_path":   filePath,
	})
}
