package handler

import (
	"fmt"
	"time"

	"insighthub/internal/middleware"
	"insighthub/internal/model"
	"insighthub/internal/pkg/response"
	"insighthub/internal/pkg/utils"
	"insighthub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BillingHandler struct {
	webhookService      *service.WebhookService
	notificationService *service.NotificationService
}

func NewBillingHandler() *BillingHandler {
	return &BillingHandler{
		webhookService:      service.NewWebhookService(),
		notificationService: service.NewNotificationService(),
	}
}

// 各套餐月费
var planPrices = map[model.OrgPlan]decimal.Decimal{
	model.OrgPlanFree:       decimal.Zero,
	model.OrgPlanPro:        decimal.NewFromInt(299),
	model.OrgPlanEnterprise: decimal.NewFromInt(1999),
}

// GetAccount 获取计费账户
func (h *BillingHandler) GetAccount(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var account model.BillingAccount
	if err := model.DB.Where("org_id = ?", orgID).First(&account).Error; err != nil {
		response.NotFound(c, "计费账户不存在")
		return
	}

	response.Success(c, account)
}

// UpdateAccountRequest 更新计费账户请求
type UpdateAccountRequest struct {
	BillingEmail string `json:"billing_email"`
	CardBrand    string `json:"card_brand"`
	CardLast4    string `json:"card_last4"`
}

// UpdateAccount 更新计费账户
func (h *BillingHandler) UpdateAccount(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var account model.BillingAccount
	if err := model.DB.Where("org_id = ?", orgID).First(&account).Error; err != nil {
		response.NotFound(c, "计费账户不存在")
		return
	}

	updates := map[string]interface{}{}
	if req.BillingEmail != "" {
		updates["billing_email"] = req.BillingEmail
	}
	if req.CardBrand != "" {
		updates["card_brand"] = req.CardBrand
	}
	if req.CardLast4 != "" {
		updates["card_last4"] = req.CardLast4
	}
	if len(updates) > 0 {
		model.DB.Model(&account).Updates(updates)
	}

	response.SuccessWithMessage(c, "计费账户更新成功", nil)
}

// ChangePlanRequest 变更套餐请求
type ChangePlanRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// ChangePlan 变更套餐（同步更新组织配额并生成账单）
func (h *BillingHandler) ChangePlan(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	newPlan := model.OrgPlan(req.Plan)
	if _, ok := planPrices[newPlan]; !ok {
		response.BadRequest(c, "无效的套餐")
		return
	}

	var org model.Organization
	if err := model.DB.First(&org, "id = ?", orgID).Error; err != nil {
		response.NotFound(c, "组织不存在")
		return
	}

	oldPlan := org.Plan
	if oldPlan == newPlan {
		response.Error(c, 400, "当前已是该套餐")
		return
	}

	org.Plan = newPlan
	limits := org.GetPlanLimits()
	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)

	tx := model.DB.Begin()

	if err := tx.Model(&org).Updates(map[string]interface{}{
		"plan":           newPlan,
		"max_dashboards": limits["max_dashboards"],
		"max_members":    limits["max_members"],
		"max_webhooks":   limits["max_webhooks"],
		"max_api_keys":   limits["max_api_keys"],
	}).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "变更套餐失败")
		return
	}

	if err := tx.Model(&model.BillingAccount{}).Where("org_id = ?", orgID).Updates(map[string]interface{}{
		"plan":         newPlan,
		"period_start": now,
		"period_end":   periodEnd,
	}).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "更新计费账户失败")
		return
	}

	// 升级到付费套餐时生成账单
	price := planPrices[newPlan]
	var invoice *model.Invoice
	if price.GreaterThan(decimal.Zero) {
		dueAt := now.AddDate(0, 0, 7)
		inv := model.Invoice{
			OrgID:    orgID,
			Number:   fmt.Sprintf("INV-%s-%s", now.Format("200601"), utils.GenerateRandomString(8)),
			Amount:   price,
			Currency: "CNY",
			Status:   model.InvoiceStatusOpen,
			DueAt:    &dueAt,
		}
		if err := tx.Create(&inv).Error; err != nil {
			tx.Rollback()
			response.ServerError(c, "生成账单失败")
			return
		}
		invoice = &inv
	}

	tx.Commit()

	// 触发 billing.plan_changed webhook
	h.webhookService.TriggerPlanChanged(orgID, oldPlan, newPlan)
	h.notificationService.NotifyOrgAdmins(orgID, model.NotificationTypeBilling,
		"套餐变更", fmt.Sprintf("组织套餐已由 %s 变更为 %s", oldPlan, newPlan))
	service.InvalidateStats(orgID)

	result := gin.H{
		"plan":   newPlan,
		"limits": limits,
	}
	if invoice != nil {
		result["invoice"] = invoice
	}
	response.Success(c, result)
}

// ListInvoices 获取账单列表
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	page, pageSize := response.GetPageParams(c)
	query := model.DB.Model(&model.Invoice{}).Where("org_id = ?", orgID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var invoices []model.Invoice
	query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&invoices)

	response.SuccessPage(c, invoices, total, page, pageSize)
}

// GetInvoice 获取账单详情（含支付记录）
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	id := c.Param("id")

	var invoice model.Invoice
	if err := model.DB.Preload("Payments").Where("id = ? AND org_id = ?", id, orgID).First(&invoice).Error; err != nil {
		response.NotFound(c, "账单不存在")
		return
	}

	response.Success(c, gin.H{
		"invoice":    invoice,
		"amount_due": invoice.AmountDue(),
		"overdue":    invoice.IsOverdue(),
	})
}

// PayInvoiceRequest 支付账单请求
type PayInvoiceRequest struct {
	Method         string `json:"method" binding:"required"` // card / alipay / wechat / transfer
	TransactionRef string `json:"transaction_ref"`
}

// PayInvoice 支付账单（记录支付并触发 billing.payment）
func (h *BillingHandler) PayInvoice(c *gin.Context) {
	orgID := middleware.GetOrgID(c)
	id := c.Param("id")

	var req PayInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}

	var invoice model.Invoice
	if err := model.DB.Where("id = ? AND org_id = ?", id, orgID).First(&invoice).Error; err != nil {
		response.NotFound(c, "账单不存在")
		return
	}

	if invoice.Status != model.InvoiceStatusOpen {
		response.Error(c, 400, "账单当前状态不可支付")
		return
	}

	now := time.Now()
	payment := model.PaymentRecord{
		InvoiceID:      invoice.ID,
		OrgID:          orgID,
		Amount:         invoice.Amount,
		Method:         req.Method,
		Status:         model.PaymentStatusSucceeded,
		TransactionRef: req.TransactionRef,
	}

	tx := model.DB.Begin()
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "记录支付失败")
		return
	}
	if err := tx.Model(&invoice).Updates(map[string]interface{}{
		"status":  model.InvoiceStatusPaid,
		"paid_at": now,
	}).Error; err != nil {
		tx.Rollback()
		response.ServerError(c, "更新账单状态失败")
		return
	}
	tx.Commit()

	// 触发 billing.payment webhook
	h.webhookService.TriggerBillingPayment(orgID, &invoice, &payment)
	h.notificationService.NotifyOrgAdmins(orgID, model.NotificationTypeBilling,
		"支付成功", fmt.Sprintf("账单 %s 已支付，金额 %s %s", invoice.Number, invoice.Amount.String(), invoice.Currency))

	response.Success(c, payment)
}

// ListPayments 获取支付记录列表
func (h *BillingHandler) ListPayments(c *gin.Context) {
	orgID := middleware.GetOrgID(c)

	page, pageSize := response.GetPageParams(c)
	query := model.DB.Model(&model.PaymentRecord{}).Where("org_id = ?", orgID)

	var total int64
	query.Count(&total)

	var payments []model.PaymentRecord
	query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&payments)

	response.SuccessPage(c, payments, total, page, pageSize)
}
