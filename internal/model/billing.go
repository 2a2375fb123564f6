package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingAccount 计费账户 - 每个组织一条
type BillingAccount struct {
	BaseModel
	OrgID        string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"org_id"`
	Plan         OrgPlan    `gorm:"type:varchar(20);default:free" json:"plan"`
	BillingEmail string     `gorm:"type:varchar(100)" json:"billing_email"`
	CardBrand    string     `gorm:"type:varchar(20)" json:"card_brand"`
	CardLast4    string     `gorm:"type:varchar(4)" json:"card_last4"`
	PeriodStart  *time.Time `json:"period_start"`
	PeriodEnd    *time.Time `json:"period_end"`

	// 关联
	Organization *Organization `gorm:"foreignKey:OrgID" json:"organization,omitempty"`
}

func (BillingAccount) TableName() string {
	return "billing_accounts"
}

// Invoice 账单
type Invoice struct {
	BaseModel
	OrgID    string          `gorm:"type:varchar(36);index;not null" json:"org_id"`
	Number   string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency string          `gorm:"type:varchar(3);default:CNY" json:"currency"`
	Status   InvoiceStatus   `gorm:"type:varchar(20);default:open" json:"status"`
	DueAt    *time.Time      `json:"due_at"`
	PaidAt   *time.Time      `json:"paid_at"`

	// 关联
	Payments []PaymentRecord `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// InvoiceStatus 账单状态
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft" // 草稿
	InvoiceStatusOpen  InvoiceStatus = "open"  // 待支付
	InvoiceStatusPaid  InvoiceStatus = "paid"  // 已支付
	InvoiceStatusVoid  InvoiceStatus = "void"  // 已作废
)

func (Invoice) TableName() string {
	return "invoices"
}

// IsOverdue 是否已逾期
func (i *Invoice) IsOverdue() bool {
	return i.Status == InvoiceStatusOpen && i.DueAt != nil && time.Now().After(*i.DueAt)
}

// AmountDue 未结清金额
func (i *Invoice) AmountDue() decimal.Decimal {
	if i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusVoid {
		return decimal.Zero
	}
	paid := decimal.Zero
	for _, p := range i.Payments {
		if p.Status == PaymentStatusSucceeded {
			paid = paid.Add(p.Amount)
		}
	}
	due := i.Amount.Sub(paid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// PaymentRecord 支付记录
type PaymentRecord struct {
	BaseModel
	InvoiceID      string          `gorm:"type:varchar(36);index;not null" json:"invoice_id"`
	OrgID          string          `gorm:"type:varchar(36);index;not null" json:"org_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method         string          `gorm:"type:varchar(20)" json:"method"`
	Status         PaymentStatus   `gorm:"type:varchar(20);default:pending" json:"status"`
	TransactionRef string          `gorm:"type:varchar(100)" json:"transaction_ref"`
}

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // 处理中
	PaymentStatusSucceeded PaymentStatus = "succeeded" // 成功
	PaymentStatusFailed    PaymentStatus = "failed"    // 失败
)

func (PaymentRecord) TableName() string {
	return "payment_records"
}
