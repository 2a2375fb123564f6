package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInvoiceIsOverdue(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name    string
		invoice Invoice
		want    bool
	}{
		{
			name:    "open and past due",
			invoice: Invoice{Status: InvoiceStatusOpen, DueAt: &past},
			want:    true,
		},
		{
			name:    "open but not yet due",
			invoice: Invoice{Status: InvoiceStatusOpen, DueAt: &future},
			want:    false,
		},
		{
			name:    "paid invoice is never overdue",
			invoice: Invoice{Status: InvoiceStatusPaid, DueAt: &past},
			want:    false,
		},
		{
			name:    "no due date",
			invoice: Invoice{Status: InvoiceStatusOpen},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.invoice.IsOverdue())
		})
	}
}

func TestInvoiceAmountDue(t *testing.T) {
	invoice := Invoice{
		Amount: decimal.NewFromFloat(299.00),
		Status: InvoiceStatusOpen,
		Payments: []PaymentRecord{
			{Amount: decimal.NewFromFloat(100.00), Status: PaymentStatusSucceeded},
			{Amount: decimal.NewFromFloat(50.00), Status: PaymentStatusFailed}, // 失败的支付不计入
		},
	}

	assert.True(t, invoice.AmountDue().Equal(decimal.NewFromFloat(199.00)))
}

func TestInvoiceAmountDuePaid(t *testing.T) {
	invoice := Invoice{
		Amount: decimal.NewFromFloat(299.00),
		Status: InvoiceStatusPaid,
	}
	assert.True(t, invoice.AmountDue().IsZero())
}
