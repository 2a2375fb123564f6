package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEvents(t *testing.T) {
	tests := []struct {
		name    string
		events  []string
		wantErr bool
	}{
		{
			name:    "single valid event",
			events:  []string{"dashboard.created"},
			wantErr: false,
		},
		{
			name:    "all known events",
			events:  []string{"dashboard.created", "dashboard.updated", "dashboard.deleted", "widget.created", "widget.updated", "widget.deleted", "member.invited", "member.removed", "report.generated", "billing.payment", "billing.plan_changed", "webhook.test"},
			wantErr: false,
		},
		{
			name:    "empty list",
			events:  []string{},
			wantErr: true,
		},
		{
			name:    "unknown event",
			events:  []string{"dashboard.created", "dashboard.renamed"},
			wantErr: true,
		},
		{
			name:    "case sensitive",
			events:  []string{"Dashboard.Created"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEvents(tt.events)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAllWebhookEvents(t *testing.T) {
	// 事件名是对外契约，新增或改名都会破坏已有订阅
	expected := []WebhookEvent{
		"dashboard.created",
		"dashboard.updated",
		"dashboard.deleted",
		"widget.created",
		"widget.updated",
		"widget.deleted",
		"member.invited",
		"member.removed",
		"report.generated",
		"billing.payment",
		"billing.plan_changed",
		"webhook.test",
	}
	assert.Equal(t, expected, AllWebhookEvents)

	for _, e := range expected {
		assert.True(t, IsValidWebhookEvent(string(e)), "事件 %s 应当有效", e)
	}
	assert.False(t, IsValidWebhookEvent("dashboard.starred"))
}

func TestWebhookSetGetEvents(t *testing.T) {
	var w Webhook
	require.NoError(t, w.SetEvents([]string{"dashboard.created", "billing.payment"}))

	assert.Equal(t, []string{"dashboard.created", "billing.payment"}, w.GetEvents())
	assert.True(t, w.Subscribes(EventDashboardCreated))
	assert.True(t, w.Subscribes(EventBillingPayment))
	assert.False(t, w.Subscribes(EventWidgetDeleted))
}

func TestWebhookSetEventsRejectsInvalid(t *testing.T) {
	var w Webhook
	err := w.SetEvents([]string{"not.an.event"})
	assert.Error(t, err)
	assert.Empty(t, w.Events)
}
