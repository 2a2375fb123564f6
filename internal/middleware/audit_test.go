package middleware

import (
	"testing"

	"insighthub/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestParseActionFromPath(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		wantAction   string
		wantResource string
		wantID       string
	}{
		{
			name:         "create dashboard",
			method:       "POST",
			path:         "/api/admin/dashboards",
			wantAction:   model.ActionCreate,
			wantResource: model.ResourceDashboard,
		},
		{
			name:         "update dashboard by id",
			method:       "PUT",
			path:         "/api/admin/dashboards/550e8400-e29b-41d4-a716-446655440000",
			wantAction:   model.ActionUpdate,
			wantResource: model.ResourceDashboard,
			wantID:       "550e8400-e29b-41d4-a716-446655440000",
		},
		{
			name:         "delete widget",
			method:       "DELETE",
			path:         "/api/admin/dashboards/550e8400-e29b-41d4-a716-446655440000/widgets/660e8400-e29b-41d4-a716-446655440000",
			wantAction:   model.ActionDelete,
			wantResource: model.ResourceWidget,
			wantID:       "550e8400-e29b-41d4-a716-446655440000",
		},
		{
			name:         "invite member",
			method:       "POST",
			path:         "/api/admin/members",
			wantAction:   model.ActionInvite,
			wantResource: model.ResourceMember,
		},
		{
			name:         "revoke invitation",
			method:       "POST",
			path:         "/api/admin/invitations/550e8400-e29b-41d4-a716-446655440000/revoke",
			wantAction:   model.ActionRevoke,
			wantResource: model.ResourceMember,
			wantID:       "550e8400-e29b-41d4-a716-446655440000",
		},
		{
			name:         "reset member password",
			method:       "POST",
			path:         "/api/admin/members/550e8400-e29b-41d4-a716-446655440000/reset-password",
			wantAction:   model.ActionReset,
			wantResource: model.ResourceMember,
			wantID:       "550e8400-e29b-41d4-a716-446655440000",
		},
		{
			name:         "login",
			method:       "POST",
			path:         "/api/auth/login",
			wantAction:   model.ActionLogin,
			wantResource: model.ResourceUser,
		},
		{
			name:         "update organization",
			method:       "PUT",
			path:         "/api/admin/organization",
			wantAction:   model.ActionUpdate,
			wantResource: model.ResourceOrganization,
		},
		{
			name:         "pay invoice",
			method:       "POST",
			path:         "/api/admin/billing/invoices/550e8400-e29b-41d4-a716-446655440000/pay",
			wantAction:   model.ActionCreate,
			wantResource: model.ResourceBilling,
			wantID:       "550e8400-e29b-41d4-a716-446655440000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, resource, resourceID := parseActionFromPath(tt.method, tt.path)
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantResource, resource)
			assert.Equal(t, tt.wantID, resourceID)
		})
	}
}

func TestGenerateDescription(t *testing.T) {
	assert.Equal(t, "创建仪表盘", generateDescription(model.ActionCreate, model.ResourceDashboard))
	assert.Equal(t, "邀请成员", generateDescription(model.ActionInvite, model.ResourceMember))
	assert.Equal(t, "删除Webhook", generateDescription(model.ActionDelete, model.ResourceWebhook))
}

func TestMaskSensitiveData(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "登录密码",
			body: `{"email":"a@b.com","password":"secret123"}`,
			want: `{"email":"a@b.com","password":"***"}`,
		},
		{
			name: "修改密码",
			body: `{"old_password":"hunter2","new_password":"hunter3"}`,
			want: `{"old_password":"***","new_password":"***"}`,
		},
		{
			name: "带空格的 JSON",
			body: `{"password" : "with space"}`,
			want: `{"password":"***"}`,
		},
		{
			name: "无敏感字段",
			body: `{"name":"仪表盘"}`,
			want: `{"name":"仪表盘"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masked := maskSensitiveData(tt.body)
			assert.Equal(t, tt.want, masked)
			assert.NotContains(t, masked, "secret123")
			assert.NotContains(t, masked, "hunter2")
		})
	}
}

func TestTruncateStringHelper(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 10))
	assert.Equal(t, "abcde...", truncateString("abcdefgh", 5))
}
