package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"insighthub/internal/config"
	"insighthub/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB 用 sqlmock 替换全局数据库连接
func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	old := model.DB
	model.DB = gdb
	t.Cleanup(func() { model.DB = old })

	return mock
}

// newTestRouter 带伪造登录态的测试路由
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u-1")
		c.Set("org_id", "o-1")
		c.Set("email", "a@b.com")
		c.Set("role", "owner")
	})
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter()
	h := NewAuthHandler()
	r.POST("/register", h.Register)

	tests := []struct {
		name string
		body string
	}{
		{"invalid email", `{"email":"not-an-email","password":"secret123","name":"张三"}`},
		{"short password", `{"email":"a@b.com","password":"123","name":"张三"}`},
		{"missing name", `{"email":"a@b.com","password":"secret123"}`},
		{"broken json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestChangePasswordValidation(t *testing.T) {
	r := newTestRouter()
	h := NewAuthHandler()
	r.POST("/password", h.ChangePassword)

	// 新密码不足6位
	w := postJSON(r, "/password", `{"old_password":"old123456","new_password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateWebhookValidation(t *testing.T) {
	r := newTestRouter()
	h := NewWebhookHandler()
	r.POST("/webhooks", h.Create)

	tests := []struct {
		name string
		body string
	}{
		{"not a url", `{"url":"ftp","events":["dashboard.created"]}`},
		{"unknown event", `{"url":"https://example.com/hook","events":["dashboard.renamed"]}`},
		{"empty events", `{"url":"https://example.com/hook","events":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/webhooks", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

// setTestConfig 提供空的全局配置，避免依赖 config.Get() 的构造函数崩溃
func setTestConfig(t *testing.T) {
	t.Helper()
	old := config.Get()
	config.Set(&config.Config{})
	t.Cleanup(func() { config.Set(old) })
}

func TestInviteValidation(t *testing.T) {
	setTestConfig(t)

	r := newTestRouter()
	h := NewMemberHandler()
	r.POST("/members", h.Invite)

	// 不能直接邀请 Owner
	w := postJSON(r, "/members", `{"email":"x@y.com","role":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 非法角色
	w = postJSON(r, "/members", `{"email":"x@y.com","role":"super"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportFormatValidation(t *testing.T) {
	r := newTestRouter()
	h := NewExportHandler()
	r.GET("/export", h.ExportAuditLogs)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/export?format=xml", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
