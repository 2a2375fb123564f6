package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"insighthub/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
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

func TestGenerateSignature(t *testing.T) {
	payload := []byte(`{"event":"webhook.test"}`)
	secret := "whsec_abc"

	got := GenerateSignature(secret, payload)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	assert.Equal(t, hex.EncodeToString(h.Sum(nil)), got)

	// 不同密钥签名不同
	assert.NotEqual(t, got, GenerateSignature("whsec_other", payload))
}

func TestWebhookPayloadShape(t *testing.T) {
	payload := WebhookPayload{
		Event:     model.EventDashboardCreated,
		Timestamp: 1700000000,
		OrgID:     "org-1",
		Data:      map[string]interface{}{"dashboard_id": "d-1"},
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "dashboard.created", decoded["event"])
	assert.Equal(t, "org-1", decoded["org_id"])
	assert.Equal(t, float64(1700000000), decoded["timestamp"])
}

func TestSendTestDeliversSignedPayload(t *testing.T) {
	mock := newMockDB(t)

	var gotSignature string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// 投递记录入库 + 更新失败计数
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `webhook_deliveries`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `webhooks`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	webhook := model.Webhook{
		OrgID:  "org-1",
		URL:    server.URL,
		Secret: "whsec_test",
		Status: model.WebhookStatusActive,
	}
	webhook.ID = "wh-1"
	require.NoError(t, webhook.SetEvents([]string{"webhook.test"}))

	s := NewWebhookService()
	delivery := s.SendTest(webhook)

	assert.True(t, delivery.Success)
	assert.Equal(t, http.StatusOK, delivery.ResponseStatus)
	assert.Equal(t, "webhook.test", delivery.EventType)

	// 签名必须能用密钥和原始报文复算出来
	assert.Equal(t, GenerateSignature("whsec_test", gotBody), gotSignature)

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, model.EventWebhookTest, payload.Event)
	assert.Equal(t, "org-1", payload.OrgID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendTestRecordsFailure(t *testing.T) {
	mock := newMockDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `webhook_deliveries`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `webhooks`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	webhook := model.Webhook{
		OrgID:  "org-1",
		URL:    server.URL,
		Secret: "whsec_test",
		Status: model.WebhookStatusActive,
	}
	webhook.ID = "wh-1"

	s := NewWebhookService()
	delivery := s.SendTest(webhook)

	assert.False(t, delivery.Success)
	assert.Equal(t, http.StatusInternalServerError, delivery.ResponseStatus)

	assert.NoError(t, mock.ExpectationsWereMet())
}
