package handler

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"insighthub/internal/config"
	"insighthub/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStatsCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	require.NoError(t, service.InitRedis(&config.RedisConfig{
		Enabled: true,
		Host:    mr.Host(),
		Port:    port,
	}))
	t.Cleanup(service.CloseRedis)
	return mr
}

func TestRevokeAPIKeyInvalidatesStats(t *testing.T) {
	mock := newMockDB(t)
	mr := setupStatsCache(t)

	// 预热统计缓存，吊销后必须失效
	service.SetCachedStats("o-1", map[string]interface{}{"api_keys": 2})
	require.True(t, mr.Exists(service.StatsCacheKey("o-1")))

	rows := sqlmock.NewRows([]string{"id", "org_id", "name", "revoked"}).
		AddRow("k-1", "o-1", "测试密钥", false)
	mock.ExpectQuery("SELECT .* FROM `api_keys`").WillReturnRows(rows)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `api_keys`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := newTestRouter()
	h := NewAPIKeyHandler()
	r.POST("/api-keys/:id/revoke", h.Revoke)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api-keys/k-1/revoke", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "已吊销")
	assert.False(t, mr.Exists(service.StatsCacheKey("o-1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAPIKeyAlreadyRevoked(t *testing.T) {
	mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "org_id", "name", "revoked"}).
		AddRow("k-1", "o-1", "测试密钥", true)
	mock.ExpectQuery("SELECT .* FROM `api_keys`").WillReturnRows(rows)

	r := newTestRouter()
	h := NewAPIKeyHandler()
	r.POST("/api-keys/:id/revoke", h.Revoke)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api-keys/k-1/revoke", nil)
	r.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "已被吊销")
	assert.NoError(t, mock.ExpectationsWereMet())
}
