package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"insighthub/internal/config"
	"insighthub/internal/model"
	"insighthub/internal/pkg/crypto"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "unit-test-secret-千万别用在生产"

// newAuthMockDB 用 sqlmock 替换全局数据库连接
func newAuthMockDB(t *testing.T) sqlmock.Sqlmock {
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

// expectSession 登记一次会话查询，按给定状态返回会话行
func expectSession(mock sqlmock.Sqlmock, token string, revoked bool, expireAt time.Time) {
	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expire_at", "revoked"}).
		AddRow("s-1", "u-1", crypto.HashAPIKey(token), expireAt, revoked)
	mock.ExpectQuery("SELECT .* FROM `sessions`").WillReturnRows(rows)
}

func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	old := config.Get()
	config.Set(&config.Config{
		JWT: config.JWTConfig{Secret: testJWTSecret, ExpireHours: 1},
	})
	t.Cleanup(func() { config.Set(old) })

	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(200, gin.H{
			"user_id": GetUserID(c),
			"org_id":  GetOrgID(c),
			"role":    GetUserRole(c),
		})
	})
	r.GET("/owner-only", AuthMiddleware(), OwnerMiddleware(), func(c *gin.Context) {
		c.String(200, "ok")
	})
	r.GET("/admin-only", AuthMiddleware(), AdminMiddleware(), func(c *gin.Context) {
		c.String(200, "ok")
	})
	return r
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	r := setupAuthRouter(t)
	w := doRequest(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareBadFormat(t *testing.T) {
	r := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	mock := newAuthMockDB(t)
	r := setupAuthRouter(t)

	token, err := crypto.GenerateToken("u-1", "o-1", "a@b.com", "admin", testJWTSecret, 1)
	require.NoError(t, err)
	expectSession(mock, token, false, time.Now().Add(time.Hour))

	w := doRequest(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u-1"`)
	assert.Contains(t, w.Body.String(), `"org_id":"o-1"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthMiddlewareForgedToken(t *testing.T) {
	r := setupAuthRouter(t)

	token, err := crypto.GenerateToken("u-1", "o-1", "a@b.com", "admin", "wrong-secret", 1)
	require.NoError(t, err)

	w := doRequest(r, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRevokedSession(t *testing.T) {
	mock := newAuthMockDB(t)
	r := setupAuthRouter(t)

	token, err := crypto.GenerateToken("u-1", "o-1", "a@b.com", "admin", testJWTSecret, 1)
	require.NoError(t, err)

	// 已撤销的会话：JWT 本身仍有效，但必须被拒绝
	expectSession(mock, token, true, time.Now().Add(time.Hour))
	w := doRequest(r, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "会话已失效")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthMiddlewareExpiredSession(t *testing.T) {
	mock := newAuthMockDB(t)
	r := setupAuthRouter(t)

	token, err := crypto.GenerateToken("u-1", "o-1", "a@b.com", "admin", testJWTSecret, 1)
	require.NoError(t, err)

	expectSession(mock, token, false, time.Now().Add(-time.Minute))
	w := doRequest(r, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthMiddlewareUnknownSession(t *testing.T) {
	mock := newAuthMockDB(t)
	r := setupAuthRouter(t)

	token, err := crypto.GenerateToken("u-1", "o-1", "a@b.com", "admin", testJWTSecret, 1)
	require.NoError(t, err)

	// 会话记录不存在（例如已被清理）
	mock.ExpectQuery("SELECT .* FROM `sessions`").WillReturnError(gorm.ErrRecordNotFound)
	w := doRequest(r, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerMiddleware(t *testing.T) {
	mock := newAuthMockDB(t)
	r := setupAuthRouter(t)

	ownerToken, _ := crypto.GenerateToken("u-1", "o-1", "a@b.com", "owner", testJWTSecret, 1)
	adminToken, _ := crypto.GenerateToken("u-2", "o-1", "c@d.com", "admin", testJWTSecret, 1)

	expectSession(mock, ownerToken, false, time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusOK, doRequest(r, "/owner-only", ownerToken).Code)

	expectSession(mock, adminToken, false, time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/owner-only", adminToken).Code)
}

func TestAdminMiddleware(t *testing.T) {
	mock := newAuthMockDB(t)
	r := setupAuthRouter(t)

	adminToken, _ := crypto.GenerateToken("u-2", "o-1", "c@d.com", "admin", testJWTSecret, 1)
	viewerToken, _ := crypto.GenerateToken("u-3", "o-1", "e@f.com", "viewer", testJWTSecret, 1)

	expectSession(mock, adminToken, false, time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusOK, doRequest(r, "/admin-only", adminToken).Code)

	expectSession(mock, viewerToken, false, time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/admin-only", viewerToken).Code)
}
