package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func putJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateRoleOwnershipTransfer(t *testing.T) {
	setTestConfig(t)
	mock := newMockDB(t)

	// 目标成员是管理员
	mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "org_id", "role"}).AddRow("u-2", "o-1", "admin"))
	// 操作者是所有者
	mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "org_id", "role"}).AddRow("u-1", "o-1", "owner"))
	// 转让：同一事务里新所有者升级、原所有者降级
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := newTestRouter()
	h := NewMemberHandler()
	r.PUT("/members/:id/role", h.UpdateRole)

	w := putJSON(r, "/members/u-2/role", `{"role":"owner"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "角色变更成功")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoleKeepsLastOwner(t *testing.T) {
	setTestConfig(t)
	mock := newMockDB(t)

	// 目标成员就是所有者本人，试图降级
	mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "org_id", "role"}).AddRow("u-1", "o-1", "owner"))
	mock.ExpectQuery("SELECT .* FROM `users`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "org_id", "role"}).AddRow("u-1", "o-1", "owner"))
	// 组织只剩一个所有者
	mock.ExpectQuery("SELECT count.* FROM `users`").WillReturnRows(
		sqlmock.NewRows([]string{"count"}).AddRow(1))

	r := newTestRouter()
	h := NewMemberHandler()
	r.PUT("/members/:id/role", h.UpdateRole)

	w := putJSON(r, "/members/u-1/role", `{"role":"admin"}`)
	assert.Contains(t, w.Body.String(), "至少保留一个所有者")
	assert.NoError(t, mock.ExpectationsWereMet())
}
