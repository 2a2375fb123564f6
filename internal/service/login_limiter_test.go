package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginLimiterLockAfterMaxAttempts(t *testing.T) {
	ll := NewLoginLimiter(3, 10*time.Minute, time.Hour, true)

	locked, _ := ll.IsLocked("a@b.com")
	assert.False(t, locked)
	assert.Equal(t, 3, ll.GetRemainingAttempts("a@b.com"))

	ll.RecordFailure("a@b.com")
	ll.RecordFailure("a@b.com")
	assert.Equal(t, 1, ll.GetRemainingAttempts("a@b.com"))

	locked, remaining := ll.RecordFailure("a@b.com")
	assert.True(t, locked)
	assert.Greater(t, remaining, time.Duration(0))

	locked, _ = ll.IsLocked("a@b.com")
	assert.True(t, locked)
}

func TestLoginLimiterClearOnSuccess(t *testing.T) {
	ll := NewLoginLimiter(3, 10*time.Minute, time.Hour, true)

	ll.RecordFailure("a@b.com")
	ll.RecordFailure("a@b.com")
	ll.RecordSuccess("a@b.com")

	// 成功登录后失败记录清零
	assert.Equal(t, 3, ll.GetRemainingAttempts("a@b.com"))
}

func TestLoginLimiterDecrementOnSuccess(t *testing.T) {
	// IP 维度成功只减一次计数，防止多账号轮试
	ll := NewLoginLimiter(5, 10*time.Minute, time.Hour, false)

	ll.RecordFailure("1.2.3.4")
	ll.RecordFailure("1.2.3.4")
	ll.RecordSuccess("1.2.3.4")

	assert.Equal(t, 4, ll.GetRemainingAttempts("1.2.3.4"))
}

func TestLoginLimiterKeysIndependent(t *testing.T) {
	ll := NewLoginLimiter(3, 10*time.Minute, time.Hour, true)

	ll.RecordFailure("a@b.com")
	ll.RecordFailure("a@b.com")
	ll.RecordFailure("a@b.com")

	locked, _ := ll.IsLocked("c@d.com")
	assert.False(t, locked)
}
