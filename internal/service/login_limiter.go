package service

import (
	"sync"
	"time"

	"insighthub/internal/config"
)

// LoginAttempt 登录尝试记录
type LoginAttempt struct {
	FailCount   int       // 失败次数
	LastAttempt time.Time // 最后尝试时间
	LockedUntil time.Time // 锁定截止时间
}

// LoginLimiter 登录限制器
// 账号维度和 IP 维度各一个实例，区别在于成功后是否完全清除计数
type LoginLimiter struct {
	attempts     map[string]*LoginAttempt
	mu           sync.RWMutex
	maxAttempts  int           // 最大尝试次数
	lockDuration time.Duration // 锁定时长
	resetAfter   time.Duration // 重置时间（无失败后多久重置计数）
	clearOnSuccess bool        // 成功后清除全部计数（账号维度）还是递减（IP 维度）
}

var (
	defaultLoginLimiter *LoginLimiter
	defaultIPLimiter    *LoginLimiter
	loginLimiterOnce    sync.Once
	ipLimiterOnce       sync.Once
)

// GetLoginLimiter 获取账号登录限制器单例
func GetLoginLimiter() *LoginLimiter {
	loginLimiterOnce.Do(func() {
		maxAttempts, lockMinutes := 5, 15
		if cfg := config.Get(); cfg != nil {
			maxAttempts = cfg.Security.MaxLoginAttempts
			lockMinutes = cfg.Security.LoginLockMinutes
		}
		defaultLoginLimiter = NewLoginLimiter(maxAttempts, time.Duration(lockMinutes)*time.Minute, 30*time.Minute, true)
	})
	return defaultLoginLimiter
}

// GetIPLoginLimiter 获取 IP 登录限制器单例（防止同一 IP 大量尝试不同账号）
func GetIPLoginLimiter() *LoginLimiter {
	ipLimiterOnce.Do(func() {
		maxAttempts, lockMinutes := 20, 30
		if cfg := config.Get(); cfg != nil {
			maxAttempts = cfg.Security.IPMaxAttempts
			lockMinutes = cfg.Security.IPLockMinutes
		}
		defaultIPLimiter = NewLoginLimiter(maxAttempts, time.Duration(lockMinutes)*time.Minute, time.Hour, false)
	})
	return defaultIPLimiter
}

// NewLoginLimiter 创建登录限制器
func NewLoginLimiter(maxAttempts int, lockDuration, resetAfter time.Duration, clearOnSuccess bool) *LoginLimiter {
	ll := &LoginLimiter{
		attempts:       make(map[string]*LoginAttempt),
		maxAttempts:    maxAttempts,
		lockDuration:   lockDuration,
		resetAfter:     resetAfter,
		clearOnSuccess: clearOnSuccess,
	}
	go ll.cleanup()
	return ll
}

// IsLocked 检查是否被锁定
func (ll *LoginLimiter) IsLocked(key string) (bool, time.Duration) {
	ll.mu.RLock()
	defer ll.mu.RUnlock()

	attempt, exists := ll.attempts[key]
	if !exists {
		return false, 0
	}

	if time.Now().Before(attempt.LockedUntil) {
		return true, time.Until(attempt.LockedUntil)
	}

	return false, 0
}

// RecordFailure 记录登录失败
func (ll *LoginLimiter) RecordFailure(key string) (locked bool, remaining time.Duration) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	now := time.Now()
	attempt, exists := ll.attempts[key]

	if !exists {
		attempt = &LoginAttempt{}
		ll.attempts[key] = attempt
	}

	// 如果已过重置时间，重置计数
	if now.Sub(attempt.LastAttempt) > ll.resetAfter {
		attempt.FailCount = 0
	}

	attempt.FailCount++
	attempt.LastAttempt = now

	// 达到最大尝试次数，锁定
	if attempt.FailCount >= ll.maxAttempts {
		attempt.LockedUntil = now.Add(ll.lockDuration)
		return true, ll.lockDuration
	}

	return false, 0
}

// RecordSuccess 记录登录成功
func (ll *LoginLimiter) RecordSuccess(key string) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.clearOnSuccess {
		delete(ll.attempts, key)
		return
	}

	// IP 维度成功时只减少计数，不完全清除
	if attempt, exists := ll.attempts[key]; exists {
		attempt.FailCount--
		if attempt.FailCount <= 0 {
			delete(ll.attempts, key)
		}
	}
}

// GetRemainingAttempts 获取剩余尝试次数
func (ll *LoginLimiter) GetRemainingAttempts(key string) int {
	ll.mu.RLock()
	defer ll.mu.RUnlock()

	attempt, exists := ll.attempts[key]
	if !exists {
		return ll.maxAttempts
	}

	// 如果已过重置时间
	if time.Since(attempt.LastAttempt) > ll.resetAfter {
		return ll.maxAttempts
	}

	remaining := ll.maxAttempts - attempt.FailCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// cleanup 定期清理过期记录
func (ll *LoginLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		ll.mu.Lock()
		now := time.Now()
		for key, attempt := range ll.attempts {
			// 清理已解锁且超过重置时间的记录
			if now.After(attempt.LockedUntil) && now.Sub(attempt.LastAttempt) > ll.resetAfter {
				delete(ll.attempts, key)
			}
		}
		ll.mu.Unlock()
	}
}
