package middleware

import (
	"sync"
	"time"

	"insighthub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RateLimiter 基于滑动窗口的内存速率限制器，按客户端 IP 计数
type RateLimiter struct {
	hits   map[string][]time.Time
	mu     sync.Mutex
	limit  int
	window time.Duration
}

// NewRateLimiter 创建速率限制器
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go rl.prune()
	return rl
}

// NewGeneralLimiter API 通用层级：每分钟 100 次
func NewGeneralLimiter() *RateLimiter {
	return NewRateLimiter(100, time.Minute)
}

// NewAuthLimiter 认证层级：登录/注册每分钟 10 次，配合登录锁定
func NewAuthLimiter() *RateLimiter {
	return NewRateLimiter(10, time.Minute)
}

// NewExportLimiter 导出层级：审计日志导出开销大，每分钟 5 次
func NewExportLimiter() *RateLimiter {
	return NewRateLimiter(5, time.Minute)
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	kept := rl.hits[key][:0]
	for _, t := range rl.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.hits[key] = kept
		return false
	}

	rl.hits[key] = append(kept, time.Now())
	return true
}

// prune 定期清理不再活跃的 IP 记录
func (rl *RateLimiter) prune() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.window)
		for key, times := range rl.hits {
			kept := times[:0]
			for _, t := range times {
				if t.After(cutoff) {
					kept = append(kept, t)
				}
			}
			if len(kept) == 0 {
				delete(rl.hits, key)
			} else {
				rl.hits[key] = kept
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware 速率限制中间件
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			response.Error(c, 429, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}
