package service

import (
	"strconv"
	"testing"

	"insighthub/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	require.NoError(t, InitRedis(&config.RedisConfig{
		Enabled: true,
		Host:    mr.Host(),
		Port:    port,
	}))
	t.Cleanup(CloseRedis)
	return mr
}

func TestStatsCacheRoundTrip(t *testing.T) {
	setupMiniRedis(t)

	SetCachedStats("org-1", map[string]interface{}{"dashboards": 3})

	var cached map[string]interface{}
	require.True(t, GetCachedStats("org-1", &cached))
	assert.Equal(t, float64(3), cached["dashboards"])

	// 其他组织互不可见
	assert.False(t, GetCachedStats("org-2", &cached))
}

func TestInvalidateStats(t *testing.T) {
	mr := setupMiniRedis(t)

	SetCachedStats("org-1", map[string]interface{}{"members": 5})
	assert.True(t, mr.Exists(StatsCacheKey("org-1")))

	InvalidateStats("org-1")
	assert.False(t, mr.Exists(StatsCacheKey("org-1")))

	var cached map[string]interface{}
	assert.False(t, GetCachedStats("org-1", &cached))
}

func TestStatsCacheDisabled(t *testing.T) {
	// 未配置 Redis 时全部静默降级
	CloseRedis()

	SetCachedStats("org-1", map[string]interface{}{"x": 1})
	var cached map[string]interface{}
	assert.False(t, GetCachedStats("org-1", &cached))
	InvalidateStats("org-1")
}
