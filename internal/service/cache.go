package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"insighthub/internal/config"

	"github.com/redis/go-redis/v9"
)

// 统计数据缓存，写操作后调用 InvalidateStats 让缓存失效

var redisClient *redis.Client

const statsCacheTTL = 5 * time.Minute

// InitRedis 初始化 Redis 连接
func InitRedis(cfg *config.RedisConfig) error {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}

	redisClient = client
	return nil
}

// CloseRedis 关闭 Redis 连接
func CloseRedis() {
	if redisClient != nil {
		redisClient.Close()
		redisClient = nil
	}
}

// StatsCacheKey 组织统计数据的缓存键
func StatsCacheKey(orgID string) string {
	return "insighthub:stats:" + orgID
}

// GetCachedStats 读取组织统计缓存，未命中返回 false
func GetCachedStats(orgID string, out interface{}) bool {
	if redisClient == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	data, err := redisClient.Get(ctx, StatsCacheKey(orgID)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// SetCachedStats 写入组织统计缓存
func SetCachedStats(orgID string, value interface{}) {
	if redisClient == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := redisClient.Set(ctx, StatsCacheKey(orgID), data, statsCacheTTL).Err(); err != nil {
		log.Printf("写入统计缓存失败: %v", err)
	}
}

// InvalidateStats 使组织统计缓存失效（每次写操作后调用一次）
func InvalidateStats(orgID string) {
	if redisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := redisClient.Del(ctx, StatsCacheKey(orgID)).Err(); err != nil {
		log.Printf("清除统计缓存失败: %v", err)
	}
}
