// Package redis 封装 Redis 连接初始化
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"terrasapp_server/internal/config"
	"terrasapp_server/pkg/constants"
)

// Init 按配置创建客户端、检查连通性并返回缓存服务
func Init(ctx context.Context, conf *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.Host + ":" + strconv.Itoa(conf.Port),
		Password:     conf.Password,
		DB:           conf.Db,
		PoolSize:     50,
		MinIdleConns: 15, // 与默认 worker 数量匹配
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	ttl := time.Duration(conf.PresenceTTL) * time.Minute
	if ttl <= 0 {
		ttl = constants.PRESENCE_TTL_MINUTES * time.Minute
	}
	workers, buffer := conf.WorkerNum, conf.TaskBuffer
	if workers <= 0 {
		workers = 15
	}
	if buffer <= 0 {
		buffer = 3000
	}
	return NewRedisCache(client, workers, buffer, ttl), nil
}
