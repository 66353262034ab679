// Package redis 提供 CacheService 接口的 Redis 实现
package redis

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"terrasapp_server/pkg/errorx"
)

// RedisCache Redis 缓存实现
// 同时实现 CacheService、AsyncCacheService 与 PresenceService，
// 调用方按需声明最小接口
type RedisCache struct {
	client      *redis.Client
	queues      []chan func() // 每个 worker 独占一个队列
	next        uint32        // SubmitTask 轮询下标
	presenceTTL time.Duration

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRedisCache 创建 Redis 缓存实例并启动 worker pool
// taskChanSize 为所有 worker 队列的总容量
func NewRedisCache(client *redis.Client, workerNum, taskChanSize int, presenceTTL time.Duration) *RedisCache {
	if workerNum <= 0 {
		workerNum = 1
	}
	perWorker := taskChanSize / workerNum
	if perWorker <= 0 {
		perWorker = 1
	}
	rc := &RedisCache{
		client:      client,
		queues:      make([]chan func(), workerNum),
		presenceTTL: presenceTTL,
	}
	for i := range rc.queues {
		rc.queues[i] = make(chan func(), perWorker)
		rc.wg.Add(1)
		go rc.startWorker(rc.queues[i])
	}
	zap.L().Info("redis cache workers started", zap.Int("workers", workerNum), zap.Int("buffer", taskChanSize))
	return rc
}

// startWorker 单个 worker 消费循环，panic 后在同一队列上重启
func (r *RedisCache) startWorker(queue chan func()) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("redis worker panic", zap.Any("recover", rec))
			r.wg.Add(1)
			go r.startWorker(queue)
		}
		r.wg.Done()
	}()

	for task := range queue {
		if task != nil {
			task()
		}
	}
}

// Close 停止接收任务，等待队列中的任务执行完毕后关闭连接
func (r *RedisCache) Close() error {
	var err error
	r.closeOnce.Do(func() {
		for _, q := range r.queues {
			close(q)
		}
		r.wg.Wait()
		err = r.client.Close()
	})
	return err
}

// ==================== String / Key 操作 ====================

func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis set key %s", key)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errorx.Wrapf(err, errorx.CodeCacheError, "redis get key %s", key)
	}
	return value, nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Unlink(ctx, key).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis unlink key %s", key)
	}
	return nil
}

// ==================== Set 集合操作 ====================

func (r *RedisCache) AddToSet(ctx context.Context, key string, members ...interface{}) error {
	if err := r.client.SAdd(ctx, key, members...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis sadd key %s", key)
	}
	return nil
}

func (r *RedisCache) GetSetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "redis smembers key %s", key)
	}
	return members, nil
}

func (r *RedisCache) RemoveFromSet(ctx context.Context, key string, members ...interface{}) error {
	if err := r.client.SRem(ctx, key, members...).Err(); err != nil {
		return errorx.Wrapf(err, errorx.CodeCacheError, "redis srem key %s", key)
	}
	return nil
}

// ==================== 异步任务 ====================

// SubmitTask 提交无顺序要求的异步任务，轮询分配 worker
func (r *RedisCache) SubmitTask(action func()) {
	defer recoverClosed()
	q := r.queues[atomic.AddUint32(&r.next, 1)%uint32(len(r.queues))]
	select {
	case q <- action:
	default:
		// 降级：同步执行
		zap.L().Warn("redis cache task channel full, executing synchronously")
		action()
	}
}

// SubmitKeyedTask 同一 key 的任务固定由同一个 worker 按提交顺序执行
// 队列满时阻塞等待，不能同步执行，否则会越过队列中更早的任务
func (r *RedisCache) SubmitKeyedTask(key string, action func()) {
	defer recoverClosed()
	q := r.queues[shardOf(key, len(r.queues))]
	select {
	case q <- action:
	default:
		zap.L().Warn("redis cache task channel full, waiting", zap.String("key", key))
		q <- action
	}
}

func shardOf(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

// recoverClosed Close 之后提交的任务直接丢弃
func recoverClosed() {
	if rec := recover(); rec != nil {
		zap.L().Warn("redis cache task submitted after close")
	}
}

var _ PresenceService = (*RedisCache)(nil)
