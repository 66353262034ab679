// Package redis 定义缓存服务接口
// Service 层依赖接口而非具体 Redis 实现
package redis

import (
	"context"
	"time"
)

// CacheService 基础缓存操作
type CacheService interface {
	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值（键不存在返回空字符串和 nil）
	Get(ctx context.Context, key string) (string, error)
	// Delete 删除键（如果存在）
	Delete(ctx context.Context, key string) error

	// AddToSet 向集合添加成员
	AddToSet(ctx context.Context, key string, members ...interface{}) error
	// GetSetMembers 获取集合中的所有成员
	GetSetMembers(ctx context.Context, key string) ([]string, error)
	// RemoveFromSet 从集合中移除成员
	RemoveFromSet(ctx context.Context, key string, members ...interface{}) error
}

// AsyncCacheService 提供异步任务提交能力，用于非阻塞的缓存更新
type AsyncCacheService interface {
	CacheService
	// SubmitTask 提交异步缓存任务，队列满时同步执行
	SubmitTask(action func())
	// SubmitKeyedTask 提交需要按 key 保序的异步任务
	SubmitKeyedTask(key string, action func())
}

// Presence 在线状态镜像
type Presence struct {
	UserId   string    `json:"userId"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"lastSeen"`
}

// PresenceService 在线状态镜像
// 权威数据在数据库，这里是供 REST 查询的带过期时间的副本
type PresenceService interface {
	AsyncCacheService
	// SetPresence 写入状态；offline 时从在线集合移除
	// LastSeen 早于已存储值的写入被忽略，返回是否生效
	SetPresence(ctx context.Context, p Presence) (bool, error)
	// GetPresence 读取状态，不存在时返回 nil, nil
	GetPresence(ctx context.Context, userId string) (*Presence, error)
	// OnlineUsers 返回在线集合中状态键仍存在的用户
	OnlineUsers(ctx context.Context) ([]string, error)
}
