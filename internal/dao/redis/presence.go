package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/constants"
	"terrasapp_server/pkg/errorx"
)

func presenceKey(userId string) string {
	return constants.PRESENCE_KEY_PREFIX + userId
}

// 状态键为 hash{status, lastSeen(unix 微秒)}
// KEYS[1] 状态键 KEYS[2] 在线集合
// ARGV: status, lastSeen, ttl(毫秒), userId, offline 状态名
var setPresenceScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'lastSeen')
if cur and tonumber(cur) > tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[1], 'lastSeen', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
if ARGV[1] == ARGV[5] then
	redis.call('SREM', KEYS[2], ARGV[4])
else
	redis.call('SADD', KEYS[2], ARGV[4])
end
return 1
`)

// SetPresence 原子地写入状态键并维护在线集合
func (r *RedisCache) SetPresence(ctx context.Context, p Presence) (bool, error) {
	applied, err := setPresenceScript.Run(ctx, r.client,
		[]string{presenceKey(p.UserId), constants.ONLINE_USERS_KEY},
		p.Status, p.LastSeen.UnixMicro(), r.presenceTTL.Milliseconds(), p.UserId, model.StatusOffline,
	).Int()
	if err != nil {
		return false, errorx.Wrapf(err, errorx.CodeCacheError, "redis set presence %s", p.UserId)
	}
	return applied == 1, nil
}

// GetPresence 读取在线状态镜像
func (r *RedisCache) GetPresence(ctx context.Context, userId string) (*Presence, error) {
	fields, err := r.client.HGetAll(ctx, presenceKey(userId)).Result()
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "redis get presence %s", userId)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	micros, err := strconv.ParseInt(fields["lastSeen"], 10, 64)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeCacheError, "parse presence %s", userId)
	}
	return &Presence{
		UserId:   userId,
		Status:   fields["status"],
		LastSeen: time.UnixMicro(micros).UTC(),
	}, nil
}

// OnlineUsers 返回在线集合中状态键未过期的用户
// 在线集合本身没有过期时间，顺带清理状态键已过期的成员
func (r *RedisCache) OnlineUsers(ctx context.Context) ([]string, error) {
	members, err := r.GetSetMembers(ctx, constants.ONLINE_USERS_KEY)
	if err != nil || len(members) == 0 {
		return members, err
	}

	exists := make([]*redis.IntCmd, len(members))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range members {
			exists[i] = pipe.Exists(ctx, presenceKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeCacheError, "redis check presence keys")
	}

	online := make([]string, 0, len(members))
	var expired []interface{}
	for i, id := range members {
		if exists[i].Val() > 0 {
			online = append(online, id)
		} else {
			expired = append(expired, id)
		}
	}
	if len(expired) > 0 {
		if err := r.RemoveFromSet(ctx, constants.ONLINE_USERS_KEY, expired...); err != nil {
			return nil, err
		}
	}
	return online, nil
}
