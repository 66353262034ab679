package chat

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	myredis "terrasapp_server/internal/dao/redis"
	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/errorx"
)

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.store.AddContact("alice", "bob")
	bob := f.connect("bob")
	f.connect("alice")
	bob.reset()

	require.NoError(t, f.server.UpdateStatus(f.ctx, "alice", request.UpdateStatusRequest{Status: model.StatusAway}))
	assert.Equal(t, []any{respond.UserStatusRespond{UserId: "alice", Status: model.StatusAway}}, bob.named(EventUserStatus))
	assert.Equal(t, model.StatusAway, f.user("alice").Status)

	requireCode(t, f.server.UpdateStatus(f.ctx, "alice", request.UpdateStatusRequest{Status: "sleeping"}), errorx.CodeInvalidParam)
}

func TestPresenceWithoutRedis(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	f.connect("bob")
	f.connect("alice")

	assert.Equal(t, []string{"alice", "bob"}, f.server.OnlineUsers(f.ctx))

	p, err := f.server.Presence(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, p.Status)
	require.NotNil(t, p.LastSeen)

	_, err = f.server.Presence(f.ctx, "nobody")
	requireCode(t, err, errorx.CodeNotFound)
}

func TestPresenceMirroredToRedis(t *testing.T) {
	f := newFixture(t, "alice")
	mr := miniredis.RunT(t)
	rc := myredis.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 2, 16, time.Minute)
	t.Cleanup(func() { _ = rc.Close() })
	f.server.presence = rc

	f.connect("alice")
	require.Eventually(t, func() bool {
		ids := f.server.OnlineUsers(f.ctx)
		return len(ids) == 1 && ids[0] == "alice"
	}, time.Second, 10*time.Millisecond)

	p, err := f.server.Presence(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnline, p.Status)

	// 镜像过期后退回数据库
	mr.FastForward(2 * time.Minute)
	p, err = f.server.Presence(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserId)
	assert.Equal(t, model.StatusOnline, p.Status)
}

// 多个 worker 下，同一用户的上下线镜像写入不会乱序
func TestPresenceMirrorKeepsOrderAcrossWorkers(t *testing.T) {
	f := newFixture(t, "alice")
	mr := miniredis.RunT(t)
	rc := myredis.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 15, 3000, time.Hour)
	f.server.presence = rc

	for i := 0; i < 50; i++ {
		f.server.Disconnect(f.ctx, f.connect("alice"))
	}
	require.NoError(t, rc.Close())

	members, err := mr.Members("online_users")
	if err != nil {
		// 集合为空时键不存在
		assert.ErrorIs(t, err, miniredis.ErrKeyNotFound)
	}
	assert.Empty(t, members)
	assert.Equal(t, model.StatusOffline, mr.HGet("presence_alice", "status"))
}
