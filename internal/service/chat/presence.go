package chat

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	myredis "terrasapp_server/internal/dao/redis"
	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/internal/infrastructure/mq"
	"terrasapp_server/internal/model"
)

// Typing 转发输入状态，接收方不在线时丢弃
func (s *ChatServer) Typing(senderId, event string, req request.TypingRequest) error {
	if err := s.check(req); err != nil {
		return err
	}
	s.directory.SendTo(req.RecipientId, event, respond.TypingRespond{
		ConversationId: req.ConversationId,
		UserId:         senderId,
	})
	return nil
}

// UpdateStatus 用户主动修改在线状态
func (s *ChatServer) UpdateStatus(ctx context.Context, userId string, req request.UpdateStatusRequest) error {
	if err := s.check(req); err != nil {
		return err
	}
	return s.setStatus(ctx, userId, req.Status)
}

// setStatus 持久化状态与 last_seen，然后通知该用户自己联系人列表中在线的人
// 持久化失败时不广播
func (s *ChatServer) setStatus(ctx context.Context, userId, status string) error {
	mu := s.statusLock(userId)
	mu.Lock()
	defer mu.Unlock()
	return s.applyStatus(ctx, userId, status)
}

// markOffline 断线后的下线写入
// 与同一用户的其他状态写入串行；用户已经重新连接时跳过
func (s *ChatServer) markOffline(ctx context.Context, userId string) {
	mu := s.statusLock(userId)
	mu.Lock()
	defer mu.Unlock()
	if _, live := s.directory.Lookup(userId); live {
		zap.L().Info("user reconnected during cleanup, keep online", zap.String("user_id", userId))
		return
	}
	if err := s.applyStatus(ctx, userId, model.StatusOffline); err != nil {
		zap.L().Error("update user status failed", zap.String("user_id", userId), zap.String("status", model.StatusOffline), zap.Error(err))
	}
}

// statusLock 按用户分段的状态写入锁
func (s *ChatServer) statusLock(userId string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userId))
	return &s.statusMu[h.Sum32()%uint32(len(s.statusMu))]
}

func (s *ChatServer) applyStatus(ctx context.Context, userId, status string) error {
	now := s.now()
	if err := s.repos.User.UpdatePresence(ctx, userId, status, now); err != nil {
		return err
	}
	s.mirrorPresence(userId, status, now)
	s.broadcastStatus(ctx, userId, status)
	s.publish(ctx, mq.EventPresenceChanged, userId, respond.UserStatusRespond{UserId: userId, Status: status})
	return nil
}

// trySetStatus 连接与通话生命周期中的副作用，失败只记录日志
func (s *ChatServer) trySetStatus(ctx context.Context, userId, status string) {
	if err := s.setStatus(ctx, userId, status); err != nil {
		zap.L().Error("update user status failed", zap.String("user_id", userId), zap.String("status", status), zap.Error(err))
	}
}

// broadcastStatus 沿联系人列表推送 user:status，不查反向关系
func (s *ChatServer) broadcastStatus(ctx context.Context, userId, status string) {
	contacts, err := s.repos.User.FindContactIds(ctx, userId)
	if err != nil {
		zap.L().Warn("load contacts for status broadcast failed", zap.String("user_id", userId), zap.Error(err))
		return
	}
	payload := respond.UserStatusRespond{UserId: userId, Status: status}
	for _, contactId := range contacts {
		s.directory.SendTo(contactId, EventUserStatus, payload)
	}
}

// mirrorPresence 异步写入 Redis 镜像
func (s *ChatServer) mirrorPresence(userId, status string, at time.Time) {
	if s.presence == nil {
		return
	}
	p := myredis.Presence{UserId: userId, Status: status, LastSeen: at}
	// 同一用户的写入按提交顺序执行；即便乱序，较旧的 LastSeen 也不会覆盖
	s.presence.SubmitKeyedTask(userId, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := s.presence.SetPresence(ctx, p); err != nil {
			zap.L().Warn("mirror presence failed", zap.String("user_id", userId), zap.Error(err))
		}
	})
}

// OnlineUsers 在线用户列表
// 配置了 Redis 时读取全局在线集合，读取失败退回到本进程的会话目录
func (s *ChatServer) OnlineUsers(ctx context.Context) []string {
	if s.presence != nil {
		ids, err := s.presence.OnlineUsers(ctx)
		if err == nil {
			sort.Strings(ids)
			return ids
		}
		zap.L().Warn("read online users from redis failed", zap.Error(err))
	}
	return s.directory.OnlineUserIds()
}

// Presence 查询单个用户的在线状态，Redis 镜像缺失时读数据库
func (s *ChatServer) Presence(ctx context.Context, userId string) (*respond.PresenceRespond, error) {
	if s.presence != nil {
		p, err := s.presence.GetPresence(ctx, userId)
		if err != nil {
			zap.L().Warn("read presence from redis failed", zap.String("user_id", userId), zap.Error(err))
		} else if p != nil {
			lastSeen := p.LastSeen
			return &respond.PresenceRespond{UserId: p.UserId, Status: p.Status, LastSeen: &lastSeen}, nil
		}
	}

	user, err := s.repos.User.FindByUuid(ctx, userId)
	if err != nil {
		return nil, err
	}
	rsp := &respond.PresenceRespond{UserId: user.Uuid, Status: user.Status}
	if user.LastSeen.Valid {
		rsp.LastSeen = &user.LastSeen.Time
	}
	return rsp, nil
}
