// Package chat 实时消息、在线状态与通话信令的协调核心
// ChatServer 持有在线会话目录与通话表，每个进程构造一次并注入到 Handler 层。
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"terrasapp_server/internal/dao/mysql/repository"
	myredis "terrasapp_server/internal/dao/redis"
	"terrasapp_server/internal/infrastructure/mq"
	"terrasapp_server/internal/model"
)

// Verifier 根据握手凭证解析用户
type Verifier interface {
	Verify(ctx context.Context, token string) (*model.UserInfo, error)
}

// Options 可选依赖，零值可用
type Options struct {
	// Presence 在线状态镜像，nil 表示不写 Redis
	Presence myredis.PresenceService
	// Events 领域事件发布者，nil 表示不发布
	Events mq.EventPublisher
	Conn   ConnOptions
	Now    func() time.Time
}

type ChatServer struct {
	directory *Directory
	calls     *CallTable
	repos     *repository.Repositories
	verifier  Verifier
	presence  myredis.PresenceService
	events    mq.EventPublisher
	validate  *validator.Validate
	connOpts  ConnOptions
	now       func() time.Time

	statusMu [64]sync.Mutex

	closeMu sync.Mutex
	closing bool
	active  sync.WaitGroup // 正在运行的 ServeConn
}

func NewChatServer(repos *repository.Repositories, verifier Verifier, opts Options) *ChatServer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ChatServer{
		directory: NewDirectory(),
		calls:     NewCallTable(),
		repos:     repos,
		verifier:  verifier,
		presence:  opts.Presence,
		events:    opts.Events,
		validate:  newValidator(),
		connOpts:  opts.Conn.withDefaults(),
		now:       now,
	}
}

func (s *ChatServer) Directory() *Directory { return s.directory }
func (s *ChatServer) Calls() *CallTable     { return s.calls }

// ConnOptions 新连接使用的参数
func (s *ChatServer) ConnOptions() ConnOptions { return s.connOpts }

// publish 发布领域事件，失败只记录日志
func (s *ChatServer) publish(ctx context.Context, eventType, key string, payload any) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, mq.DomainEvent{
		Type:       eventType,
		Key:        key,
		OccurredAt: s.now(),
		Payload:    payload,
	})
	if err != nil {
		zap.L().Warn("publish domain event failed", zap.String("type", eventType), zap.String("key", key), zap.Error(err))
	}
}
