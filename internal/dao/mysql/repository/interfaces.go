// Package repository 定义数据访问层接口和聚合结构
// 所有 Repository 接口在此文件定义，gorm 实现在各自的文件中，
// 进程内实现见 internal/dao/memory
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"terrasapp_server/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	// FindByUuid 根据 uuid 查找用户，不存在返回 CodeNotFound
	FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error)
	// FindByEmail 根据邮箱查找用户
	FindByEmail(ctx context.Context, email string) (*model.UserInfo, error)
	// FindByUuids 批量查找用户，不存在的 uuid 被忽略
	FindByUuids(ctx context.Context, uuids []string) ([]model.UserInfo, error)
	// Create 创建用户
	Create(ctx context.Context, user *model.UserInfo) error
	// UpdatePresence 更新在线状态并刷新 last_seen
	UpdatePresence(ctx context.Context, uuid, status string, lastSeen time.Time) error
	// FindContactIds 返回用户自己联系人列表中状态正常的联系人
	FindContactIds(ctx context.Context, uuid string) ([]string, error)
	// AddContact 将 contactId 加入 userId 的联系人列表，已存在时不做修改
	AddContact(ctx context.Context, userId, contactId string) error
	// RemoveContact 从联系人列表移除，返回是否存在
	RemoveContact(ctx context.Context, userId, contactId string) (bool, error)
}

// ConversationRepository 会话数据访问接口
// 返回的 Conversation 均已加载 Participants
type ConversationRepository interface {
	// FindByUuid 根据 uuid 查找会话
	FindByUuid(ctx context.Context, uuid string) (*model.Conversation, error)
	// FindDirect 查找两个用户之间的单聊会话
	FindDirect(ctx context.Context, userOneId, userTwoId string) (*model.Conversation, error)
	// FindOrCreateDirect 原子地查找或创建单聊会话
	// 新建时接收者未读数初始化为 1，created 为 true；已存在时不修改未读数
	FindOrCreateDirect(ctx context.Context, senderId, recipientId string) (conv *model.Conversation, created bool, err error)
	// CreateGroup 创建群聊会话及其参与者
	CreateGroup(ctx context.Context, conv *model.Conversation, participantIds []string) error
	// FindActiveByUser 查找用户参与的有效会话，按 updated_at 倒序
	FindActiveByUser(ctx context.Context, userId string) ([]model.Conversation, error)
	// IncrementUnread 原子地将指定参与者的未读数 +1
	IncrementUnread(ctx context.Context, conversationId string, userIds []string) error
	// ResetUnread 将参与者未读数清零，返回是否发生了变化
	ResetUnread(ctx context.Context, conversationId, userId string) (bool, error)
	// SetLastMessage 更新最新消息指针
	SetLastMessage(ctx context.Context, conversationId, messageId string) error
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// Create 创建消息
	Create(ctx context.Context, msg *model.Message) error
	// FindByUuid 根据 uuid 查找消息（含 DeletedFor）
	FindByUuid(ctx context.Context, uuid string) (*model.Message, error)
	// FindVisible 分页查询对 viewerId 可见的消息，按创建时间倒序，同时返回总数
	FindVisible(ctx context.Context, conversationId, viewerId string, offset, limit int) ([]model.Message, int64, error)
	// MarkRead 将会话中他人发给 readerId 的未读、未撤回消息标记为已读，返回受影响条数
	MarkRead(ctx context.Context, conversationId, readerId string, at time.Time) (int64, error)
	// MarkDeleted 发送者撤回，对所有人隐藏
	MarkDeleted(ctx context.Context, uuid string) error
	// HideFor 仅对指定用户隐藏，重复调用无副作用
	HideFor(ctx context.Context, uuid, userId string) error
}

// ==================== Repository 聚合 ====================

// Repositories 聚合所有 Repository 实例
// Service 层通过此结构访问数据层
type Repositories struct {
	User         UserRepository
	Conversation ConversationRepository
	Message      MessageRepository

	transaction func(ctx context.Context, fn func(txRepos *Repositories) error) error
}

// NewRepositories 创建基于 gorm 的 Repository 聚合
func NewRepositories(db *gorm.DB) *Repositories {
	repos := &Repositories{
		User:         NewUserRepository(db),
		Conversation: NewConversationRepository(db),
		Message:      NewMessageRepository(db),
	}
	repos.transaction = func(ctx context.Context, fn func(txRepos *Repositories) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(NewRepositories(tx))
		})
	}
	return repos
}

// NewRepositoriesFrom 用任意实现组装聚合，不提供事务语义（各操作自身保证原子性）
func NewRepositoriesFrom(user UserRepository, conversation ConversationRepository, message MessageRepository) *Repositories {
	return &Repositories{User: user, Conversation: conversation, Message: message}
}

// WithTransaction 为非 gorm 实现指定事务函数
func (r *Repositories) WithTransaction(tx func(ctx context.Context, fn func(txRepos *Repositories) error) error) *Repositories {
	r.transaction = tx
	return r
}

// Transaction 在数据库事务中执行函数，fn 返回错误时回滚
func (r *Repositories) Transaction(ctx context.Context, fn func(txRepos *Repositories) error) error {
	if r.transaction == nil {
		return fn(r)
	}
	return r.transaction(ctx, fn)
}
