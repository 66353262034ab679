package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/util/snowflake"
)

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话 Repository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) withParticipants(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Participants")
}

// FindByUuid 按 uuid 查找会话
func (r *conversationRepository) FindByUuid(ctx context.Context, uuid string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.withParticipants(ctx).First(&conv, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 uuid=%s", uuid)
	}
	return &conv, nil
}

// FindDirect 按 pair_key 查找单聊会话
func (r *conversationRepository) FindDirect(ctx context.Context, userOneId, userTwoId string) (*model.Conversation, error) {
	var conv model.Conversation
	key := model.PairKey(userOneId, userTwoId)
	if err := r.withParticipants(ctx).First(&conv, "pair_key = ?", key).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询单聊会话 pair_key=%s", key)
	}
	return &conv, nil
}

// FindOrCreateDirect 查找或创建单聊会话
// 依赖 pair_key 唯一索引：INSERT ... ON DUPLICATE KEY 不会产生第二条记录，
// 并发的两个首条消息中只有一个 RowsAffected 为 1，另一个回读已存在的会话
func (r *conversationRepository) FindOrCreateDirect(ctx context.Context, senderId, recipientId string) (*model.Conversation, bool, error) {
	key := model.PairKey(senderId, recipientId)
	var (
		conv    model.Conversation
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := model.Conversation{
			Uuid:     snowflake.NewUuid(snowflake.PrefixConversation),
			PairKey:  &key,
			IsActive: true,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&candidate)
		if res.Error != nil {
			return wrapDBErrorf(res.Error, "创建单聊会话 pair_key=%s", key)
		}
		if res.RowsAffected == 1 {
			created = true
			participants := []model.ConversationParticipant{
				{ConversationId: candidate.Uuid, UserId: senderId, UnreadCount: 0},
				{ConversationId: candidate.Uuid, UserId: recipientId, UnreadCount: 1},
			}
			if err := tx.Create(&participants).Error; err != nil {
				return wrapDBErrorf(err, "创建会话参与者 conversation=%s", candidate.Uuid)
			}
		}
		// 加共享锁回读，保证读到其他事务刚提交的会话
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Preload("Participants").
			First(&conv, "pair_key = ?", key).Error; err != nil {
			return wrapDBErrorf(err, "查询单聊会话 pair_key=%s", key)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &conv, created, nil
}

// CreateGroup 创建群聊及其参与者
func (r *conversationRepository) CreateGroup(ctx context.Context, conv *model.Conversation, participantIds []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv.PairKey = nil
		conv.IsGroup = true
		conv.IsActive = true
		if err := tx.Omit(clause.Associations).Create(conv).Error; err != nil {
			return wrapDBError(err, "创建群聊会话")
		}
		participants := make([]model.ConversationParticipant, 0, len(participantIds))
		for _, id := range participantIds {
			participants = append(participants, model.ConversationParticipant{ConversationId: conv.Uuid, UserId: id})
		}
		if err := tx.Create(&participants).Error; err != nil {
			return wrapDBErrorf(err, "创建群聊参与者 conversation=%s", conv.Uuid)
		}
		conv.Participants = participants
		return nil
	})
}

// FindActiveByUser 查询用户参与的有效会话
func (r *conversationRepository) FindActiveByUser(ctx context.Context, userId string) ([]model.Conversation, error) {
	var convs []model.Conversation
	sub := r.db.Model(&model.ConversationParticipant{}).Select("conversation_id").Where("user_id = ?", userId)
	if err := r.withParticipants(ctx).
		Where("uuid IN (?) AND is_active = ?", sub, true).
		Order("updated_at DESC").
		Find(&convs).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话列表 user_id=%s", userId)
	}
	return convs, nil
}

// IncrementUnread 未读数原子自增
func (r *conversationRepository) IncrementUnread(ctx context.Context, conversationId string, userIds []string) error {
	if len(userIds) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id IN ?", conversationId, userIds).
		UpdateColumn("unread_count", gorm.Expr("unread_count + ?", 1)).Error; err != nil {
		return wrapDBErrorf(err, "增加未读数 conversation=%s", conversationId)
	}
	return nil
}

// ResetUnread 未读数清零，已为 0 时不产生更新
func (r *conversationRepository) ResetUnread(ctx context.Context, conversationId, userId string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND unread_count > 0", conversationId, userId).
		UpdateColumn("unread_count", 0)
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "清零未读数 conversation=%s user=%s", conversationId, userId)
	}
	return res.RowsAffected > 0, nil
}

// SetLastMessage 更新最新消息指针，同时刷新 updated_at 用于会话排序
func (r *conversationRepository) SetLastMessage(ctx context.Context, conversationId, messageId string) error {
	if err := r.db.WithContext(ctx).Model(&model.Conversation{}).Where("uuid = ?", conversationId).
		Update("last_message_id", messageId).Error; err != nil {
		return wrapDBErrorf(err, "更新最新消息 conversation=%s", conversationId)
	}
	return nil
}
