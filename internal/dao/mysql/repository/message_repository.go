package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"terrasapp_server/internal/model"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息
func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// FindByUuid 按 uuid 查找消息
func (r *messageRepository) FindByUuid(ctx context.Context, uuid string) (*model.Message, error) {
	var msg model.Message
	if err := r.db.WithContext(ctx).Preload("DeletedFor").First(&msg, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 uuid=%s", uuid)
	}
	return &msg, nil
}

// visibleScope 可见性过滤：未撤回且未被 viewer 删除
func visibleScope(conversationId, viewerId string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		hidden := db.Session(&gorm.Session{NewDB: true}).Model(&model.MessageDeletion{}).
			Select("message_id").Where("user_id = ?", viewerId)
		return db.Where("conversation_id = ? AND is_deleted = ?", conversationId, false).
			Where("uuid NOT IN (?)", hidden)
	}
}

// FindVisible 分页查询可见消息
func (r *messageRepository) FindVisible(ctx context.Context, conversationId, viewerId string, offset, limit int) ([]model.Message, int64, error) {
	var (
		messages []model.Message
		total    int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Message{}).Scopes(visibleScope(conversationId, viewerId)).Count(&total).Error; err != nil {
		return nil, 0, wrapDBErrorf(err, "统计消息 conversation=%s", conversationId)
	}
	if err := db.Scopes(visibleScope(conversationId, viewerId)).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, 0, wrapDBErrorf(err, "查询消息 conversation=%s", conversationId)
	}
	return messages, total, nil
}

// MarkRead 标记已读：会话中他人发送、未读且未撤回的消息
// 只更新 read_at 为空的行，重复调用影响 0 行
func (r *messageRepository) MarkRead(ctx context.Context, conversationId, readerId string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND send_id <> ? AND read_at IS NULL AND is_deleted = ?", conversationId, readerId, false).
		UpdateColumn("read_at", sql.NullTime{Time: at, Valid: true})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "标记已读 conversation=%s reader=%s", conversationId, readerId)
	}
	return res.RowsAffected, nil
}

// MarkDeleted 撤回消息
func (r *messageRepository) MarkDeleted(ctx context.Context, uuid string) error {
	if err := r.db.WithContext(ctx).Model(&model.Message{}).Where("uuid = ?", uuid).
		Update("is_deleted", true).Error; err != nil {
		return wrapDBErrorf(err, "撤回消息 uuid=%s", uuid)
	}
	return nil
}

// HideFor 仅对某用户隐藏，唯一索引冲突时忽略
func (r *messageRepository) HideFor(ctx context.Context, uuid, userId string) error {
	record := model.MessageDeletion{MessageId: uuid, UserId: userId}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return wrapDBErrorf(err, "删除消息 uuid=%s user=%s", uuid, userId)
	}
	return nil
}
