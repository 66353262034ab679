package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"terrasapp_server/internal/model"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByUuid 按 uuid 查找用户
func (r *userRepository) FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.WithContext(ctx).First(&user, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &user, nil
}

// FindByEmail 按邮箱查找用户
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 email=%s", email)
	}
	return &user, nil
}

// FindByUuids 批量查找用户
func (r *userRepository) FindByUuids(ctx context.Context, uuids []string) ([]model.UserInfo, error) {
	var users []model.UserInfo
	if len(uuids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("uuid IN ?", uuids).Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "批量查询用户")
	}
	return users, nil
}

// Create 创建用户，密码在 BeforeSave 中加密
func (r *userRepository) Create(ctx context.Context, user *model.UserInfo) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}

// UpdatePresence 更新在线状态与 last_seen
func (r *userRepository) UpdatePresence(ctx context.Context, uuid, status string, lastSeen time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.UserInfo{}).Where("uuid = ?", uuid).Updates(map[string]interface{}{
		"status":    status,
		"last_seen": sql.NullTime{Time: lastSeen, Valid: true},
	})
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "更新用户状态 uuid=%s", uuid)
	}
	if res.RowsAffected == 0 {
		return wrapDBErrorf(gorm.ErrRecordNotFound, "更新用户状态 uuid=%s", uuid)
	}
	return nil
}

// FindContactIds 查询联系人 uuid 列表（不含拉黑）
func (r *userRepository) FindContactIds(ctx context.Context, uuid string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.UserContact{}).
		Where("user_id = ? AND status = ?", uuid, model.ContactStatusNormal).
		Order("id").Pluck("contact_id", &ids).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询联系人 user_id=%s", uuid)
	}
	return ids, nil
}

// AddContact 依赖 (user_id, contact_id) 唯一索引，重复添加不报错
func (r *userRepository) AddContact(ctx context.Context, userId, contactId string) error {
	contact := model.UserContact{UserId: userId, ContactId: contactId, Status: model.ContactStatusNormal}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&contact).Error; err != nil {
		return wrapDBErrorf(err, "添加联系人 user_id=%s contact_id=%s", userId, contactId)
	}
	return nil
}

// RemoveContact 物理删除，避免软删除记录占用唯一索引
func (r *userRepository) RemoveContact(ctx context.Context, userId, contactId string) (bool, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND contact_id = ?", userId, contactId).
		Delete(&model.UserContact{})
	if res.Error != nil {
		return false, wrapDBErrorf(res.Error, "删除联系人 user_id=%s contact_id=%s", userId, contactId)
	}
	return res.RowsAffected > 0, nil
}
