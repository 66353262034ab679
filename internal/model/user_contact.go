package model

import (
	"gorm.io/gorm"
)

// 联系人状态
const (
	ContactStatusNormal  int8 = 0
	ContactStatusBlocked int8 = 1
)

// UserContact 用户的联系人列表（单向）
// 在线状态只推送给 UserId 自己列表中的联系人，不建立反向索引
type UserContact struct {
	gorm.Model
	UserId    string `gorm:"column:user_id;uniqueIndex:idx_user_contact;type:char(24);not null;comment:用户唯一id"`
	ContactId string `gorm:"column:contact_id;uniqueIndex:idx_user_contact;index;type:char(24);not null;comment:联系人id"`
	Status    int8   `gorm:"column:status;not null;default:0;comment:联系状态，0.正常，1.拉黑"`
}

func (UserContact) TableName() string {
	return "user_contact"
}
