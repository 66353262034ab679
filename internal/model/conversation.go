// Package model 定义数据库实体模型
// 本文件定义会话（单聊/群聊）及其参与者
package model

import (
	"time"

	"gorm.io/gorm"
)

// Conversation 会话模型
// 对应数据库 conversation 表
// 单聊会话通过 PairKey 唯一索引保证同一对用户之间至多一个会话
type Conversation struct {
	gorm.Model

	// Uuid 会话唯一标识，格式：C + 雪花ID
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(24);not null;comment:会话uuid"`

	// PairKey 单聊双方 uuid 排序后拼接，如 "U1:U2"；群聊为 NULL
	PairKey *string `gorm:"column:pair_key;uniqueIndex;type:varchar(60);comment:单聊唯一键"`

	IsGroup     bool   `gorm:"column:is_group;not null;default:false;comment:是否群聊"`
	GroupName   string `gorm:"column:group_name;type:varchar(50);comment:群名称"`
	GroupAvatar string `gorm:"column:group_avatar;type:varchar(255);comment:群头像"`
	GroupAdmin  string `gorm:"column:group_admin;type:char(24);comment:群管理员uuid"`

	// LastMessageId 最新消息 uuid
	LastMessageId string `gorm:"column:last_message_id;type:char(24);comment:最新消息uuid"`

	// IsActive 软停用标记，会话从不物理删除
	IsActive bool `gorm:"column:is_active;not null;default:true;comment:是否有效"`

	// Participants 参与者及各自未读数
	Participants []ConversationParticipant `gorm:"foreignKey:ConversationId;references:Uuid"`
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "conversation"
}

// ConversationParticipant 会话参与者
// UnreadCount 只通过原子自增/清零修改
type ConversationParticipant struct {
	ID             uint      `gorm:"primarykey"`
	ConversationId string    `gorm:"column:conversation_id;uniqueIndex:idx_conversation_user;type:char(24);not null;comment:会话uuid"`
	UserId         string    `gorm:"column:user_id;uniqueIndex:idx_conversation_user;index;type:char(24);not null;comment:用户uuid"`
	UnreadCount    int       `gorm:"column:unread_count;not null;default:0;comment:未读消息数"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (ConversationParticipant) TableName() string {
	return "conversation_participant"
}

// PairKey 生成单聊唯一键，与参数顺序无关
func PairKey(userOneId, userTwoId string) string {
	if userOneId > userTwoId {
		userOneId, userTwoId = userTwoId, userOneId
	}
	return userOneId + ":" + userTwoId
}

// HasParticipant 判断用户是否为会话参与者
func (c *Conversation) HasParticipant(userId string) bool {
	for _, p := range c.Participants {
		if p.UserId == userId {
			return true
		}
	}
	return false
}

// ParticipantIds 返回全部参与者 uuid
func (c *Conversation) ParticipantIds() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserId)
	}
	return ids
}

// OtherParticipantIds 返回除指定用户以外的参与者
func (c *Conversation) OtherParticipantIds(userId string) []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.UserId != userId {
			ids = append(ids, p.UserId)
		}
	}
	return ids
}

// UnreadFor 返回指定用户的未读数
func (c *Conversation) UnreadFor(userId string) int {
	for _, p := range c.Participants {
		if p.UserId == userId {
			return p.UnreadCount
		}
	}
	return 0
}
