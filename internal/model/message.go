// Package model 定义数据库实体模型
// 本文件定义消息模型及"仅对我删除"记录
package model

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// Message 消息模型
// 对应数据库 message 表
type Message struct {
	gorm.Model

	// Uuid 消息唯一标识，格式：M + 雪花ID
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(24);not null;comment:消息uuid"`

	// ConversationId 所属会话
	ConversationId string `gorm:"column:conversation_id;index;type:char(24);not null;comment:会话uuid"`

	SendId string `gorm:"column:send_id;index;type:char(24);not null;comment:发送者uuid"`

	// SendName/SendAvatar 冗余存储，推送与查询时无需再关联用户表
	SendName   string `gorm:"column:send_name;type:varchar(50);not null;comment:发送者名称"`
	SendAvatar string `gorm:"column:send_avatar;type:varchar(255);comment:发送者头像"`

	// ReceiveId 接收者 uuid；群聊时为发送请求中指定的接收者
	ReceiveId string `gorm:"column:receive_id;index;type:char(24);not null;comment:接收者uuid"`

	Content     string `gorm:"column:content;type:TEXT;comment:消息内容"`
	ContentType string `gorm:"column:content_type;type:varchar(16);not null;default:text;comment:内容类型"`

	// 附件信息，文件本身存放在对象存储中
	FileUrl       string `gorm:"column:file_url;type:varchar(255);comment:文件url"`
	FileName      string `gorm:"column:file_name;type:varchar(100);comment:文件名"`
	FileSize      int64  `gorm:"column:file_size;comment:文件大小（字节）"`
	FileThumbnail string `gorm:"column:file_thumbnail;type:varchar(255);comment:缩略图url"`

	// ReadAt 接收者已读时间，未读为 NULL
	ReadAt sql.NullTime `gorm:"column:read_at;type:datetime;comment:已读时间"`

	// IsDeleted 发送者撤回，对所有人不可见
	IsDeleted bool `gorm:"column:is_deleted;not null;default:false;comment:是否已删除"`

	// ReplyTo 引用的消息 uuid
	ReplyTo string `gorm:"column:reply_to;type:char(24);comment:回复的消息uuid"`

	// DeletedFor 对哪些用户隐藏
	DeletedFor []MessageDeletion `gorm:"foreignKey:MessageId;references:Uuid"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}

// MessageDeletion "仅对我删除"记录
type MessageDeletion struct {
	ID        uint      `gorm:"primarykey"`
	MessageId string    `gorm:"column:message_id;uniqueIndex:idx_message_user;type:char(24);not null;comment:消息uuid"`
	UserId    string    `gorm:"column:user_id;uniqueIndex:idx_message_user;type:char(24);not null;comment:用户uuid"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (MessageDeletion) TableName() string {
	return "message_deletion"
}

// VisibleTo 消息对某个用户是否可见：未被撤回且未被该用户删除
func (m *Message) VisibleTo(userId string) bool {
	if m.IsDeleted {
		return false
	}
	for _, d := range m.DeletedFor {
		if d.UserId == userId {
			return false
		}
	}
	return true
}
