package respond

import (
	"time"

	"terrasapp_server/internal/model"
)

// MessageRespond 消息
// 使用位置:
//   - message:receive / message:sent 推送
//   - GET /api/conversations/:conversationId/messages
type MessageRespond struct {
	Id             string     `json:"id"`
	ConversationId string     `json:"conversationId"`
	SenderId       string     `json:"senderId"`
	SenderName     string     `json:"senderName"`
	SenderAvatar   string     `json:"senderAvatar"`
	RecipientId    string     `json:"recipientId"`
	Content        string     `json:"content"`
	ContentType    string     `json:"contentType"`
	FileUrl        string     `json:"fileUrl,omitempty"`
	FileName       string     `json:"fileName,omitempty"`
	FileSize       int64      `json:"fileSize,omitempty"`
	FileThumbnail  string     `json:"fileThumbnail,omitempty"`
	ReplyTo        string     `json:"replyTo,omitempty"`
	ReadAt         *time.Time `json:"readAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// FromMessage 将消息实体转换为响应结构
func FromMessage(m *model.Message) MessageRespond {
	res := MessageRespond{
		Id:             m.Uuid,
		ConversationId: m.ConversationId,
		SenderId:       m.SendId,
		SenderName:     m.SendName,
		SenderAvatar:   m.SendAvatar,
		RecipientId:    m.ReceiveId,
		Content:        m.Content,
		ContentType:    m.ContentType,
		FileUrl:        m.FileUrl,
		FileName:       m.FileName,
		FileSize:       m.FileSize,
		FileThumbnail:  m.FileThumbnail,
		ReplyTo:        m.ReplyTo,
		CreatedAt:      m.CreatedAt,
	}
	if m.ReadAt.Valid {
		readAt := m.ReadAt.Time
		res.ReadAt = &readAt
	}
	return res
}

// PaginationRespond 分页信息
type PaginationRespond struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// MessageListRespond 消息分页列表
type MessageListRespond struct {
	Messages   []MessageRespond  `json:"messages"`
	Pagination PaginationRespond `json:"pagination"`
}
