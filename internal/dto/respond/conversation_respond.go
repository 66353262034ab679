package respond

import (
	"time"

	"terrasapp_server/internal/model"
)

// ParticipantRespond 会话参与者摘要
type ParticipantRespond struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Status string `json:"status"`
}

// ConversationRespond 会话列表项
// UnreadCount 为当前用户的未读数
// 使用位置:
//   - internal/service/conversation/service.go: ListConversations
//   - internal/service/chat/messaging.go: CreateGroup
type ConversationRespond struct {
	Id           string               `json:"id"`
	IsGroup      bool                 `json:"isGroup"`
	GroupName    string               `json:"groupName,omitempty"`
	GroupAvatar  string               `json:"groupAvatar,omitempty"`
	GroupAdmin   string               `json:"groupAdmin,omitempty"`
	Participants []ParticipantRespond `json:"participants"`
	LastMessage  *MessageRespond      `json:"lastMessage"`
	UnreadCount  int                  `json:"unreadCount"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// FromConversation 组装会话响应
// users 中缺失的参与者只返回 id；last 可以为 nil
func FromConversation(conv *model.Conversation, viewerId string, users map[string]model.UserInfo, last *model.Message) ConversationRespond {
	res := ConversationRespond{
		Id:           conv.Uuid,
		IsGroup:      conv.IsGroup,
		GroupName:    conv.GroupName,
		GroupAvatar:  conv.GroupAvatar,
		GroupAdmin:   conv.GroupAdmin,
		Participants: make([]ParticipantRespond, 0, len(conv.Participants)),
		UnreadCount:  conv.UnreadFor(viewerId),
		UpdatedAt:    conv.UpdatedAt,
	}
	for _, p := range conv.Participants {
		item := ParticipantRespond{Id: p.UserId}
		if u, ok := users[p.UserId]; ok {
			item.Name, item.Avatar, item.Status = u.Name, u.Avatar, u.Status
		}
		res.Participants = append(res.Participants, item)
	}
	if last != nil {
		m := FromMessage(last)
		res.LastMessage = &m
	}
	return res
}
