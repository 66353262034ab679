package request

// GetMessagesRequest 分页查询会话消息
// 使用位置:
//   - internal/handler/conversation_handler.go: GetMessages
type GetMessagesRequest struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// CreateGroupRequest 创建群聊请求，创建者自动成为管理员
// 使用位置:
//   - internal/handler/conversation_handler.go: CreateGroup
//   - internal/service/chat/messaging.go: CreateGroup
type CreateGroupRequest struct {
	GroupName    string   `json:"groupName" binding:"required,max=50"`
	GroupAvatar  string   `json:"groupAvatar"`
	Participants []string `json:"participants" binding:"required,min=1,dive,required"`
}
