package handler

import (
	"github.com/gin-gonic/gin"

	"terrasapp_server/internal/service/chat"
)

type MessageHandler struct {
	chat *chat.ChatServer
}

func NewMessageHandler(chatSvc *chat.ChatServer) *MessageHandler {
	return &MessageHandler{chat: chatSvc}
}

// DeleteMessage 删除消息：发送者撤回对所有人生效，其他参与者仅对自己隐藏
// DELETE /api/messages/:messageId
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	if err := h.chat.DeleteMessage(c.Request.Context(), currentUserId(c), c.Param("messageId")); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
