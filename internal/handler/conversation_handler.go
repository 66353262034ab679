package handler

import (
	"github.com/gin-gonic/gin"

	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/service/chat"
	"terrasapp_server/internal/service/conversation"
)

// ConversationHandler 会话列表、历史消息与群聊创建
type ConversationHandler struct {
	svc  *conversation.Service
	chat *chat.ChatServer
}

func NewConversationHandler(svc *conversation.Service, chatSvc *chat.ChatServer) *ConversationHandler {
	return &ConversationHandler{svc: svc, chat: chatSvc}
}

// ListConversations 当前用户参与的会话，按最近活跃倒序
// GET /api/conversations
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	rsp, err := h.svc.ListConversations(c.Request.Context(), currentUserId(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// GetMessages 分页拉取历史消息，拉取后该会话自动标记已读
// GET /api/conversations/:conversationId/messages?page=1&limit=20
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	var req request.GetMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.svc.GetMessages(c.Request.Context(), currentUserId(c), c.Param("conversationId"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// CreateGroup 创建群聊
// POST /api/conversations/group
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	var req request.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.chat.CreateGroup(c.Request.Context(), currentUserId(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
