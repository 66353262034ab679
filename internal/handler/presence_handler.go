package handler

import (
	"github.com/gin-gonic/gin"

	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/internal/service/chat"
)

// PresenceHandler 在线状态查询
type PresenceHandler struct {
	chat *chat.ChatServer
}

func NewPresenceHandler(chatSvc *chat.ChatServer) *PresenceHandler {
	return &PresenceHandler{chat: chatSvc}
}

// Online GET /api/presence/online
func (h *PresenceHandler) Online(c *gin.Context) {
	HandleSuccess(c, respond.OnlineUsersRespond{UserIds: h.chat.OnlineUsers(c.Request.Context())})
}

// GetPresence GET /api/presence/:userId
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	rsp, err := h.chat.Presence(c.Request.Context(), c.Param("userId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}
