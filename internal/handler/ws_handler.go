package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"terrasapp_server/internal/infrastructure/middleware"
	"terrasapp_server/internal/service/chat"
	"terrasapp_server/pkg/errorx"
)

// WsHandler WebSocket 握手
type WsHandler struct {
	chat     *chat.ChatServer
	upgrader websocket.Upgrader
}

func NewWsHandler(chatSvc *chat.ChatServer, upgrader websocket.Upgrader) *WsHandler {
	return &WsHandler{chat: chatSvc, upgrader: upgrader}
}

// Serve 校验凭证后升级为 WebSocket，阻塞直到连接断开
// GET /ws?token=xxx，浏览器之外的客户端也可使用 Authorization: Bearer xxx
// 凭证无效时不升级，直接返回 401
func (h *WsHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = middleware.BearerToken(c)
	}

	user, err := h.chat.Authenticate(c.Request.Context(), token)
	if err != nil {
		zap.L().Info("ws handshake rejected", zap.String("remote", c.ClientIP()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, ResponseData{
			Code: errorx.CodeUnauthorized,
			Msg:  "Authentication error",
		})
		return
	}
	c.Set(middleware.ContextUserIDKey, user.Uuid)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已写回错误响应
		zap.L().Warn("ws upgrade failed", zap.String("user_id", user.Uuid), zap.Error(err))
		return
	}

	uc := chat.NewUserConn(conn, user.Uuid, h.chat.ConnOptions())
	h.chat.ServeConn(c.Request.Context(), user, uc)
}
