// Package handler 提供 HTTP 请求处理器
// 本文件实现 Handler 层的依赖注入
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"terrasapp_server/internal/config"
	"terrasapp_server/internal/service"
)

// Handlers 聚合所有 Handler 实例
type Handlers struct {
	Auth         *AuthHandler
	Contact      *ContactHandler
	Conversation *ConversationHandler
	Message      *MessageHandler
	Presence     *PresenceHandler
	Ws           *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(svc *service.Services, wsConf *config.WsConfig) *Handlers {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsConf.ReadBufferSize,
		WriteBufferSize: wsConf.WriteBufferSize,
		// 跨域由 CORS 中间件和 Token 校验负责
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return &Handlers{
		Auth:         NewAuthHandler(svc.Auth),
		Contact:      NewContactHandler(svc.Contact),
		Conversation: NewConversationHandler(svc.Conversation, svc.Chat),
		Message:      NewMessageHandler(svc.Chat),
		Presence:     NewPresenceHandler(svc.Chat),
		Ws:           NewWsHandler(svc.Chat, upgrader),
	}
}
