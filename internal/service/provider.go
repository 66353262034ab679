// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"terrasapp_server/internal/dao/mysql/repository"
	"terrasapp_server/internal/service/auth"
	"terrasapp_server/internal/service/chat"
	"terrasapp_server/internal/service/contact"
	"terrasapp_server/internal/service/conversation"
)

// Services 聚合所有 Service 实例
// 由 main 构造一次，注入到 Handler 层
type Services struct {
	Auth         *auth.Service
	Chat         *chat.ChatServer
	Contact      *contact.Service
	Conversation *conversation.Service
}

// NewServices 创建并注入所有 Service 实例
// 认证服务同时作为 WebSocket 握手的凭证校验器，
// 实时消息引擎同时负责 REST 拉取消息后的已读标记
func NewServices(repos *repository.Repositories, chatOpts chat.Options) *Services {
	authSvc := auth.NewAuthService(repos)
	chatSvc := chat.NewChatServer(repos, authSvc, chatOpts)
	return &Services{
		Auth:         authSvc,
		Chat:         chatSvc,
		Contact:      contact.NewContactService(repos),
		Conversation: conversation.NewConversationService(repos, chatSvc),
	}
}
