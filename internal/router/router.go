// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"github.com/gin-gonic/gin"

	"terrasapp_server/internal/handler"
	"terrasapp_server/internal/infrastructure/middleware"
)

// Router 持有 Handler 聚合，按模块注册路由
type Router struct {
	handlers *handler.Handlers
}

func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由，在 https_server.Init() 中调用
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	rt.registerAuthRoutes(r) // 注册/登录，无需 Token

	api := r.Group("/api", middleware.JWTAuth())
	rt.registerContactRoutes(api)
	rt.registerConversationRoutes(api)
	rt.registerMessageRoutes(api)
	rt.registerPresenceRoutes(api)

	rt.registerWebSocketRoutes(r) // 握手自行校验 Token
}
