package router

import "github.com/gin-gonic/gin"

// registerWebSocketRoutes GET /ws?token=xxx
func (rt *Router) registerWebSocketRoutes(r *gin.Engine) {
	r.GET("/ws", rt.handlers.Ws.Serve)
}
