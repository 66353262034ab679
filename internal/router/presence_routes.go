package router

import "github.com/gin-gonic/gin"

func (rt *Router) registerPresenceRoutes(api *gin.RouterGroup) {
	presenceGroup := api.Group("/presence")
	{
		// 静态段优先于参数段匹配
		presenceGroup.GET("/online", rt.handlers.Presence.Online)
		presenceGroup.GET("/:userId", rt.handlers.Presence.GetPresence)
	}
}
