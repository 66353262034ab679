package router

import "github.com/gin-gonic/gin"

func (rt *Router) registerAuthRoutes(r *gin.Engine) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", rt.handlers.Auth.Register)
		authGroup.POST("/login", rt.handlers.Auth.Login)
	}
}
