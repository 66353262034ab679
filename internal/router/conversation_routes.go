package router

import "github.com/gin-gonic/gin"

func (rt *Router) registerConversationRoutes(api *gin.RouterGroup) {
	convGroup := api.Group("/conversations")
	{
		convGroup.GET("", rt.handlers.Conversation.ListConversations)
		convGroup.GET("/:conversationId/messages", rt.handlers.Conversation.GetMessages)
		convGroup.POST("/group", rt.handlers.Conversation.CreateGroup)
	}
}

func (rt *Router) registerMessageRoutes(api *gin.RouterGroup) {
	api.DELETE("/messages/:messageId", rt.handlers.Message.DeleteMessage)
}
