package router

import "github.com/gin-gonic/gin"

func (rt *Router) registerContactRoutes(api *gin.RouterGroup) {
	contactGroup := api.Group("/contacts")
	{
		contactGroup.GET("", rt.handlers.Contact.ListContacts)
		contactGroup.POST("", rt.handlers.Contact.AddContact)
		contactGroup.DELETE("/:userId", rt.handlers.Contact.RemoveContact)
	}
}
