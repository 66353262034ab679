package handler

import (
	"github.com/gin-gonic/gin"

	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/service/contact"
)

// ContactHandler 联系人列表
type ContactHandler struct {
	svc *contact.Service
}

func NewContactHandler(svc *contact.Service) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// ListContacts GET /api/contacts
func (h *ContactHandler) ListContacts(c *gin.Context) {
	rsp, err := h.svc.ListContacts(c.Request.Context(), currentUserId(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// AddContact POST /api/contacts
func (h *ContactHandler) AddContact(c *gin.Context) {
	var req request.AddContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	rsp, err := h.svc.AddContact(c.Request.Context(), currentUserId(c), req.ContactId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, rsp)
}

// RemoveContact DELETE /api/contacts/:userId
func (h *ContactHandler) RemoveContact(c *gin.Context) {
	if err := h.svc.RemoveContact(c.Request.Context(), currentUserId(c), c.Param("userId")); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
