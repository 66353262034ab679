package request

// AddContactRequest 添加联系人（单向）
// 使用位置:
//   - internal/handler/contact_handler.go: AddContact
type AddContactRequest struct {
	ContactId string `json:"contactId" binding:"required"`
}
