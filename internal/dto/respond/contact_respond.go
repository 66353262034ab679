package respond

import (
	"time"

	"terrasapp_server/internal/model"
)

// ContactRespond 联系人列表项
// 使用位置:
//   - internal/service/contact/service.go: ListContacts, AddContact
type ContactRespond struct {
	UserId   string     `json:"userId"`
	Name     string     `json:"name"`
	Avatar   string     `json:"avatar"`
	Status   string     `json:"status"`
	LastSeen *time.Time `json:"lastSeen"`
}

func FromContact(u *model.UserInfo) ContactRespond {
	res := ContactRespond{UserId: u.Uuid, Name: u.Name, Avatar: u.Avatar, Status: u.Status}
	if u.LastSeen.Valid {
		lastSeen := u.LastSeen.Time
		res.LastSeen = &lastSeen
	}
	return res
}
