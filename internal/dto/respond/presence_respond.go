package respond

import "time"

// OnlineUsersRespond GET /api/presence/online
type OnlineUsersRespond struct {
	UserIds []string `json:"userIds"`
}

// PresenceRespond GET /api/presence/:userId
type PresenceRespond struct {
	UserId   string     `json:"userId"`
	Status   string     `json:"status"`
	LastSeen *time.Time `json:"lastSeen"`
}
