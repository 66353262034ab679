package model

// 用户在线状态
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
	StatusBusy    = "busy"
	StatusInCall  = "in-call"
)

// 消息内容类型
const (
	ContentTypeText     = "text"
	ContentTypeAudio    = "audio"
	ContentTypeImage    = "image"
	ContentTypeVideo    = "video"
	ContentTypeDocument = "document"
	ContentTypeLocation = "location"
)

// IsValidStatus 判断是否为合法的在线状态
func IsValidStatus(status string) bool {
	switch status {
	case StatusOnline, StatusOffline, StatusAway, StatusBusy, StatusInCall:
		return true
	}
	return false
}
