package respond

import "encoding/json"

// 以下为 WebSocket 推送事件的 data 部分
// 使用位置: internal/service/chat

// CallIncomingRespond call:incoming
type CallIncomingRespond struct {
	CallId     string `json:"callId"`
	CallerId   string `json:"callerId"`
	CallerName string `json:"callerName"`
	CallType   string `json:"callType"`
}

// CallPeerRespond call:outgoing / call:accepted / call:rejected
type CallPeerRespond struct {
	CallId      string `json:"callId"`
	RecipientId string `json:"recipientId"`
}

// CallEndedRespond call:ended，对端断线时 reason 为 "disconnected"
type CallEndedRespond struct {
	CallId  string `json:"callId"`
	EndedBy string `json:"endedBy"`
	Reason  string `json:"reason,omitempty"`
}

// WebrtcOfferRespond webrtc:offer
type WebrtcOfferRespond struct {
	CallerId string          `json:"callerId"`
	Offer    json.RawMessage `json:"offer"`
}

// WebrtcAnswerRespond webrtc:answer
type WebrtcAnswerRespond struct {
	RecipientId string          `json:"recipientId"`
	Answer      json.RawMessage `json:"answer"`
}

// IceCandidateRespond webrtc:ice-candidate
type IceCandidateRespond struct {
	SenderId  string          `json:"senderId"`
	Candidate json.RawMessage `json:"candidate"`
}

// TypingRespond typing:start / typing:stop
type TypingRespond struct {
	ConversationId string `json:"conversationId"`
	UserId         string `json:"userId"`
}

// UserStatusRespond user:status
type UserStatusRespond struct {
	UserId string `json:"userId"`
	Status string `json:"status"`
}

// MessageReadRespond message:read
type MessageReadRespond struct {
	ConversationId string `json:"conversationId"`
	ReadBy         string `json:"readBy"`
}

// ErrorRespond error / call:error
type ErrorRespond struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SessionReplacedRespond session:replaced
type SessionReplacedRespond struct {
	Message string `json:"message"`
}
