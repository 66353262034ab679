package request

import "encoding/json"

// WsEnvelope WebSocket 帧：{"event": "...", "data": {...}}
// 使用位置:
//   - internal/service/chat/conn.go: readPump
//   - internal/service/chat/dispatch.go: Dispatch
type WsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SendMessageRequest message:send
// content 为空时必须携带 fileUrl
type SendMessageRequest struct {
	RecipientId    string `json:"recipientId" validate:"required"`
	Content        string `json:"content" validate:"required_without=FileUrl"`
	ContentType    string `json:"contentType" validate:"omitempty,oneof=text audio image video document location"`
	ConversationId string `json:"conversationId"`
	FileUrl        string `json:"fileUrl"`
	FileName       string `json:"fileName"`
	FileSize       int64  `json:"fileSize" validate:"gte=0"`
	FileThumbnail  string `json:"fileThumbnail"`
	ReplyTo        string `json:"replyTo"`
}

// MarkReadRequest message:read
type MarkReadRequest struct {
	ConversationId string `json:"conversationId" validate:"required"`
}

// TypingRequest typing:start / typing:stop
type TypingRequest struct {
	ConversationId string `json:"conversationId" validate:"required"`
	RecipientId    string `json:"recipientId" validate:"required"`
}

// InitiateCallRequest call:initiate
type InitiateCallRequest struct {
	RecipientId string `json:"recipientId" validate:"required"`
	CallType    string `json:"callType" validate:"required,oneof=audio video"`
}

// CallActionRequest call:accept / call:reject / call:end
type CallActionRequest struct {
	CallId string `json:"callId" validate:"required"`
}

// WebrtcOfferRequest webrtc:offer，offer 原样转发
type WebrtcOfferRequest struct {
	RecipientId string          `json:"recipientId" validate:"required"`
	Offer       json.RawMessage `json:"offer" validate:"required"`
}

// WebrtcAnswerRequest webrtc:answer
type WebrtcAnswerRequest struct {
	CallerId string          `json:"callerId" validate:"required"`
	Answer   json.RawMessage `json:"answer" validate:"required"`
}

// IceCandidateRequest webrtc:ice-candidate
type IceCandidateRequest struct {
	RecipientId string          `json:"recipientId" validate:"required"`
	Candidate   json.RawMessage `json:"candidate" validate:"required"`
}

// UpdateStatusRequest user:update-status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=online offline away busy in-call"`
}
