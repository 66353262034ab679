package chat

// 客户端事件名，属于对外协议，不可修改
const (
	EventMessageSend    = "message:send"
	EventMessageReceive = "message:receive"
	EventMessageSent    = "message:sent"
	EventMessageRead    = "message:read"

	EventTypingStart = "typing:start"
	EventTypingStop  = "typing:stop"

	EventCallInitiate = "call:initiate"
	EventCallAccept   = "call:accept"
	EventCallReject   = "call:reject"
	EventCallEnd      = "call:end"
	EventCallIncoming = "call:incoming"
	EventCallOutgoing = "call:outgoing"
	EventCallAccepted = "call:accepted"
	EventCallRejected = "call:rejected"
	EventCallEnded    = "call:ended"
	EventCallError    = "call:error"

	EventWebrtcOffer        = "webrtc:offer"
	EventWebrtcAnswer       = "webrtc:answer"
	EventWebrtcIceCandidate = "webrtc:ice-candidate"

	EventUserUpdateStatus = "user:update-status"
	EventUserStatus       = "user:status"

	EventError           = "error"
	EventSessionReplaced = "session:replaced"
)

// ReasonDisconnected 对端断线导致通话结束
const ReasonDisconnected = "disconnected"
