package chat

import (
	"context"

	"go.uber.org/zap"

	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/internal/infrastructure/mq"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/errorx"
)

// InitiateCall 发起通话
// 被叫不在线返回 ErrRecipientOffline，被叫已在通话中返回 ErrRecipientBusy
func (s *ChatServer) InitiateCall(ctx context.Context, caller Session, req request.InitiateCallRequest) (Call, error) {
	if err := s.check(req); err != nil {
		return Call{}, err
	}
	callerId := caller.UserId()
	if req.RecipientId == callerId {
		return Call{}, errorx.New(errorx.CodeInvalidParam, "Cannot call yourself")
	}
	if _, ok := s.directory.Lookup(req.RecipientId); !ok {
		return Call{}, errorx.ErrRecipientOffline
	}
	user, err := s.repos.User.FindByUuid(ctx, callerId)
	if err != nil {
		return Call{}, err
	}

	call, err := s.calls.Start(callerId, req.RecipientId, req.CallType, s.now())
	if err != nil {
		return Call{}, err
	}
	s.trySetStatus(ctx, callerId, model.StatusInCall)

	s.directory.SendTo(req.RecipientId, EventCallIncoming, respond.CallIncomingRespond{
		CallId:     call.Id,
		CallerId:   callerId,
		CallerName: user.Name,
		CallType:   call.CallType,
	})
	caller.Send(EventCallOutgoing, respond.CallPeerRespond{CallId: call.Id, RecipientId: req.RecipientId})

	s.publish(ctx, mq.EventCallStarted, call.Id, callEvent(call, callerId, ""))
	return call, nil
}

// AcceptCall 被叫接听，主叫收到 call:accepted
func (s *ChatServer) AcceptCall(ctx context.Context, accepterId string, req request.CallActionRequest) (Call, error) {
	if err := s.check(req); err != nil {
		return Call{}, err
	}
	call, err := s.calls.Accept(req.CallId, accepterId)
	if err != nil {
		return Call{}, err
	}
	s.trySetStatus(ctx, accepterId, model.StatusInCall)
	s.directory.SendTo(call.CallerId, EventCallAccepted, respond.CallPeerRespond{CallId: call.Id, RecipientId: accepterId})

	s.publish(ctx, mq.EventCallAccepted, call.Id, callEvent(call, accepterId, ""))
	return call, nil
}

// RejectCall 拒绝（被叫）或取消（主叫），对方恢复 online
func (s *ChatServer) RejectCall(ctx context.Context, rejecterId string, req request.CallActionRequest) (Call, error) {
	if err := s.check(req); err != nil {
		return Call{}, err
	}
	call, err := s.calls.Reject(req.CallId, rejecterId)
	if err != nil {
		return Call{}, err
	}
	other := call.Other(rejecterId)
	s.directory.SendTo(other, EventCallRejected, respond.CallPeerRespond{CallId: call.Id, RecipientId: rejecterId})
	s.trySetStatus(ctx, other, model.StatusOnline)

	s.publish(ctx, mq.EventCallRejected, call.Id, callEvent(call, rejecterId, ""))
	return call, nil
}

// EndCall 挂断，双方恢复 online
func (s *ChatServer) EndCall(ctx context.Context, enderId string, req request.CallActionRequest) (Call, error) {
	if err := s.check(req); err != nil {
		return Call{}, err
	}
	call, err := s.calls.End(req.CallId, enderId)
	if err != nil {
		return Call{}, err
	}
	other := call.Other(enderId)
	s.directory.SendTo(other, EventCallEnded, respond.CallEndedRespond{CallId: call.Id, EndedBy: enderId})
	s.trySetStatus(ctx, other, model.StatusOnline)
	s.trySetStatus(ctx, enderId, model.StatusOnline)

	s.publish(ctx, mq.EventCallEnded, call.Id, callEvent(call, enderId, ""))
	return call, nil
}

// ==================== WebRTC 透传 ====================
// 不校验双方是否存在通话，对端不在线时直接丢弃

func (s *ChatServer) RelayOffer(senderId string, req request.WebrtcOfferRequest) error {
	if err := s.check(req); err != nil {
		return err
	}
	s.relay(req.RecipientId, EventWebrtcOffer, respond.WebrtcOfferRespond{CallerId: senderId, Offer: req.Offer})
	return nil
}

func (s *ChatServer) RelayAnswer(senderId string, req request.WebrtcAnswerRequest) error {
	if err := s.check(req); err != nil {
		return err
	}
	s.relay(req.CallerId, EventWebrtcAnswer, respond.WebrtcAnswerRespond{RecipientId: senderId, Answer: req.Answer})
	return nil
}

func (s *ChatServer) RelayIceCandidate(senderId string, req request.IceCandidateRequest) error {
	if err := s.check(req); err != nil {
		return err
	}
	s.relay(req.RecipientId, EventWebrtcIceCandidate, respond.IceCandidateRespond{SenderId: senderId, Candidate: req.Candidate})
	return nil
}

func (s *ChatServer) relay(peerId, event string, payload any) {
	if !s.directory.SendTo(peerId, event, payload) {
		zap.L().Debug("webrtc relay target unavailable", zap.String("peer", peerId), zap.String("event", event))
	}
}

// callEvent 领域事件中的通话快照
func callEvent(call Call, actorId, reason string) map[string]any {
	payload := map[string]any{
		"callId":      call.Id,
		"callerId":    call.CallerId,
		"recipientId": call.RecipientId,
		"callType":    call.CallType,
		"state":       call.State.String(),
		"actorId":     actorId,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	return payload
}
