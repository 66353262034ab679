package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/pkg/errorx"
)

var malformedFrame = respond.ErrorRespond{Message: "Malformed frame", Code: errorx.CodeInvalidParam}

// Dispatch 处理一条入站事件
// 在读泵中顺序调用；错误只回复给发起连接，连接保持
func (s *ChatServer) Dispatch(ctx context.Context, sess Session, env request.WsEnvelope) {
	var err error
	switch env.Event {
	case EventMessageSend:
		err = bind(env.Data, func(req request.SendMessageRequest) error {
			_, err := s.SendMessage(ctx, sess, req)
			return err
		})
	case EventMessageRead:
		err = bind(env.Data, func(req request.MarkReadRequest) error {
			_, err := s.MarkRead(ctx, sess.UserId(), req)
			return err
		})
	case EventTypingStart, EventTypingStop:
		err = bind(env.Data, func(req request.TypingRequest) error {
			return s.Typing(sess.UserId(), env.Event, req)
		})
	case EventCallInitiate:
		err = bind(env.Data, func(req request.InitiateCallRequest) error {
			_, err := s.InitiateCall(ctx, sess, req)
			return err
		})
	case EventCallAccept:
		err = bind(env.Data, func(req request.CallActionRequest) error {
			_, err := s.AcceptCall(ctx, sess.UserId(), req)
			return err
		})
	case EventCallReject:
		err = bind(env.Data, func(req request.CallActionRequest) error {
			_, err := s.RejectCall(ctx, sess.UserId(), req)
			return err
		})
	case EventCallEnd:
		err = bind(env.Data, func(req request.CallActionRequest) error {
			_, err := s.EndCall(ctx, sess.UserId(), req)
			return err
		})
	case EventWebrtcOffer:
		err = bind(env.Data, func(req request.WebrtcOfferRequest) error {
			return s.RelayOffer(sess.UserId(), req)
		})
	case EventWebrtcAnswer:
		err = bind(env.Data, func(req request.WebrtcAnswerRequest) error {
			return s.RelayAnswer(sess.UserId(), req)
		})
	case EventWebrtcIceCandidate:
		err = bind(env.Data, func(req request.IceCandidateRequest) error {
			return s.RelayIceCandidate(sess.UserId(), req)
		})
	case EventUserUpdateStatus:
		err = bind(env.Data, func(req request.UpdateStatusRequest) error {
			return s.UpdateStatus(ctx, sess.UserId(), req)
		})
	default:
		err = errorx.Newf(errorx.CodeInvalidParam, "Unknown event %q", env.Event)
	}
	if err != nil {
		s.replyError(sess, env.Event, err)
	}
}

func bind[T any](data json.RawMessage, fn func(T) error) error {
	var req T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return errorx.Wrap(err, errorx.CodeInvalidParam, "Invalid payload")
		}
	}
	return fn(req)
}

// replyError 业务错误原样返回；存储等内部错误记录日志后返回通用 error
func (s *ChatServer) replyError(sess Session, event string, err error) {
	var codeErr *errorx.CodeError
	internal := !errors.As(err, &codeErr)
	if !internal {
		switch codeErr.Code {
		case errorx.CodeDBError, errorx.CodeCacheError, errorx.CodeServerBusy:
			internal = true
		}
	}
	if internal {
		zap.L().Error("ws event failed",
			zap.String("user_id", sess.UserId()),
			zap.String("event", event),
			zap.Error(err))
		sess.Send(EventError, respond.ErrorRespond{Message: errorx.ErrServerBusy.Msg, Code: errorx.CodeServerBusy})
		return
	}

	reply := EventError
	if strings.HasPrefix(event, "call:") {
		reply = EventCallError
	}
	sess.Send(reply, respond.ErrorRespond{Message: codeErr.Msg, Code: codeErr.Code})
}

// ==================== 校验 ====================

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check 校验请求结构体，失败时返回 CodeInvalidParam，消息取第一个字段错误
func (s *ChatServer) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errorx.Wrap(err, errorx.CodeInvalidParam, errorx.ErrInvalidParam.Msg)
	}
	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "required", "required_without":
		msg = fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		msg = fmt.Sprintf("%s is invalid", fe.Field())
	}
	return errorx.Wrap(err, errorx.CodeInvalidParam, msg)
}
