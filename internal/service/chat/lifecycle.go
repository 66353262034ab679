package chat

import (
	"context"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/internal/infrastructure/mq"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/errorx"
)

// Authenticate 校验握手凭证，失败统一返回 CodeUnauthorized
func (s *ChatServer) Authenticate(ctx context.Context, token string) (*model.UserInfo, error) {
	if token == "" {
		return nil, errorx.ErrUnauthorized
	}
	user, err := s.verifier.Verify(ctx, token)
	if err != nil {
		if errorx.HasCode(err, errorx.CodeUnauthorized) {
			return nil, err
		}
		return nil, errorx.Wrap(err, errorx.CodeUnauthorized, "invalid credential")
	}
	return user, nil
}

// Connect 注册连接、上线并加入会话房间
// 同一用户的旧连接收到 session:replaced 后被关闭
func (s *ChatServer) Connect(ctx context.Context, user *model.UserInfo, sess Session) {
	if prev := s.directory.Register(sess); prev != nil {
		zap.L().Info("session replaced", zap.String("user_id", user.Uuid), zap.String("old_conn", prev.ConnId()), zap.String("new_conn", sess.ConnId()))
		prev.Send(EventSessionReplaced, respond.SessionReplacedRespond{Message: "Signed in from another connection"})
		prev.Close()
	}

	s.trySetStatus(ctx, user.Uuid, model.StatusOnline)

	convs, err := s.repos.Conversation.FindActiveByUser(ctx, user.Uuid)
	if err != nil {
		zap.L().Error("load conversations for rooms failed", zap.String("user_id", user.Uuid), zap.Error(err))
		return
	}
	for _, conv := range convs {
		s.directory.Join(conv.Uuid, user.Uuid)
	}
	zap.L().Info("user connected", zap.String("user_id", user.Uuid), zap.String("conn_id", sess.ConnId()), zap.Int("rooms", len(convs)))
}

// Disconnect 断线清理，每一步都尽力执行
// 已被新连接替换的旧连接断开时不做任何清理
func (s *ChatServer) Disconnect(ctx context.Context, sess Session) {
	userId := sess.UserId()
	if !s.directory.Unregister(sess) {
		zap.L().Info("stale connection closed", zap.String("user_id", userId), zap.String("conn_id", sess.ConnId()))
		return
	}

	for _, call := range s.calls.EndAllFor(userId) {
		other := call.Other(userId)
		s.directory.SendTo(other, EventCallEnded, respond.CallEndedRespond{
			CallId:  call.Id,
			EndedBy: userId,
			Reason:  ReasonDisconnected,
		})
		s.trySetStatus(ctx, other, model.StatusOnline)
		s.publish(ctx, mq.EventCallEnded, call.Id, callEvent(call, userId, ReasonDisconnected))
	}

	s.markOffline(ctx, userId)
	zap.L().Info("user disconnected", zap.String("user_id", userId), zap.String("conn_id", sess.ConnId()))
}

// ServeConn 运行一条已认证连接直到断开
func (s *ChatServer) ServeConn(ctx context.Context, user *model.UserInfo, conn *UserConn) {
	if !s.track() {
		zap.L().Info("server shutting down, connection refused", zap.String("user_id", user.Uuid))
		conn.Reject(websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.active.Done()
	s.Connect(ctx, user, conn)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		conn.WritePump()
	}()

	_ = conn.ReadPump(func(env request.WsEnvelope) {
		s.Dispatch(ctx, conn, env)
	})
	conn.Close()
	<-writerDone

	// 请求上下文此时可能已取消，清理仍需完成
	s.Disconnect(context.WithoutCancel(ctx), conn)
}

// Shutdown 关闭所有连接并等待断线清理完成，ctx 到期时直接返回
func (s *ChatServer) Shutdown(ctx context.Context) error {
	s.closeMu.Lock()
	s.closing = true
	s.closeMu.Unlock()

	n := s.directory.CloseAll()
	zap.L().Info("closing websocket connections", zap.Int("count", n))

	done := make(chan struct{})
	go func() {
		s.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track 登记一条运行中的连接，Shutdown 开始后返回 false
func (s *ChatServer) track() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closing {
		return false
	}
	s.active.Add(1)
	return true
}
