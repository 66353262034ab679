// Package conversation 会话列表与历史消息查询
package conversation

import (
	"context"

	"go.uber.org/zap"

	"terrasapp_server/internal/dao/mysql/repository"
	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/constants"
	"terrasapp_server/pkg/errorx"
)

// ReadMarker 标记已读并通知对端，由实时消息引擎实现
type ReadMarker interface {
	MarkRead(ctx context.Context, readerId string, req request.MarkReadRequest) (bool, error)
}

type Service struct {
	repos  *repository.Repositories
	marker ReadMarker
}

func NewConversationService(repos *repository.Repositories, marker ReadMarker) *Service {
	return &Service{repos: repos, marker: marker}
}

// ListConversations 用户参与的有效会话，最近更新的在前
func (s *Service) ListConversations(ctx context.Context, userId string) ([]respond.ConversationRespond, error) {
	convs, err := s.repos.Conversation.FindActiveByUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, conv := range convs {
		for _, p := range conv.Participants {
			if _, ok := seen[p.UserId]; !ok {
				seen[p.UserId] = struct{}{}
				ids = append(ids, p.UserId)
			}
		}
	}
	users := make(map[string]model.UserInfo, len(ids))
	if len(ids) > 0 {
		found, err := s.repos.User.FindByUuids(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, u := range found {
			users[u.Uuid] = u
		}
	}

	res := make([]respond.ConversationRespond, 0, len(convs))
	for i := range convs {
		conv := &convs[i]
		res = append(res, respond.FromConversation(conv, userId, users, s.lastMessage(ctx, conv, userId)))
	}
	return res, nil
}

// lastMessage 对当前用户不可见时不返回
func (s *Service) lastMessage(ctx context.Context, conv *model.Conversation, viewerId string) *model.Message {
	if conv.LastMessageId == "" {
		return nil
	}
	msg, err := s.repos.Message.FindByUuid(ctx, conv.LastMessageId)
	if err != nil {
		if !errorx.IsNotFound(err) {
			zap.L().Warn("load last message failed", zap.String("conversation_id", conv.Uuid), zap.Error(err))
		}
		return nil
	}
	if !msg.VisibleTo(viewerId) {
		return nil
	}
	return msg
}

// GetMessages 分页查询对用户可见的消息（最新在前），随后将会话标记为已读
func (s *Service) GetMessages(ctx context.Context, userId, conversationId string, req request.GetMessagesRequest) (*respond.MessageListRespond, error) {
	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = constants.DEFAULT_PAGE_LIMIT
	}
	if limit > constants.MAX_PAGE_LIMIT {
		limit = constants.MAX_PAGE_LIMIT
	}

	conv, err := s.repos.Conversation.FindByUuid(ctx, conversationId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "Conversation not found")
		}
		return nil, err
	}
	if !conv.HasParticipant(userId) {
		return nil, errorx.New(errorx.CodeForbidden, "Not a participant of this conversation")
	}

	msgs, total, err := s.repos.Message.FindVisible(ctx, conversationId, userId, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	res := &respond.MessageListRespond{
		Messages: make([]respond.MessageRespond, 0, len(msgs)),
		Pagination: respond.PaginationRespond{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}
	for i := range msgs {
		res.Messages = append(res.Messages, respond.FromMessage(&msgs[i]))
	}

	if s.marker != nil {
		if _, err := s.marker.MarkRead(ctx, userId, request.MarkReadRequest{ConversationId: conversationId}); err != nil {
			zap.L().Warn("mark read after fetch failed", zap.String("conversation_id", conversationId), zap.Error(err))
		}
	}
	return res, nil
}
