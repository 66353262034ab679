package chat

import (
	"context"

	"go.uber.org/zap"

	"terrasapp_server/internal/dao/mysql/repository"
	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/internal/infrastructure/mq"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/constants"
	"terrasapp_server/pkg/errorx"
	"terrasapp_server/pkg/util/snowflake"
)

var (
	errConversationNotFound = errorx.New(errorx.CodeNotFound, "Conversation not found")
	errNotParticipant       = errorx.New(errorx.CodeForbidden, "Not a participant of this conversation")
	errReplyNotFound        = errorx.New(errorx.CodeNotFound, "Replied message not found")
	errRecipientMismatch    = errorx.New(errorx.CodeInvalidParam, "Recipient is not the other participant of this conversation")
)

// SendMessage 持久化一条消息并推送给接收方，最后回执发送方
//
// 未指定会话时原子地查找或创建双方的单聊会话：新建会话时接收方未读数初始化为 1，
// 已存在时接收方未读数 +1。指定会话时除发送者外的所有参与者未读数 +1。
func (s *ChatServer) SendMessage(ctx context.Context, sender Session, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	senderId := sender.UserId()
	if req.RecipientId == senderId {
		return nil, errorx.New(errorx.CodeInvalidParam, "Cannot send a message to yourself")
	}
	if req.ContentType == "" {
		req.ContentType = model.ContentTypeText
	}

	user, err := s.repos.User.FindByUuid(ctx, senderId)
	if err != nil {
		return nil, err
	}

	var parent *model.Message
	if req.ReplyTo != "" {
		if parent, err = s.repos.Message.FindByUuid(ctx, req.ReplyTo); err != nil {
			if errorx.IsNotFound(err) {
				return nil, errReplyNotFound
			}
			return nil, err
		}
	}

	msg := &model.Message{
		Uuid:          snowflake.NewUuid(snowflake.PrefixMessage),
		SendId:        senderId,
		SendName:      user.Name,
		SendAvatar:    user.Avatar,
		ReceiveId:     req.RecipientId,
		Content:       req.Content,
		ContentType:   req.ContentType,
		FileUrl:       req.FileUrl,
		FileName:      req.FileName,
		FileSize:      req.FileSize,
		FileThumbnail: req.FileThumbnail,
		ReplyTo:       req.ReplyTo,
	}

	var (
		conv    *model.Conversation
		created bool
	)
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var unread []string
		var err error
		conv, created, unread, err = resolveConversation(ctx, tx, senderId, req, parent)
		if err != nil {
			return err
		}
		msg.ConversationId = conv.Uuid
		if err := tx.Message.Create(ctx, msg); err != nil {
			return err
		}
		if len(unread) > 0 {
			if err := tx.Conversation.IncrementUnread(ctx, conv.Uuid, unread); err != nil {
				return err
			}
		}
		return tx.Conversation.SetLastMessage(ctx, conv.Uuid, msg.Uuid)
	})
	if err != nil {
		return nil, err
	}

	if created {
		// 新的单聊会话，在线的双方加入房间
		for _, id := range []string{senderId, req.RecipientId} {
			if _, ok := s.directory.Lookup(id); ok {
				s.directory.Join(conv.Uuid, id)
			}
		}
	}

	res := respond.FromMessage(msg)
	if conv.IsGroup {
		s.directory.Broadcast(conv.Uuid, senderId, EventMessageReceive, res)
	} else {
		s.directory.SendTo(req.RecipientId, EventMessageReceive, res)
	}
	sender.Send(EventMessageSent, res)

	s.publish(ctx, mq.EventMessageSent, conv.Uuid, res)
	return &res, nil
}

// resolveConversation 返回会话、是否新建以及需要未读数 +1 的参与者
func resolveConversation(ctx context.Context, tx *repository.Repositories, senderId string, req request.SendMessageRequest, parent *model.Message) (*model.Conversation, bool, []string, error) {
	if req.ConversationId != "" {
		conv, err := tx.Conversation.FindByUuid(ctx, req.ConversationId)
		if err != nil {
			if errorx.IsNotFound(err) {
				return nil, false, nil, errConversationNotFound
			}
			return nil, false, nil, err
		}
		if !conv.IsActive {
			return nil, false, nil, errConversationNotFound
		}
		if !conv.HasParticipant(senderId) {
			return nil, false, nil, errNotParticipant
		}
		if !conv.IsGroup {
			others := conv.OtherParticipantIds(senderId)
			if len(others) != 1 || others[0] != req.RecipientId {
				return nil, false, nil, errRecipientMismatch
			}
		}
		if parent != nil && parent.ConversationId != conv.Uuid {
			return nil, false, nil, errReplyNotFound
		}
		return conv, false, conv.OtherParticipantIds(senderId), nil
	}

	if _, err := tx.User.FindByUuid(ctx, req.RecipientId); err != nil {
		if errorx.IsNotFound(err) {
			return nil, false, nil, errorx.New(errorx.CodeNotFound, "Recipient not found")
		}
		return nil, false, nil, err
	}
	if parent != nil {
		// 回复只能发生在已有会话里
		existing, err := tx.Conversation.FindDirect(ctx, senderId, req.RecipientId)
		if err != nil && !errorx.IsNotFound(err) {
			return nil, false, nil, err
		}
		if existing == nil || existing.Uuid != parent.ConversationId {
			return nil, false, nil, errReplyNotFound
		}
	}

	conv, created, err := tx.Conversation.FindOrCreateDirect(ctx, senderId, req.RecipientId)
	if err != nil {
		return nil, false, nil, err
	}
	if created {
		// 新建时未读数已初始化为 1
		return conv, true, nil, nil
	}
	return conv, false, []string{req.RecipientId}, nil
}

// MarkRead 将会话中发给 readerId 的消息标记为已读并清零未读数
// 有变化时通知在线的其他参与者；重复调用不产生任何副作用，返回 false
func (s *ChatServer) MarkRead(ctx context.Context, readerId string, req request.MarkReadRequest) (bool, error) {
	if err := s.check(req); err != nil {
		return false, err
	}
	conv, err := s.loadParticipantConversation(ctx, req.ConversationId, readerId)
	if err != nil {
		return false, err
	}

	var changed bool
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		n, err := tx.Message.MarkRead(ctx, conv.Uuid, readerId, s.now())
		if err != nil {
			return err
		}
		reset, err := tx.Conversation.ResetUnread(ctx, conv.Uuid, readerId)
		if err != nil {
			return err
		}
		changed = n > 0 || reset
		return nil
	})
	if err != nil || !changed {
		return false, err
	}

	payload := respond.MessageReadRespond{ConversationId: conv.Uuid, ReadBy: readerId}
	for _, other := range conv.OtherParticipantIds(readerId) {
		s.directory.SendTo(other, EventMessageRead, payload)
	}
	s.publish(ctx, mq.EventMessageRead, conv.Uuid, payload)
	return true, nil
}

// DeleteMessage 发送者删除则对所有人隐藏，其他参与者删除只对自己隐藏
func (s *ChatServer) DeleteMessage(ctx context.Context, requesterId, messageId string) error {
	if messageId == "" {
		return errorx.New(errorx.CodeInvalidParam, "messageId is required")
	}
	msg, err := s.repos.Message.FindByUuid(ctx, messageId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.New(errorx.CodeNotFound, "Message not found")
		}
		return err
	}

	forEveryone := msg.SendId == requesterId
	if forEveryone {
		err = s.repos.Message.MarkDeleted(ctx, messageId)
	} else {
		if _, err = s.loadParticipantConversation(ctx, msg.ConversationId, requesterId); err != nil {
			return err
		}
		err = s.repos.Message.HideFor(ctx, messageId, requesterId)
	}
	if err != nil {
		return err
	}

	s.publish(ctx, mq.EventMessageDeleted, msg.ConversationId, map[string]any{
		"messageId":   messageId,
		"deletedBy":   requesterId,
		"forEveryone": forEveryone,
	})
	return nil
}

// CreateGroup 创建群聊，创建者为管理员，在线成员加入房间
func (s *ChatServer) CreateGroup(ctx context.Context, creatorId string, req request.CreateGroupRequest) (*respond.ConversationRespond, error) {
	ids := []string{creatorId}
	seen := map[string]struct{}{creatorId: {}}
	for _, id := range req.Participants {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) < constants.MIN_GROUP_PARTICIPANT {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "A group needs at least %d participants", constants.MIN_GROUP_PARTICIPANT)
	}
	if req.GroupName == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "groupName is required")
	}

	users, err := s.repos.User.FindByUuids(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, errorx.New(errorx.CodeNotFound, "Participant not found")
	}

	conv := &model.Conversation{
		Uuid:        snowflake.NewUuid(snowflake.PrefixConversation),
		IsGroup:     true,
		GroupName:   req.GroupName,
		GroupAvatar: req.GroupAvatar,
		GroupAdmin:  creatorId,
		IsActive:    true,
	}
	if err := s.repos.Conversation.CreateGroup(ctx, conv, ids); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := s.directory.Lookup(id); ok {
			s.directory.Join(conv.Uuid, id)
		}
	}

	byId := make(map[string]model.UserInfo, len(users))
	for _, u := range users {
		byId[u.Uuid] = u
	}
	res := respond.FromConversation(conv, creatorId, byId, nil)
	zap.L().Info("group created", zap.String("conversation_id", conv.Uuid), zap.String("admin", creatorId), zap.Int("participants", len(ids)))
	return &res, nil
}

// loadParticipantConversation 加载会话并校验用户为参与者
func (s *ChatServer) loadParticipantConversation(ctx context.Context, conversationId, userId string) (*model.Conversation, error) {
	conv, err := s.repos.Conversation.FindByUuid(ctx, conversationId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(userId) {
		return nil, errNotParticipant
	}
	return conv, nil
}
