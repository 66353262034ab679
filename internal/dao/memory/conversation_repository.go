package memory

import (
	"context"

	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/util/snowflake"
)

type conversationRepository struct {
	s    *Store
	undo *undoLog
}

func (r *conversationRepository) FindByUuid(_ context.Context, uuid string) (*model.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	conv, ok := r.s.conversations[uuid]
	if !ok {
		return nil, notFound("查询会话 uuid=%s", uuid)
	}
	return copyConversation(conv), nil
}

func (r *conversationRepository) FindDirect(_ context.Context, userOneId, userTwoId string) (*model.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := model.PairKey(userOneId, userTwoId)
	uuid, ok := r.s.pairIndex[key]
	if !ok {
		return nil, notFound("查询单聊会话 pair_key=%s", key)
	}
	return copyConversation(r.s.conversations[uuid]), nil
}

// FindOrCreateDirect 查找与创建在同一把锁内完成
func (r *conversationRepository) FindOrCreateDirect(_ context.Context, senderId, recipientId string) (*model.Conversation, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := model.PairKey(senderId, recipientId)
	if uuid, ok := r.s.pairIndex[key]; ok {
		return copyConversation(r.s.conversations[uuid]), false, nil
	}

	id, now := r.s.nextModel()
	conv := &model.Conversation{
		Uuid:     snowflake.NewUuid(snowflake.PrefixConversation),
		PairKey:  &key,
		IsActive: true,
		Participants: []model.ConversationParticipant{
			{ConversationId: "", UserId: senderId, UnreadCount: 0, CreatedAt: now},
			{ConversationId: "", UserId: recipientId, UnreadCount: 1, CreatedAt: now},
		},
	}
	conv.ID, conv.CreatedAt, conv.UpdatedAt = id, now, now
	for i := range conv.Participants {
		conv.Participants[i].ID = id
		conv.Participants[i].ConversationId = conv.Uuid
	}
	r.s.conversations[conv.Uuid] = conv
	r.s.pairIndex[key] = conv.Uuid
	r.undo.record(func() {
		delete(r.s.conversations, conv.Uuid)
		delete(r.s.pairIndex, key)
	})
	return copyConversation(conv), true, nil
}

func (r *conversationRepository) CreateGroup(_ context.Context, conv *model.Conversation, participantIds []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, now := r.s.nextModel()
	conv.ID, conv.CreatedAt, conv.UpdatedAt = id, now, now
	conv.PairKey = nil
	conv.IsGroup = true
	conv.IsActive = true
	conv.Participants = make([]model.ConversationParticipant, 0, len(participantIds))
	for _, uid := range participantIds {
		conv.Participants = append(conv.Participants, model.ConversationParticipant{
			ID: id, ConversationId: conv.Uuid, UserId: uid, CreatedAt: now,
		})
	}
	r.s.conversations[conv.Uuid] = copyConversation(conv)
	uuid := conv.Uuid
	r.undo.record(func() { delete(r.s.conversations, uuid) })
	return nil
}

func (r *conversationRepository) FindActiveByUser(_ context.Context, userId string) ([]model.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	convs := make([]model.Conversation, 0)
	for _, conv := range r.s.conversations {
		if conv.IsActive && conv.HasParticipant(userId) {
			convs = append(convs, *copyConversation(conv))
		}
	}
	sortByUpdatedDesc(convs)
	return convs, nil
}

func (r *conversationRepository) IncrementUnread(_ context.Context, conversationId string, userIds []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	conv, ok := r.s.conversations[conversationId]
	if !ok {
		return notFound("增加未读数 conversation=%s", conversationId)
	}
	var bumped []int
	for i := range conv.Participants {
		for _, uid := range userIds {
			if conv.Participants[i].UserId == uid {
				conv.Participants[i].UnreadCount++
				bumped = append(bumped, i)
			}
		}
	}
	r.undo.record(func() {
		for _, i := range bumped {
			conv.Participants[i].UnreadCount--
		}
	})
	return nil
}

func (r *conversationRepository) ResetUnread(_ context.Context, conversationId, userId string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	conv, ok := r.s.conversations[conversationId]
	if !ok {
		return false, notFound("清零未读数 conversation=%s", conversationId)
	}
	for i := range conv.Participants {
		if p := &conv.Participants[i]; p.UserId == userId && p.UnreadCount > 0 {
			prev := p.UnreadCount
			r.undo.record(func() { p.UnreadCount = prev })
			p.UnreadCount = 0
			return true, nil
		}
	}
	return false, nil
}

func (r *conversationRepository) SetLastMessage(_ context.Context, conversationId, messageId string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	conv, ok := r.s.conversations[conversationId]
	if !ok {
		return notFound("更新最新消息 conversation=%s", conversationId)
	}
	prevId, prevAt := conv.LastMessageId, conv.UpdatedAt
	r.undo.record(func() { conv.LastMessageId, conv.UpdatedAt = prevId, prevAt })
	conv.LastMessageId = messageId
	_, conv.UpdatedAt = r.s.nextModel()
	return nil
}
