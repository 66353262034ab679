package memory

import (
	"context"
	"database/sql"
	"time"

	"terrasapp_server/internal/model"
)

type messageRepository struct {
	s    *Store
	undo *undoLog
}

func (r *messageRepository) Create(_ context.Context, msg *model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg.ID, msg.CreatedAt = r.s.nextModel()
	msg.UpdatedAt = msg.CreatedAt
	if msg.ContentType == "" {
		msg.ContentType = model.ContentTypeText
	}
	r.s.messages[msg.Uuid] = copyMessage(msg)
	r.s.byConv[msg.ConversationId] = append(r.s.byConv[msg.ConversationId], msg.Uuid)
	uuid, convId := msg.Uuid, msg.ConversationId
	r.undo.record(func() {
		delete(r.s.messages, uuid)
		ids := r.s.byConv[convId]
		for i := len(ids) - 1; i >= 0; i-- {
			if ids[i] == uuid {
				r.s.byConv[convId] = append(ids[:i:i], ids[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (r *messageRepository) FindByUuid(_ context.Context, uuid string) (*model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg, ok := r.s.messages[uuid]
	if !ok {
		return nil, notFound("查询消息 uuid=%s", uuid)
	}
	return copyMessage(msg), nil
}

// FindVisible 按创建时间倒序分页
func (r *messageRepository) FindVisible(_ context.Context, conversationId, viewerId string, offset, limit int) ([]model.Message, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := r.s.byConv[conversationId]
	visible := make([]model.Message, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		msg := r.s.messages[ids[i]]
		if msg.VisibleTo(viewerId) {
			visible = append(visible, *copyMessage(msg))
		}
	}
	total := int64(len(visible))
	if offset >= len(visible) {
		return []model.Message{}, total, nil
	}
	end := offset + limit
	if end > len(visible) {
		end = len(visible)
	}
	return visible[offset:end], total, nil
}

func (r *messageRepository) MarkRead(_ context.Context, conversationId, readerId string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var marked []*model.Message
	for _, id := range r.s.byConv[conversationId] {
		msg := r.s.messages[id]
		if msg.SendId != readerId && !msg.ReadAt.Valid && !msg.IsDeleted {
			msg.ReadAt = validTime(at)
			marked = append(marked, msg)
		}
	}
	r.undo.record(func() {
		for _, msg := range marked {
			msg.ReadAt = sql.NullTime{}
		}
	})
	return int64(len(marked)), nil
}

func (r *messageRepository) MarkDeleted(_ context.Context, uuid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg, ok := r.s.messages[uuid]
	if !ok {
		return notFound("撤回消息 uuid=%s", uuid)
	}
	prev := msg.IsDeleted
	r.undo.record(func() { msg.IsDeleted = prev })
	msg.IsDeleted = true
	return nil
}

func (r *messageRepository) HideFor(_ context.Context, uuid, userId string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg, ok := r.s.messages[uuid]
	if !ok {
		return notFound("删除消息 uuid=%s", uuid)
	}
	for _, d := range msg.DeletedFor {
		if d.UserId == userId {
			return nil
		}
	}
	id, now := r.s.nextModel()
	prev := msg.DeletedFor
	r.undo.record(func() { msg.DeletedFor = prev })
	msg.DeletedFor = append(msg.DeletedFor[:len(msg.DeletedFor):len(msg.DeletedFor)], model.MessageDeletion{ID: id, MessageId: uuid, UserId: userId, CreatedAt: now})
	return nil
}
