package memory

import (
	"context"
	"time"

	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/errorx"
)

type userRepository struct {
	s    *Store
	undo *undoLog
}

func (r *userRepository) FindByUuid(_ context.Context, uuid string) (*model.UserInfo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[uuid]
	if !ok {
		return nil, notFound("查询用户 uuid=%s", uuid)
	}
	return copyUser(u), nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*model.UserInfo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, notFound("查询用户 email=%s", email)
}

func (r *userRepository) FindByUuids(_ context.Context, uuids []string) ([]model.UserInfo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]model.UserInfo, 0, len(uuids))
	for _, id := range uuids {
		if u, ok := r.s.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *userRepository) Create(_ context.Context, user *model.UserInfo) error {
	if err := user.HashPassword(); err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "加密密码")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.Uuid]; ok {
		return errorx.Newf(errorx.CodeDBError, "创建用户: duplicate uuid %s", user.Uuid)
	}
	for _, u := range r.s.users {
		if user.Email != "" && u.Email == user.Email {
			return errorx.Newf(errorx.CodeDBError, "创建用户: duplicate email %s", user.Email)
		}
	}
	user.ID, user.CreatedAt = r.s.nextModel()
	user.UpdatedAt = user.CreatedAt
	if user.Status == "" {
		user.Status = model.StatusOffline
	}
	r.s.users[user.Uuid] = copyUser(user)
	uuid := user.Uuid
	r.undo.record(func() { delete(r.s.users, uuid) })
	return nil
}

func (r *userRepository) UpdatePresence(_ context.Context, uuid, status string, lastSeen time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[uuid]
	if !ok {
		return notFound("更新用户状态 uuid=%s", uuid)
	}
	prevStatus, prevSeen := u.Status, u.LastSeen
	r.undo.record(func() { u.Status, u.LastSeen = prevStatus, prevSeen })
	u.Status = status
	u.LastSeen = validTime(lastSeen)
	return nil
}

func (r *userRepository) FindContactIds(_ context.Context, uuid string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]string(nil), r.s.contacts[uuid]...), nil
}

func (r *userRepository) AddContact(_ context.Context, userId, contactId string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.addContactLocked(userId, contactId) {
		r.undo.record(func() { r.s.removeContactLocked(userId, contactId) })
	}
	return nil
}

func (r *userRepository) RemoveContact(_ context.Context, userId, contactId string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	removed := r.s.removeContactLocked(userId, contactId)
	if removed {
		r.undo.record(func() { r.s.addContactLocked(userId, contactId) })
	}
	return removed, nil
}
