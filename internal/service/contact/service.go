// Package contact 联系人列表维护
// 联系人关系是单向的：A 把 B 加入列表后，A 的状态变化会推送给 B
package contact

import (
	"context"

	"go.uber.org/zap"

	"terrasapp_server/internal/dao/mysql/repository"
	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/pkg/errorx"
)

var (
	errAddSelf         = errorx.New(errorx.CodeInvalidParam, "Cannot add yourself as a contact")
	errUserNotExist    = errorx.New(errorx.CodeUserNotExist, "User not found")
	errContactNotFound = errorx.New(errorx.CodeNotFound, "Contact not found")
)

type Service struct {
	repos *repository.Repositories
}

func NewContactService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// ListContacts 按加入顺序返回联系人，已不存在的用户跳过
func (s *Service) ListContacts(ctx context.Context, userId string) ([]respond.ContactRespond, error) {
	ids, err := s.repos.User.FindContactIds(ctx, userId)
	if err != nil {
		return nil, err
	}
	res := make([]respond.ContactRespond, 0, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	users, err := s.repos.User.FindByUuids(ctx, ids)
	if err != nil {
		return nil, err
	}
	byId := make(map[string]int, len(users))
	for i := range users {
		byId[users[i].Uuid] = i
	}
	for _, id := range ids {
		if i, ok := byId[id]; ok {
			res = append(res, respond.FromContact(&users[i]))
		}
	}
	return res, nil
}

// AddContact 重复添加不报错
func (s *Service) AddContact(ctx context.Context, userId, contactId string) (*respond.ContactRespond, error) {
	if contactId == userId {
		return nil, errAddSelf
	}
	user, err := s.repos.User.FindByUuid(ctx, contactId)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errUserNotExist
		}
		return nil, err
	}
	if err := s.repos.User.AddContact(ctx, userId, contactId); err != nil {
		return nil, err
	}
	zap.L().Info("contact added", zap.String("user_id", userId), zap.String("contact_id", contactId))
	rsp := respond.FromContact(user)
	return &rsp, nil
}

func (s *Service) RemoveContact(ctx context.Context, userId, contactId string) error {
	removed, err := s.repos.User.RemoveContact(ctx, userId, contactId)
	if err != nil {
		return err
	}
	if !removed {
		return errContactNotFound
	}
	zap.L().Info("contact removed", zap.String("user_id", userId), zap.String("contact_id", contactId))
	return nil
}
