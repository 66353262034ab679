// Package auth 提供注册、登录与握手凭证校验
package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"terrasapp_server/internal/dao/mysql/repository"
	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/errorx"
	"terrasapp_server/pkg/util/jwt"
	"terrasapp_server/pkg/util/snowflake"
)

// Service 认证服务实现
type Service struct {
	repos *repository.Repositories
}

// NewAuthService 创建认证服务实例
func NewAuthService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// Register 邮箱注册，成功后直接返回访问令牌
func (s *Service) Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repos.User.FindByEmail(ctx, email); err == nil {
		return nil, errorx.New(errorx.CodeUserExist, "该邮箱已注册")
	} else if !errorx.IsNotFound(err) {
		zap.L().Error("查询邮箱失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	user := &model.UserInfo{
		Uuid:        snowflake.NewUuid(snowflake.PrefixUser),
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		RawPassword: req.Password,
		Status:      model.StatusOffline,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		zap.L().Error("创建用户失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	zap.L().Info("user registered", zap.String("user_id", user.Uuid))
	return s.issue(user)
}

// Login 邮箱密码登录
func (s *Service) Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error) {
	user, err := s.repos.User.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在，请注册")
		}
		zap.L().Error("查询用户失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if !user.CheckPassword(req.Password) {
		return nil, errorx.New(errorx.CodeInvalidPassword, "密码不正确，请重试")
	}
	return s.issue(user)
}

// Verify 解析访问令牌并确认用户存在，用于 WebSocket 握手
func (s *Service) Verify(ctx context.Context, token string) (*model.UserInfo, error) {
	claims, err := jwt.ParseAccessToken(token)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeUnauthorized, "Token 已过期或无效")
	}
	user, err := s.repos.User.FindByUuid(ctx, claims.UserID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Wrap(err, errorx.CodeUnauthorized, "用户不存在")
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) issue(user *model.UserInfo) (*respond.LoginRespond, error) {
	accessToken, err := jwt.GenerateAccessToken(user.Uuid)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return &respond.LoginRespond{
		Uuid:        user.Uuid,
		Name:        user.Name,
		Email:       user.Email,
		Avatar:      user.Avatar,
		Status:      user.Status,
		AccessToken: accessToken,
	}, nil
}
