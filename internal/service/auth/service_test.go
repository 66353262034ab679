package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrasapp_server/internal/dao/memory"
	"terrasapp_server/internal/dto/request"
	"terrasapp_server/pkg/errorx"
	"terrasapp_server/pkg/util/jwt"
)

func newService(t *testing.T) *Service {
	t.Helper()
	jwt.Init("auth-test-secret", 10)
	return NewAuthService(memory.NewStore().Repositories())
}

func TestRegisterLoginVerify(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, request.RegisterRequest{Name: "Alice", Email: "Alice@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, "alice@example.com", reg.Email)

	_, err = svc.Register(ctx, request.RegisterRequest{Name: "Again", Email: "alice@example.com", Password: "secret1"})
	assert.True(t, errorx.HasCode(err, errorx.CodeUserExist))

	login, err := svc.Login(ctx, request.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.Uuid, login.Uuid)

	_, err = svc.Login(ctx, request.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.True(t, errorx.HasCode(err, errorx.CodeInvalidPassword))
	_, err = svc.Login(ctx, request.LoginRequest{Email: "bob@example.com", Password: "secret1"})
	assert.True(t, errorx.HasCode(err, errorx.CodeUserNotExist))

	user, err := svc.Verify(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.Uuid, user.Uuid)
}

func TestVerifyRejects(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "not-a-token")
	assert.True(t, errorx.HasCode(err, errorx.CodeUnauthorized))

	// 令牌有效但用户不存在
	token, err := jwt.GenerateAccessToken("U404")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, token)
	assert.True(t, errorx.HasCode(err, errorx.CodeUnauthorized))
}
