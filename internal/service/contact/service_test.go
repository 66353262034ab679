package contact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrasapp_server/internal/dao/memory"
	"terrasapp_server/internal/dao/mysql/repository"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/errorx"
)

func seed(t *testing.T) *repository.Repositories {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	for _, id := range []string{"UA", "UB", "UC"} {
		require.NoError(t, repos.User.Create(ctx, &model.UserInfo{Uuid: id, Name: "n" + id, Email: id + "@x.io"}))
	}
	return repos
}

func TestAddAndListContacts(t *testing.T) {
	repos := seed(t)
	svc := NewContactService(repos)
	ctx := context.Background()

	rsp, err := svc.AddContact(ctx, "UA", "UC")
	require.NoError(t, err)
	assert.Equal(t, "UC", rsp.UserId)
	assert.Equal(t, "nUC", rsp.Name)
	assert.Equal(t, model.StatusOffline, rsp.Status)
	assert.Nil(t, rsp.LastSeen)

	_, err = svc.AddContact(ctx, "UA", "UB")
	require.NoError(t, err)
	_, err = svc.AddContact(ctx, "UA", "UC")
	require.NoError(t, err, "adding twice is accepted")

	list, err := svc.ListContacts(ctx, "UA")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "UC", list[0].UserId)
	assert.Equal(t, "UB", list[1].UserId)

	list, err = svc.ListContacts(ctx, "UB")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list, "contacts are one-directional")
}

func TestAddContactRejectsSelfAndUnknown(t *testing.T) {
	svc := NewContactService(seed(t))
	ctx := context.Background()

	_, err := svc.AddContact(ctx, "UA", "UA")
	assert.True(t, errorx.HasCode(err, errorx.CodeInvalidParam))
	_, err = svc.AddContact(ctx, "UA", "U404")
	assert.True(t, errorx.HasCode(err, errorx.CodeUserNotExist))

	list, err := svc.ListContacts(ctx, "UA")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRemoveContact(t *testing.T) {
	repos := seed(t)
	svc := NewContactService(repos)
	ctx := context.Background()
	_, err := svc.AddContact(ctx, "UA", "UB")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveContact(ctx, "UA", "UB"))
	err = svc.RemoveContact(ctx, "UA", "UB")
	assert.True(t, errorx.HasCode(err, errorx.CodeNotFound))

	ids, err := repos.User.FindContactIds(ctx, "UA")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListContactsSkipsMissingUsers(t *testing.T) {
	repos := seed(t)
	svc := NewContactService(repos)
	ctx := context.Background()
	require.NoError(t, repos.User.AddContact(ctx, "UA", "U404"))
	require.NoError(t, repos.User.AddContact(ctx, "UA", "UB"))

	list, err := svc.ListContacts(ctx, "UA")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "UB", list[0].UserId)
}
