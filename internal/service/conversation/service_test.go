package conversation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrasapp_server/internal/dao/memory"
	"terrasapp_server/internal/dao/mysql/repository"
	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/errorx"
)

type recordingMarker struct {
	calls []string
}

func (m *recordingMarker) MarkRead(_ context.Context, readerId string, req request.MarkReadRequest) (bool, error) {
	m.calls = append(m.calls, readerId+"@"+req.ConversationId)
	return true, nil
}

func seed(t *testing.T, n int) (*repository.Repositories, *model.Conversation) {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	for _, id := range []string{"UA", "UB", "UC"} {
		require.NoError(t, repos.User.Create(ctx, &model.UserInfo{Uuid: id, Name: "n" + id, Email: id + "@x.io"}))
	}
	conv, _, err := repos.Conversation.FindOrCreateDirect(ctx, "UA", "UB")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		msg := &model.Message{Uuid: fmt.Sprintf("M%03d", i), ConversationId: conv.Uuid, SendId: "UA", ReceiveId: "UB", Content: fmt.Sprint(i)}
		require.NoError(t, repos.Message.Create(ctx, msg))
		require.NoError(t, repos.Conversation.SetLastMessage(ctx, conv.Uuid, msg.Uuid))
	}
	return repos, conv
}

func TestGetMessagesPaginates(t *testing.T) {
	repos, conv := seed(t, 25)
	marker := &recordingMarker{}
	svc := NewConversationService(repos, marker)
	ctx := context.Background()

	res, err := svc.GetMessages(ctx, "UB", conv.Uuid, request.GetMessagesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pagination.Page)
	assert.Equal(t, 20, res.Pagination.Limit)
	assert.EqualValues(t, 25, res.Pagination.Total)
	assert.Equal(t, 2, res.Pagination.Pages)
	require.Len(t, res.Messages, 20)
	assert.Equal(t, "M024", res.Messages[0].Id, "newest first")

	res, err = svc.GetMessages(ctx, "UB", conv.Uuid, request.GetMessagesRequest{Page: 2, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Pagination.Limit)
	assert.Empty(t, res.Messages)

	assert.Equal(t, []string{"UB@" + conv.Uuid, "UB@" + conv.Uuid}, marker.calls)
}

func TestGetMessagesAccess(t *testing.T) {
	repos, conv := seed(t, 1)
	svc := NewConversationService(repos, nil)
	ctx := context.Background()

	_, err := svc.GetMessages(ctx, "UC", conv.Uuid, request.GetMessagesRequest{})
	assert.True(t, errorx.HasCode(err, errorx.CodeForbidden))
	_, err = svc.GetMessages(ctx, "UA", "C404", request.GetMessagesRequest{})
	assert.True(t, errorx.HasCode(err, errorx.CodeNotFound))
}

func TestListConversations(t *testing.T) {
	repos, conv := seed(t, 2)
	svc := NewConversationService(repos, nil)
	ctx := context.Background()

	list, err := svc.ListConversations(ctx, "UB")
	require.NoError(t, err)
	require.Len(t, list, 1)
	item := list[0]
	assert.Equal(t, conv.Uuid, item.Id)
	assert.Equal(t, 1, item.UnreadCount)
	require.NotNil(t, item.LastMessage)
	assert.Equal(t, "M001", item.LastMessage.Id)
	require.Len(t, item.Participants, 2)
	for _, p := range item.Participants {
		assert.Equal(t, "n"+p.Id, p.Name)
	}

	// 最新消息对自己隐藏后不再展示
	require.NoError(t, repos.Message.HideFor(ctx, "M001", "UB"))
	list, err = svc.ListConversations(ctx, "UB")
	require.NoError(t, err)
	assert.Nil(t, list[0].LastMessage)

	list, err = svc.ListConversations(ctx, "UC")
	require.NoError(t, err)
	assert.Empty(t, list)
}
