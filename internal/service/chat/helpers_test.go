package chat

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"terrasapp_server/internal/dao/memory"
	"terrasapp_server/internal/dao/mysql/repository"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/errorx"
)

type sentEvent struct {
	Event   string
	Payload any
}

// fakeSession 记录推送事件的 Session
type fakeSession struct {
	userId string
	connId string

	mu     sync.Mutex
	events []sentEvent
	closed bool
}

func newFakeSession(userId, connId string) *fakeSession {
	return &fakeSession{userId: userId, connId: connId}
}

func (f *fakeSession) UserId() string { return f.userId }
func (f *fakeSession) ConnId() string { return f.connId }

func (f *fakeSession) Send(event string, payload any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.events = append(f.events, sentEvent{Event: event, Payload: payload})
	return true
}

func (f *fakeSession) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// named 返回指定事件的全部 payload
func (f *fakeSession) named(event string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

func (f *fakeSession) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

type tokenVerifier struct {
	repos *repository.Repositories
}

func (v tokenVerifier) Verify(ctx context.Context, token string) (*model.UserInfo, error) {
	user, err := v.repos.User.FindByUuid(ctx, token)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeUnauthorized, "unknown user")
	}
	return user, nil
}

var connSeq int64

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memory.Store
	repos  *repository.Repositories
	server *ChatServer

	clockMu sync.Mutex
	clock   time.Time
}

func newFixture(t *testing.T, userIds ...string) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store,
		repos: repos,
		clock: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.server = NewChatServer(repos, tokenVerifier{repos: repos}, Options{
		Now: func() time.Time {
			f.clockMu.Lock()
			defer f.clockMu.Unlock()
			f.clock = f.clock.Add(time.Millisecond)
			return f.clock
		},
	})
	for _, id := range userIds {
		require.NoError(t, repos.User.Create(f.ctx, &model.UserInfo{
			Uuid:        id,
			Name:        "name-" + id,
			Email:       id + "@example.com",
			RawPassword: "secret1",
		}))
	}
	return f
}

// connect 以新连接上线
func (f *fixture) connect(userId string) *fakeSession {
	f.t.Helper()
	user, err := f.server.Authenticate(f.ctx, userId)
	require.NoError(f.t, err)
	sess := newFakeSession(userId, fmt.Sprintf("%s-%d", userId, atomic.AddInt64(&connSeq, 1)))
	f.server.Connect(f.ctx, user, sess)
	return sess
}

func (f *fixture) user(userId string) *model.UserInfo {
	f.t.Helper()
	u, err := f.repos.User.FindByUuid(f.ctx, userId)
	require.NoError(f.t, err)
	return u
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, errorx.HasCode(err, code), "want code %d, got %v", code, err)
}
