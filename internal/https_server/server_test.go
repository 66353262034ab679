package https_server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrasapp_server/internal/config"
	"terrasapp_server/internal/dao/memory"
	"terrasapp_server/internal/handler"
	"terrasapp_server/internal/service"
	"terrasapp_server/internal/service/chat"
	"terrasapp_server/pkg/errorx"
	"terrasapp_server/pkg/util/jwt"
)

type apiResponse struct {
	Code int             `json:"code"`
	Msg  json.RawMessage `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type account struct {
	Uuid        string `json:"uuid"`
	AccessToken string `json:"access_token"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	jwt.Init("server-test-secret", 10)
	svc := service.NewServices(memory.NewStore().Repositories(), chat.Options{})
	engine := Init(handler.NewHandlers(svc, &config.WsConfig{}), &config.MainConfig{Mode: "release"})
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func register(t *testing.T, srv *httptest.Server, name string) account {
	t.Helper()
	status, rsp := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, errorx.CodeSuccess, rsp.Code, string(rsp.Msg))

	var acc account
	require.NoError(t, json.Unmarshal(rsp.Data, &acc))
	require.NotEmpty(t, acc.AccessToken)
	return acc
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil 读取帧直到出现指定事件，跳过 user:status 等无关推送
func readUntil(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f wsFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Event == event {
			return f.Data
		}
	}
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	status, rsp := doJSON(t, http.MethodGet, srv.URL+"/api/conversations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, errorx.CodeUnauthorized, rsp.Code)
}

func TestRegisterValidationAndLogin(t *testing.T) {
	srv := newTestServer(t)
	_, rsp := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]string{"name": "x", "email": "bad"})
	assert.Equal(t, errorx.CodeInvalidParam, rsp.Code)

	register(t, srv, "carol")
	_, rsp = doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]string{
		"name": "carol", "email": "carol@example.com", "password": "secret123",
	})
	assert.Equal(t, errorx.CodeUserExist, rsp.Code)

	_, rsp = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email": "carol@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, errorx.CodeInvalidPassword, rsp.Code)

	_, rsp = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email": "carol@example.com", "password": "secret123",
	})
	assert.Equal(t, errorx.CodeSuccess, rsp.Code)
}

func TestDirectMessageFlow(t *testing.T) {
	srv := newTestServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")

	aConn := dial(t, srv, alice.AccessToken)
	bConn := dial(t, srv, bob.AccessToken)

	// 两端都已上线
	require.Eventually(t, func() bool {
		_, rsp := doJSON(t, http.MethodGet, srv.URL+"/api/presence/online", alice.AccessToken, nil)
		var online struct {
			UserIds []string `json:"userIds"`
		}
		_ = json.Unmarshal(rsp.Data, &online)
		return len(online.UserIds) == 2
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, aConn.WriteJSON(map[string]any{
		"event": chat.EventMessageSend,
		"data":  map[string]string{"recipientId": bob.Uuid, "content": "hello bob"},
	}))

	var sent, received struct {
		Id             string `json:"id"`
		ConversationId string `json:"conversationId"`
		SenderId       string `json:"senderId"`
		Content        string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(readUntil(t, aConn, chat.EventMessageSent), &sent))
	require.NoError(t, json.Unmarshal(readUntil(t, bConn, chat.EventMessageReceive), &received))
	assert.Equal(t, sent, received)
	assert.Equal(t, alice.Uuid, received.SenderId)
	assert.Equal(t, "hello bob", received.Content)

	// 拉取历史后对端收到已读回执
	_, rsp := doJSON(t, http.MethodGet, srv.URL+"/api/conversations/"+sent.ConversationId+"/messages?page=1&limit=10", bob.AccessToken, nil)
	require.Equal(t, errorx.CodeSuccess, rsp.Code)
	readUntil(t, aConn, chat.EventMessageRead)

	_, rsp = doJSON(t, http.MethodGet, srv.URL+"/api/conversations", alice.AccessToken, nil)
	require.Equal(t, errorx.CodeSuccess, rsp.Code)
	var convs []struct {
		Id string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rsp.Data, &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, sent.ConversationId, convs[0].Id)

	_, rsp = doJSON(t, http.MethodGet, srv.URL+"/api/presence/"+bob.Uuid, alice.AccessToken, nil)
	require.Equal(t, errorx.CodeSuccess, rsp.Code)
	assert.Contains(t, string(rsp.Data), `"status":"online"`)
}

func TestMalformedFrameKeepsConnection(t *testing.T) {
	srv := newTestServer(t)
	alice := register(t, srv, "alice")
	conn := dial(t, srv, alice.AccessToken)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	readUntil(t, conn, chat.EventError)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": chat.EventMessageSend,
		"data":  map[string]string{"recipientId": alice.Uuid, "content": "self"},
	}))
	readUntil(t, conn, chat.EventError)
}

func TestContactReceivesStatusUpdates(t *testing.T) {
	srv := newTestServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")

	_, rsp := doJSON(t, http.MethodPost, srv.URL+"/api/contacts", alice.AccessToken, map[string]string{"contactId": alice.Uuid})
	assert.Equal(t, errorx.CodeInvalidParam, rsp.Code)
	_, rsp = doJSON(t, http.MethodPost, srv.URL+"/api/contacts", alice.AccessToken, map[string]string{"contactId": bob.Uuid})
	require.Equal(t, errorx.CodeSuccess, rsp.Code, string(rsp.Msg))

	_, rsp = doJSON(t, http.MethodGet, srv.URL+"/api/contacts", alice.AccessToken, nil)
	require.Equal(t, errorx.CodeSuccess, rsp.Code)
	var contacts []struct {
		UserId string `json:"userId"`
		Name   string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rsp.Data, &contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, bob.Uuid, contacts[0].UserId)
	assert.Equal(t, "bob", contacts[0].Name)

	bConn := dial(t, srv, bob.AccessToken)
	require.Eventually(t, func() bool {
		_, rsp := doJSON(t, http.MethodGet, srv.URL+"/api/presence/"+bob.Uuid, bob.AccessToken, nil)
		return strings.Contains(string(rsp.Data), `"status":"online"`)
	}, 3*time.Second, 20*time.Millisecond)

	// alice 上线，状态推送给她列表中的 bob
	aConn := dial(t, srv, alice.AccessToken)
	var status struct {
		UserId string `json:"userId"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(readUntil(t, bConn, chat.EventUserStatus), &status))
	assert.Equal(t, alice.Uuid, status.UserId)
	assert.Equal(t, "online", status.Status)

	require.NoError(t, aConn.Close())
	require.NoError(t, json.Unmarshal(readUntil(t, bConn, chat.EventUserStatus), &status))
	assert.Equal(t, alice.Uuid, status.UserId)
	assert.Equal(t, "offline", status.Status)

	_, rsp = doJSON(t, http.MethodDelete, srv.URL+"/api/contacts/"+bob.Uuid, alice.AccessToken, nil)
	assert.Equal(t, errorx.CodeSuccess, rsp.Code)
	_, rsp = doJSON(t, http.MethodDelete, srv.URL+"/api/contacts/"+bob.Uuid, alice.AccessToken, nil)
	assert.Equal(t, errorx.CodeNotFound, rsp.Code)
}
