package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrasapp_server/internal/dto/request"
	"terrasapp_server/internal/dto/respond"
	"terrasapp_server/internal/model"
	"terrasapp_server/pkg/errorx"
)

func TestCallInitiateAndAccept(t *testing.T) {
	f := newFixture(t, "UA", "UB")
	a, b := f.connect("UA"), f.connect("UB")

	call, err := f.server.InitiateCall(f.ctx, a, request.InitiateCallRequest{RecipientId: "UB", CallType: "audio"})
	require.NoError(t, err)
	assert.Equal(t, CallRinging, call.State)
	assert.Equal(t, model.StatusInCall, f.user("UA").Status)

	incoming := b.named(EventCallIncoming)
	require.Len(t, incoming, 1)
	assert.Equal(t, respond.CallIncomingRespond{CallId: call.Id, CallerId: "UA", CallerName: "name-UA", CallType: "audio"}, incoming[0])
	assert.Equal(t, []any{respond.CallPeerRespond{CallId: call.Id, RecipientId: "UB"}}, a.named(EventCallOutgoing))

	accepted, err := f.server.AcceptCall(f.ctx, "UB", request.CallActionRequest{CallId: call.Id})
	require.NoError(t, err)
	assert.Equal(t, CallActive, accepted.State)
	assert.Equal(t, []any{respond.CallPeerRespond{CallId: call.Id, RecipientId: "UB"}}, a.named(EventCallAccepted))
	assert.Equal(t, model.StatusInCall, f.user("UA").Status)
	assert.Equal(t, model.StatusInCall, f.user("UB").Status)
}

func TestCallInitiateOfflineAndBusy(t *testing.T) {
	f := newFixture(t, "UA", "UB", "UC", "UD")
	a, b := f.connect("UA"), f.connect("UB")
	f.connect("UC")

	_, err := f.server.InitiateCall(f.ctx, a, request.InitiateCallRequest{RecipientId: "UD", CallType: "video"})
	assert.ErrorIs(t, err, errorx.ErrRecipientOffline)

	bc, err := f.server.InitiateCall(f.ctx, b, request.InitiateCallRequest{RecipientId: "UC", CallType: "audio"})
	require.NoError(t, err)
	_, err = f.server.AcceptCall(f.ctx, "UC", request.CallActionRequest{CallId: bc.Id})
	require.NoError(t, err)

	_, err = f.server.InitiateCall(f.ctx, a, request.InitiateCallRequest{RecipientId: "UB", CallType: "audio"})
	assert.ErrorIs(t, err, errorx.ErrRecipientBusy)
	assert.Equal(t, 1, f.server.Calls().Count(), "no call is created for the busy attempt")
	assert.Equal(t, model.StatusOnline, f.user("UA").Status)

	_, err = f.server.InitiateCall(f.ctx, a, request.InitiateCallRequest{RecipientId: "UB", CallType: "fax"})
	requireCode(t, err, errorx.CodeInvalidParam)
}

func TestCallAcceptRequiresRecipient(t *testing.T) {
	f := newFixture(t, "UA", "UB", "UC")
	a := f.connect("UA")
	f.connect("UB")

	call, err := f.server.InitiateCall(f.ctx, a, request.InitiateCallRequest{RecipientId: "UB", CallType: "audio"})
	require.NoError(t, err)

	_, err = f.server.AcceptCall(f.ctx, "UC", request.CallActionRequest{CallId: call.Id})
	requireCode(t, err, errorx.CodeForbidden)
	_, err = f.server.AcceptCall(f.ctx, "UB", request.CallActionRequest{CallId: "nope"})
	requireCode(t, err, errorx.CodeNotFound)
}

func TestCallReject(t *testing.T) {
	f := newFixture(t, "UA", "UB")
	a, b := f.connect("UA"), f.connect("UB")

	call, err := f.server.InitiateCall(f.ctx, a, request.InitiateCallRequest{RecipientId: "UB", CallType: "video"})
	require.NoError(t, err)

	_, err = f.server.RejectCall(f.ctx, "UB", request.CallActionRequest{CallId: call.Id})
	require.NoError(t, err)
	assert.Equal(t, []any{respond.CallPeerRespond{CallId: call.Id, RecipientId: "UB"}}, a.named(EventCallRejected))
	assert.Empty(t, b.named(EventCallRejected))
	assert.Equal(t, model.StatusOnline, f.user("UA").Status)

	_, err = f.server.AcceptCall(f.ctx, "UB", request.CallActionRequest{CallId: call.Id})
	requireCode(t, err, errorx.CodeNotFound)
}

func TestCallEnd(t *testing.T) {
	f := newFixture(t, "UA", "UB")
	a, b := f.connect("UA"), f.connect("UB")

	call, err := f.server.InitiateCall(f.ctx, a, request.InitiateCallRequest{RecipientId: "UB", CallType: "audio"})
	require.NoError(t, err)
	_, err = f.server.AcceptCall(f.ctx, "UB", request.CallActionRequest{CallId: call.Id})
	require.NoError(t, err)

	_, err = f.server.EndCall(f.ctx, "UA", request.CallActionRequest{CallId: call.Id})
	require.NoError(t, err)
	assert.Equal(t, []any{respond.CallEndedRespond{CallId: call.Id, EndedBy: "UA"}}, b.named(EventCallEnded))
	assert.Empty(t, a.named(EventCallEnded))
	assert.Equal(t, model.StatusOnline, f.user("UA").Status)
	assert.Equal(t, model.StatusOnline, f.user("UB").Status)

	_, err = f.server.EndCall(f.ctx, "UA", request.CallActionRequest{CallId: call.Id})
	requireCode(t, err, errorx.CodeNotFound)
	_, err = f.server.AcceptCall(f.ctx, "UB", request.CallActionRequest{CallId: call.Id})
	requireCode(t, err, errorx.CodeNotFound)
}

func TestWebrtcRelay(t *testing.T) {
	f := newFixture(t, "UA", "UB")
	a, b := f.connect("UA"), f.connect("UB")
	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)

	require.NoError(t, f.server.RelayOffer("UA", request.WebrtcOfferRequest{RecipientId: "UB", Offer: offer}))
	require.NoError(t, f.server.RelayAnswer("UB", request.WebrtcAnswerRequest{CallerId: "UA", Answer: json.RawMessage(`{"type":"answer"}`)}))
	require.NoError(t, f.server.RelayIceCandidate("UA", request.IceCandidateRequest{RecipientId: "UB", Candidate: json.RawMessage(`{"candidate":"c"}`)}))
	// 对端不在线时静默丢弃
	require.NoError(t, f.server.RelayOffer("UA", request.WebrtcOfferRequest{RecipientId: "UZ", Offer: offer}))

	assert.Equal(t, []any{respond.WebrtcOfferRespond{CallerId: "UA", Offer: offer}}, b.named(EventWebrtcOffer))
	answers := a.named(EventWebrtcAnswer)
	require.Len(t, answers, 1)
	assert.Equal(t, "UB", answers[0].(respond.WebrtcAnswerRespond).RecipientId)
	ice := b.named(EventWebrtcIceCandidate)
	require.Len(t, ice, 1)
	assert.Equal(t, "UA", ice[0].(respond.IceCandidateRespond).SenderId)

	requireCode(t, f.server.RelayOffer("UA", request.WebrtcOfferRequest{RecipientId: "UB"}), errorx.CodeInvalidParam)
}
