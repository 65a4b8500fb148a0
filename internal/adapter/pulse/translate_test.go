package pulse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedran77/pulsedesk/internal/account"
	"github.com/vedran77/pulsedesk/internal/domain"
)

func newTestAccount(t *testing.T) *account.Account {
	t.Helper()
	a := account.New(nil, "w1", "Test", "", "https://chat.example.com")
	a.SetCurrentUser("me", "bob")
	a.AddChannel(&domain.Channel{ChannelID: "c1", Name: "general", Read: true})
	a.AddChannel(&domain.Channel{ChannelID: "c2", Name: "random", Read: true})
	a.SetCurrentChannel("c1")
	return a
}

func event(t *testing.T, typ string, channelID *string, payload any) Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return Event{Type: typ, ChannelID: channelID, Payload: data}
}

func strptr(s string) *string { return &s }

func TestApplyMessageMarksUnread(t *testing.T) {
	a := newTestAccount(t)

	evt := event(t, EventTypeMessageNew, strptr("c2"), MessagePayload{
		ID: "m1", SenderID: "u2", Content: "hello there",
	})
	require.NoError(t, Apply(a, evt))

	require.False(t, a.IsRead())
	require.Zero(t, a.MentionCount())
}

func TestApplyMessageCountsMention(t *testing.T) {
	a := newTestAccount(t)

	evt := event(t, EventTypeMessageNew, strptr("c2"), MessagePayload{
		ID: "m1", SenderID: "u2", Content: "ping @bob",
	})
	require.NoError(t, Apply(a, evt))

	require.Equal(t, 1, a.MentionCount())
}

func TestApplyMessageInCurrentChannelStaysRead(t *testing.T) {
	a := newTestAccount(t)

	evt := event(t, EventTypeMessageNew, strptr("c1"), MessagePayload{
		ID: "m1", SenderID: "u2", Content: "hey @bob",
	})
	require.NoError(t, Apply(a, evt))

	require.True(t, a.IsRead())
	require.Zero(t, a.MentionCount())
}

func TestApplyOwnMessageIgnored(t *testing.T) {
	a := newTestAccount(t)

	evt := event(t, EventTypeMessageNew, strptr("c2"), MessagePayload{
		ID: "m1", SenderID: "me", Content: "note to self @bob",
	})
	require.NoError(t, Apply(a, evt))

	require.True(t, a.IsRead())
}

func TestApplyDMOpensThread(t *testing.T) {
	a := newTestAccount(t)

	var opened []*domain.DM
	a.OnOpenDM.Subscribe(func(dm *domain.DM) { opened = append(opened, dm) })

	evt := event(t, EventTypeDMNew, nil, DMMessagePayload{
		ID: "m1", ConversationID: "conv1", SenderID: "u2", Content: "hi",
	})
	require.NoError(t, Apply(a, evt))

	require.Len(t, opened, 1)
	require.Equal(t, "u2", opened[0].UserID)
	require.Equal(t, 1, a.MentionCount(), "direct messages count as mentions")

	// A second message lands in the existing thread.
	require.NoError(t, Apply(a, evt))
	require.Len(t, opened, 1)
	require.Equal(t, 2, a.MentionCount())
}

func TestApplyChannelAddedAndRemoved(t *testing.T) {
	a := newTestAccount(t)

	add := event(t, EventTypeChannelAdded, nil, ChannelPayload{ID: "c3", Name: "dev"})
	require.NoError(t, Apply(a, add))
	require.NotNil(t, a.FindChannelByID("c3"))

	rm := event(t, EventTypeChannelRemoved, nil, ChannelPayload{ID: "c3"})
	require.NoError(t, Apply(a, rm))
	require.Nil(t, a.FindChannelByID("c3"))
}

func TestApplyUserUpdated(t *testing.T) {
	a := newTestAccount(t)

	evt := event(t, EventTypeUserUpdated, nil, UserPayload{ID: "u2", Name: "Carol"})
	require.NoError(t, Apply(a, evt))

	u, ok := a.FindUserByID("u2")
	require.True(t, ok)
	require.Equal(t, "Carol", u.Name)
}

func TestApplyPresenceUpdatesUserStatus(t *testing.T) {
	a := newTestAccount(t)
	_, err := a.SaveUser(&domain.User{ID: "u2", Name: "Carol"})
	require.NoError(t, err)

	evt := event(t, EventTypePresence, nil, PresencePayload{UserID: "u2", Status: "online"})
	require.NoError(t, Apply(a, evt))

	u, ok := a.FindUserByID("u2")
	require.True(t, ok)
	require.Equal(t, "online", u.Status)

	// Presence for an unknown user is dropped.
	evt = event(t, EventTypePresence, nil, PresencePayload{UserID: "u3", Status: "online"})
	require.NoError(t, Apply(a, evt))
	_, ok = a.FindUserByID("u3")
	require.False(t, ok)
}

func TestApplyUserUpdatedKeepsPresence(t *testing.T) {
	a := newTestAccount(t)
	_, err := a.SaveUser(&domain.User{ID: "u2", Name: "Carol", Status: "online"})
	require.NoError(t, err)

	evt := event(t, EventTypeUserUpdated, nil, UserPayload{ID: "u2", Name: "Caroline"})
	require.NoError(t, Apply(a, evt))

	u, ok := a.FindUserByID("u2")
	require.True(t, ok)
	require.Equal(t, "Caroline", u.Name)
	require.Equal(t, "online", u.Status)
}

func TestApplyServerErrorSurfaces(t *testing.T) {
	a := newTestAccount(t)

	evt := event(t, EventTypeError, nil, ErrorPayload{Code: "RATE_LIMITED", Message: "slow down"})
	err := Apply(a, evt)
	require.Error(t, err)
	require.Contains(t, err.Error(), "RATE_LIMITED")
}

func TestApplyMessageEditIgnored(t *testing.T) {
	a := newTestAccount(t)

	evt := event(t, EventTypeMessageEdited, strptr("c2"), MessagePayload{
		ID: "m1", SenderID: "u2", Content: "edited @bob",
	})
	require.NoError(t, Apply(a, evt))
	require.True(t, a.IsRead())
	require.Zero(t, a.MentionCount())
}

func TestApplyBadPayload(t *testing.T) {
	a := newTestAccount(t)
	evt := Event{Type: EventTypeMessageNew, ChannelID: strptr("c2"), Payload: json.RawMessage(`{`)}
	require.Error(t, Apply(a, evt))
}
