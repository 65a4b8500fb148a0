package account

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedran77/pulsedesk/internal/domain"
)

func TestRegistryTracksAccounts(t *testing.T) {
	reg := NewRegistry()
	a := New(reg, "w1", "One", "", "")
	b := New(reg, "w2", "Two", "", "")

	require.Equal(t, []*Account{a, b}, reg.Accounts())
	require.Equal(t, a, reg.FindAccount("w1"))
	require.Nil(t, reg.FindAccount("w3"))

	a.Close()
	require.Equal(t, []*Account{b}, reg.Accounts())
}

func TestRegistryReadStateAggregation(t *testing.T) {
	reg := NewRegistry()
	a := New(reg, "w1", "One", "", "")
	b := New(reg, "w2", "Two", "", "")

	var dispatched []bool
	reg.OnUpdateReadState.Subscribe(func(v bool) { dispatched = append(dispatched, v) })

	require.True(t, reg.ComputeReadState())

	a.AddChannel(&domain.Channel{ChannelID: "c1"})
	require.Equal(t, []bool{false}, dispatched)

	// A second unread account must not re-broadcast the same value.
	b.AddChannel(&domain.Channel{ChannelID: "c2"})
	require.Equal(t, []bool{false}, dispatched)

	a.MarkRead("c1")
	require.Equal(t, []bool{false}, dispatched, "still unread via the other account")

	b.MarkRead("c2")
	require.Equal(t, []bool{false, true}, dispatched)
}

func TestRegistryMentionAggregation(t *testing.T) {
	reg := NewRegistry()
	a := New(reg, "w1", "One", "", "")
	b := New(reg, "w2", "Two", "", "")

	a.AddChannel(&domain.Channel{ChannelID: "c1", Read: true})
	b.AddChannel(&domain.Channel{ChannelID: "c2", Read: true})

	var totals []int
	reg.OnUpdateMentions.Subscribe(func(total int) { totals = append(totals, total) })

	a.MarkUnread("c1", 2)
	b.MarkUnread("c2", 3)
	require.Equal(t, []int{2, 5}, totals)
	require.Equal(t, 5, reg.MentionCount())

	// Closing an account drops its share of the total.
	a.Close()
	require.Equal(t, []int{2, 5, 3}, totals)
}

func TestRegistryRemoveAccountRestoresReadState(t *testing.T) {
	reg := NewRegistry()
	a := New(reg, "w1", "One", "", "")
	New(reg, "w2", "Two", "", "")

	a.AddChannel(&domain.Channel{ChannelID: "c1"})
	require.False(t, reg.IsRead())

	a.Close()
	require.True(t, reg.IsRead())
}
