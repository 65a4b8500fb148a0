package signal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatchOrder(t *testing.T) {
	var s Signal[int]
	var got []int

	s.Subscribe(func(v int) { got = append(got, v*10) })
	s.Subscribe(func(v int) { got = append(got, v*100) })

	s.Dispatch(1)
	s.Dispatch(2)

	require.Equal(t, []int{10, 100, 20, 200}, got)
}

func TestUnsubscribe(t *testing.T) {
	var s Signal[string]
	var got []string

	sub := s.Subscribe(func(v string) { got = append(got, "first:"+v) })
	s.Subscribe(func(v string) { got = append(got, "second:"+v) })

	s.Dispatch("a")
	s.Unsubscribe(sub)
	s.Dispatch("b")
	// Idempotent.
	s.Unsubscribe(sub)
	s.Dispatch("c")

	require.Equal(t, []string{"first:a", "second:a", "second:b", "second:c"}, got)
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	var s Signal[int]
	var got []int

	var self Subscription
	self = s.Subscribe(func(v int) {
		got = append(got, v)
		s.Unsubscribe(self)
	})
	s.Subscribe(func(v int) { got = append(got, v+1) })

	// The round in flight still sees both subscribers.
	s.Dispatch(10)
	s.Dispatch(20)

	require.Equal(t, []int{10, 11, 21}, got)
}

func TestSubscribeDuringDispatch(t *testing.T) {
	var s Signal[int]
	calls := 0

	s.Subscribe(func(int) {
		calls++
		if calls == 1 {
			s.Subscribe(func(int) { calls += 100 })
		}
	})

	s.Dispatch(0)
	require.Equal(t, 1, calls, "late subscriber must not see the in-flight dispatch")

	s.Dispatch(0)
	require.Equal(t, 102, calls)
}

func TestDispatchPropagatesSubscriberPanic(t *testing.T) {
	var s Signal[int]
	var got []int

	s.Subscribe(func(v int) { got = append(got, v) })
	s.Subscribe(func(int) { panic("observer broke") })
	s.Subscribe(func(v int) { got = append(got, v+1) })

	require.PanicsWithValue(t, "observer broke", func() { s.Dispatch(5) })
	require.Equal(t, []int{5}, got, "earlier subscribers ran, later ones did not")
}

func TestClear(t *testing.T) {
	var s Signal[Void]
	calls := 0
	s.Subscribe(func(Void) { calls++ })
	s.Subscribe(func(Void) { calls++ })

	s.Clear()
	s.Dispatch(Void{})
	require.Zero(t, calls)
}
