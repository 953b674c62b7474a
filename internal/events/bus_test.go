package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(b)

	bus.Publish(Event{Type: TypeTransferCompleted, UserID: "u1"})

	for _, ch := range []chan Event{a, b} {
		select {
		case evt := <-ch:
			assert.Equal(t, TypeTransferCompleted, evt.Type)
			assert.Equal(t, "u1", evt.UserID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBusSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			bus.Publish(Event{Type: TypeOrderFollowed})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)
	_, open := <-ch
	require.False(t, open)
	// A second unsubscribe of the same channel is a no-op.
	bus.Unsubscribe(ch)
}
