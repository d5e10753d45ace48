package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()
	var first, second []Event
	b.Subscribe(func(e Event) { first = append(first, e) })
	b.Subscribe(func(e Event) { second = append(second, e) })

	b.Publish(LoggedOut{})
	b.Publish(SyncState{State: SyncStarted})

	assert.Len(t, first, 2)
	assert.Len(t, second, 2)
	assert.Equal(t, SyncState{State: SyncStarted}, first[1])
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	var got []Event
	token := b.Subscribe(func(e Event) { got = append(got, e) })

	b.Publish(LoggedOut{})
	b.Unsubscribe(token)
	b.Publish(LoggedOut{})

	assert.Len(t, got, 1)
	assert.Zero(t, b.SubscriberCount())
}

func TestUnsubscribeUnknownTokenIsSafe(t *testing.T) {
	b := New()
	b.Unsubscribe(42)
	assert.Zero(t, b.SubscriberCount())
}

func TestSubscribeDuringPublishDoesNotDeadlock(t *testing.T) {
	b := New()
	var nested bool
	b.Subscribe(func(e Event) {
		// handlers may register more handlers
		b.Subscribe(func(Event) { nested = true })
	})

	b.Publish(LoggedOut{})
	assert.Equal(t, 2, b.SubscriberCount())

	b.Publish(LoggedOut{})
	assert.True(t, nested)
}
