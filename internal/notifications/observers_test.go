package notifications_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/notifications"
)

func TestObservers(t *testing.T) {
	observers := notifications.NewObservers()
	var verified, updated []notifications.Event
	observers.On(notifications.VERIFIED, func(ctx context.Context, event notifications.Event) {
		verified = append(verified, event)
	})
	observers.On(notifications.UPDATED, func(ctx context.Context, event notifications.Event) {
		updated = append(updated, event)
	})

	sub := data.SubscriptionDTO{SK: "abc", Topic: "http://feed.example/atom"}
	observers.Emit(context.Background(), notifications.NewEvent(notifications.VERIFIED, sub))
	observers.Emit(context.Background(), notifications.PreSubscribe(sub, true))

	assert.Len(t, verified, 1)
	assert.Empty(t, updated)
	assert.Equal(t, "abc", verified[0].Subscription.SK)
	assert.NotEmpty(t, verified[0].Id)
}

func TestMulti(t *testing.T) {
	first := notifications.NewObservers()
	second := notifications.NewObservers()
	count := 0
	counter := func(ctx context.Context, event notifications.Event) { count++ }
	first.On(notifications.DELETED, counter)
	second.On(notifications.DELETED, counter)

	notifications.Multi(first, second).Emit(context.Background(), notifications.NewEvent(notifications.DELETED, data.SubscriptionDTO{}))
	assert.Equal(t, 2, count)
}

func TestPreSubscribeCarriesCreated(t *testing.T) {
	event := notifications.PreSubscribe(data.SubscriptionDTO{}, false)
	if assert.NotNil(t, event.Created) {
		assert.False(t, *event.Created)
	}
}
