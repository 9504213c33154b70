package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/feeds"
)

type EventName string

const (
	PRE_SUBSCRIBE EventName = "pre_subscribe"
	VERIFIED      EventName = "verified"
	UPDATED       EventName = "updated"
	DELETED       EventName = "deleted"
)

type Event struct {
	Id           string               `json:"id"`
	Name         EventName            `json:"name"`
	Time         time.Time            `json:"time"`
	Subscription data.SubscriptionDTO `json:"subscription"`
	Created      *bool                `json:"created,omitempty"`
	Document     *feeds.Document      `json:"document,omitempty"`
}

func NewEvent(name EventName, subscription data.SubscriptionDTO) Event {
	return Event{
		Id:           uuid.NewString(),
		Name:         name,
		Time:         time.Now(),
		Subscription: subscription,
	}
}

func PreSubscribe(subscription data.SubscriptionDTO, created bool) Event {
	event := NewEvent(PRE_SUBSCRIBE, subscription)
	event.Created = &created
	return event
}

func Updated(subscription data.SubscriptionDTO, document *feeds.Document) Event {
	event := NewEvent(UPDATED, subscription)
	event.Document = document
	return event
}

// NotificationService is fire-and-forget: implementations deal with their own
// failures and never report back to the emitter.
type NotificationService interface {
	Emit(ctx context.Context, event Event)
}
