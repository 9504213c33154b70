package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"philcali.me/pubsubhubbub/internal/notifications"
)

type failingHandler struct {
	applied int
}

func (fh *failingHandler) Filter(record events.DynamoDBEventRecord) bool {
	return true
}

func (fh *failingHandler) Apply(ctx context.Context, record events.DynamoDBEventRecord) error {
	fh.applied++
	return errors.New("boom")
}

func TestSubscriptionDeletedHandler(t *testing.T) {
	observers := notifications.NewObservers()
	var deleted []notifications.Event
	observers.On(notifications.DELETED, func(ctx context.Context, event notifications.Event) {
		deleted = append(deleted, event)
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := DefaultDeletedHandler(observers, logger)

	expires := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	keys := map[string]events.DynamoDBAttributeValue{
		"PK": events.NewStringAttribute("Subscription"),
		"SK": events.NewStringAttribute("abc-123"),
	}
	remove := events.DynamoDBEventRecord{
		EventName: "REMOVE",
		Change: events.DynamoDBStreamRecord{
			Keys: keys,
			OldImage: map[string]events.DynamoDBAttributeValue{
				"PK":           events.NewStringAttribute("Subscription"),
				"SK":           events.NewStringAttribute("abc-123"),
				"hub":          events.NewStringAttribute("http://hub.example/"),
				"topic":        events.NewStringAttribute("http://feed.example/atom"),
				"verified":     events.NewBooleanAttribute(true),
				"verifyToken":  events.NewStringAttribute("subscribe0123"),
				"leaseSeconds": events.NewNumberAttribute("3600"),
				"leaseExpires": events.NewStringAttribute(expires.Format(time.RFC3339Nano)),
			},
		},
	}
	insert := events.DynamoDBEventRecord{
		EventName: "INSERT",
		Change:    events.DynamoDBStreamRecord{Keys: keys},
	}
	other := events.DynamoDBEventRecord{
		EventName: "REMOVE",
		Change: events.DynamoDBStreamRecord{
			Keys: map[string]events.DynamoDBAttributeValue{
				"PK": events.NewStringAttribute("Something"),
				"SK": events.NewStringAttribute("abc-123"),
			},
		},
	}

	t.Run("Filter", func(t *testing.T) {
		if !handler.Filter(remove) {
			t.Fatalf("Expected remove to filter")
		}
		if handler.Filter(insert) || handler.Filter(other) {
			t.Fatalf("Expected only subscription removals to filter")
		}
	})

	t.Run("Apply", func(t *testing.T) {
		if err := handler.Apply(context.TODO(), remove); err != nil {
			t.Fatalf("Unexpected failure for remove: %v", err)
		}
		if len(deleted) != 1 {
			t.Fatalf("Expected a single deleted event, got %d", len(deleted))
		}
		subscription := deleted[0].Subscription
		if subscription.SK != "abc-123" || subscription.Topic != "http://feed.example/atom" {
			t.Fatalf("Unexpected subscription in event: %v", subscription)
		}
		if !subscription.Verified || subscription.LeaseSeconds != 3600 || !subscription.LeaseExpires.Equal(expires) {
			t.Fatalf("Lease details were not carried: %v", subscription)
		}
		if subscription.VerifyToken != "" {
			t.Fatalf("Verify token must not be carried into events")
		}
	})

	t.Run("KeysOnly", func(t *testing.T) {
		keysOnly := events.DynamoDBEventRecord{
			EventName: "REMOVE",
			Change:    events.DynamoDBStreamRecord{Keys: keys},
		}
		if err := handler.Apply(context.TODO(), keysOnly); err != nil {
			t.Fatalf("Unexpected failure for keys only image: %v", err)
		}
	})

	t.Run("Dispatch", func(t *testing.T) {
		failing := &failingHandler{}
		before := len(deleted)
		failures := Dispatch(context.TODO(), []EventFilter{failing, handler}, []events.DynamoDBEventRecord{remove, insert}, logger)
		if failures != 2 || failing.applied != 2 {
			t.Fatalf("Expected both records to fail once, got %d failures", failures)
		}
		if len(deleted) != before {
			t.Fatalf("Handlers after a failure should not run for that record")
		}
		failures = Dispatch(context.TODO(), []EventFilter{handler}, []events.DynamoDBEventRecord{remove, insert}, logger)
		if failures != 0 || len(deleted) != before+1 {
			t.Fatalf("Expected one deleted event, got %d", len(deleted)-before)
		}
	})
}
