package events

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
)

type EventFilter interface {
	Filter(record events.DynamoDBEventRecord) bool
	Apply(ctx context.Context, record events.DynamoDBEventRecord) error
}

// Dispatch hands every record to each handler that accepts it. A failing
// handler stops processing of that record only.
func Dispatch(ctx context.Context, handlers []EventFilter, records []events.DynamoDBEventRecord, logger *slog.Logger) int {
	failures := 0
	for _, record := range records {
		for _, handler := range handlers {
			if handler.Filter(record) {
				if err := handler.Apply(ctx, record); err != nil {
					logger.Error("failed to handle stream record", "eventId", record.EventID, "eventName", record.EventName, "err", err)
					failures++
					break
				}
			}
		}
	}
	return failures
}
