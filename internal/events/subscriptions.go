package events

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/notifications"
)

func isSubscription(record events.DynamoDBEventRecord) bool {
	pk, ok := record.Change.Keys["PK"]
	return ok && pk.DataType() == events.DataTypeString && pk.String() == data.SUBSCRIPTION_PARTITION
}

func _string(image map[string]events.DynamoDBAttributeValue, name string) string {
	if value, ok := image[name]; ok && value.DataType() == events.DataTypeString {
		return value.String()
	}
	return ""
}

func _time(image map[string]events.DynamoDBAttributeValue, name string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, _string(image, name))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// SubscriptionFromImage rebuilds a subscription from a stream image. The
// verify token is left out.
func SubscriptionFromImage(image map[string]events.DynamoDBAttributeValue) (data.SubscriptionDTO, error) {
	subscription := data.SubscriptionDTO{
		PK:           _string(image, "PK"),
		SK:           _string(image, "SK"),
		Hub:          _string(image, "hub"),
		Topic:        _string(image, "topic"),
		Callback:     _string(image, "callback"),
		Supersedes:   _string(image, "supersedes"),
		LeaseExpires: _time(image, "leaseExpires"),
		CreateTime:   _time(image, "createTime"),
		UpdateTime:   _time(image, "updateTime"),
	}
	if subscription.SK == "" {
		return subscription, fmt.Errorf("stream image has no subscription id")
	}
	if verified, ok := image["verified"]; ok && verified.DataType() == events.DataTypeBoolean {
		subscription.Verified = verified.Boolean()
	}
	if lease, ok := image["leaseSeconds"]; ok && lease.DataType() == events.DataTypeNumber {
		leaseSeconds, err := strconv.Atoi(lease.Number())
		if err != nil {
			return subscription, fmt.Errorf("invalid leaseSeconds on %s: %w", subscription.SK, err)
		}
		subscription.LeaseSeconds = leaseSeconds
	}
	return subscription, nil
}

type SubscriptionDeletedHandler struct {
	Notifications notifications.NotificationService
	Logger        *slog.Logger
}

func (sh *SubscriptionDeletedHandler) Filter(record events.DynamoDBEventRecord) bool {
	return record.EventName == "REMOVE" && isSubscription(record)
}

func (sh *SubscriptionDeletedHandler) Apply(ctx context.Context, record events.DynamoDBEventRecord) error {
	image := record.Change.OldImage
	if image == nil {
		image = record.Change.Keys
	}
	subscription, err := SubscriptionFromImage(image)
	if err != nil {
		return err
	}
	sh.Notifications.Emit(ctx, notifications.NewEvent(notifications.DELETED, subscription))
	sh.Logger.Info("subscription removed", "subscriptionId", subscription.SK, "topic", subscription.Topic)
	return nil
}

func DefaultDeletedHandler(notifications notifications.NotificationService, logger *slog.Logger) *SubscriptionDeletedHandler {
	return &SubscriptionDeletedHandler{
		Notifications: notifications,
		Logger:        logger,
	}
}
