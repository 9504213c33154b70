package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"philcali.me/pubsubhubbub/internal/notifications"
)

type SnsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// NotificationSNSService publishes every event to a topic as JSON, with the
// event name as a message attribute for subscription filter policies.
type NotificationSNSService struct {
	Sns      SnsAPI
	TopicArn string
	Logger   *slog.Logger
}

func (n *NotificationSNSService) Emit(ctx context.Context, event notifications.Event) {
	logger := n.Logger.With("event", event.Name, "eventId", event.Id, "subscriptionId", event.Subscription.SK)
	message, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to serialize event", "err", err)
		return
	}
	output, err := n.Sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.TopicArn),
		Message:  aws.String(string(message)),
		Subject:  aws.String(string(event.Name)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Name)),
			},
		},
	})
	if err != nil {
		logger.Error("failed to publish event", "err", err)
		return
	}
	logger.Debug("published event", "messageId", aws.ToString(output.MessageId))
}

// NotificationLogService stands in for SNS when no topic is configured.
type NotificationLogService struct {
	Logger *slog.Logger
}

func (n *NotificationLogService) Emit(ctx context.Context, event notifications.Event) {
	n.Logger.Info("subscription event", "event", event.Name, "eventId", event.Id, "subscriptionId", event.Subscription.SK)
}

func NewNotificationService(client SnsAPI, topicArn string, logger *slog.Logger) notifications.NotificationService {
	if topicArn == "" {
		return &NotificationLogService{Logger: logger}
	}
	return &NotificationSNSService{
		Sns:      client,
		TopicArn: topicArn,
		Logger:   logger,
	}
}
