package app

import (
	"context"
	"log/slog"
	"net/http"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"philcali.me/pubsubhubbub/internal/config"
	"philcali.me/pubsubhubbub/internal/dynamodb/subscriptions"
	"philcali.me/pubsubhubbub/internal/dynamodb/token"
	"philcali.me/pubsubhubbub/internal/engine"
	"philcali.me/pubsubhubbub/internal/feeds"
	"philcali.me/pubsubhubbub/internal/hub"
	"philcali.me/pubsubhubbub/internal/logging"
	"philcali.me/pubsubhubbub/internal/notifications"
	"philcali.me/pubsubhubbub/internal/routes/callbacks"
	"philcali.me/pubsubhubbub/internal/sns/services"
	"philcali.me/pubsubhubbub/internal/verification"
)

// App holds what every lambda entrypoint shares.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Notifications notifications.NotificationService
	Observers     *notifications.Observers
	Parser        feeds.Parser
	Engine        *engine.SubscriptionEngine
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewWithClients(cfg, dynamodb.NewFromConfig(awsCfg), sns.NewFromConfig(awsCfg)), nil
}

func NewWithClients(cfg *config.Config, db subscriptions.DynamoDBAPI, snsClient services.SnsAPI) *App {
	logger := logging.New(cfg.LogLevel)
	observers := notifications.NewObservers()
	for _, name := range []notifications.EventName{notifications.PRE_SUBSCRIBE, notifications.VERIFIED, notifications.UPDATED, notifications.DELETED} {
		observers.On(name, func(ctx context.Context, event notifications.Event) {
			logger.Debug("notification emitted", "event", event.Name, "eventId", event.Id, "subscriptionId", event.Subscription.SK)
		})
	}
	sink := notifications.Multi(
		services.NewNotificationService(snsClient, cfg.TopicArn, logger),
		observers,
	)
	client := &http.Client{Timeout: cfg.RequestTimeout}
	parser := feeds.NewParser()
	store := subscriptions.NewSubscriptionService(cfg.TableName, db, token.NewGCM(cfg.SecretKey))
	return &App{
		Config:        cfg,
		Logger:        logger,
		Notifications: sink,
		Observers:     observers,
		Parser:        parser,
		Engine: &engine.SubscriptionEngine{
			Store:               store,
			Resolver:            feeds.NewHubResolver(client, parser),
			Hubs:                hub.NewHubClient(client),
			Tokens:              verification.NewTokenGenerator(cfg.SecretKey),
			Callbacks:           callbacks.NewLocator(cfg.PublicUrl),
			Notifications:       sink,
			Logger:              logger,
			DefaultLeaseSeconds: cfg.DefaultLeaseSeconds,
			MinimumLeaseSeconds: cfg.MinimumLeaseSeconds,
		},
	}
}
