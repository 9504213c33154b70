package callback

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/engine"
	"philcali.me/pubsubhubbub/internal/exceptions"
	"philcali.me/pubsubhubbub/internal/feeds"
	"philcali.me/pubsubhubbub/internal/notifications"
	"philcali.me/pubsubhubbub/internal/verification"
)

const SUBSCRIPTION_RESOURCE = "subscription"

type VerificationRequest struct {
	Mode         string
	Topic        string
	Challenge    string
	LeaseSeconds *int
	VerifyToken  string
}

type CallbackProcessor struct {
	Engine        *engine.SubscriptionEngine
	Parser        feeds.Parser
	Notifications notifications.NotificationService
	Logger        *slog.Logger
}

func NewCallbackProcessor(engine *engine.SubscriptionEngine, parser feeds.Parser, notifications notifications.NotificationService, logger *slog.Logger) *CallbackProcessor {
	return &CallbackProcessor{
		Engine:        engine,
		Parser:        parser,
		Notifications: notifications,
		Logger:        logger,
	}
}

// Verify answers a hub's verification of intent. The returned challenge must
// be echoed back untouched. Every rejection is the same NotFoundError; the
// reason is only logged.
func (cp *CallbackProcessor) Verify(ctx context.Context, subscriptionId string, request VerificationRequest) (string, error) {
	logger := cp.Logger.With("subscriptionId", subscriptionId, "mode", request.Mode, "topic", request.Topic)
	notFound := exceptions.NotFound(SUBSCRIPTION_RESOURCE, subscriptionId)
	if request.Mode != verification.MODE_SUBSCRIBE {
		logger.Warn("unsupported verification mode")
		return "", notFound
	}
	if !strings.HasPrefix(request.VerifyToken, request.Mode) {
		logger.Warn("verify token does not carry the mode")
		return "", notFound
	}
	subscription, err := cp.Engine.Get(ctx, subscriptionId)
	if err != nil {
		logger.Warn("verification for unknown subscription", "err", err)
		return "", notFound
	}
	if subscription.Topic != request.Topic {
		logger.Warn("verification topic mismatch", "expected", subscription.Topic)
		return "", notFound
	}
	if subtle.ConstantTimeCompare([]byte(subscription.VerifyToken), []byte(request.VerifyToken)) != 1 ||
		!cp.Engine.Tokens.Verify(subscriptionId, request.VerifyToken, request.Mode) {
		logger.Warn("verify token mismatch")
		return "", notFound
	}
	if _, err := cp.Engine.Confirm(ctx, subscription, request.LeaseSeconds); err != nil {
		logger.Error("failed to confirm subscription", "err", err)
		return "", notFound
	}
	return request.Challenge, nil
}

// Notify handles content pushed by the hub. A feed announcing a different hub
// or self link moves the subscription there; the current record stays until
// the replacement is verified.
func (cp *CallbackProcessor) Notify(ctx context.Context, subscriptionId string, body []byte) error {
	subscription, err := cp.Engine.Get(ctx, subscriptionId)
	if err != nil {
		return err
	}
	logger := cp.Logger.With("subscriptionId", subscriptionId, "hub", subscription.Hub, "topic", subscription.Topic)
	document, err := cp.Parser.Parse(body)
	if err != nil {
		logger.Warn("failed to parse notification", "err", err)
		return err
	}
	if len(document.Links) == 0 {
		logger.Debug("notification without links ignored")
		return nil
	}
	hubUrl, ok := document.Href(feeds.REL_HUB)
	if !ok {
		hubUrl = subscription.Hub
	}
	topic, ok := document.Href(feeds.REL_SELF)
	if !ok {
		topic = subscription.Topic
	}
	if hubUrl != subscription.Hub || topic != subscription.Topic {
		if err := cp._migrate(ctx, subscription, hubUrl, topic); err != nil {
			logger.Error("failed to migrate subscription", "newHub", hubUrl, "newTopic", topic, "err", err)
			return err
		}
	}
	cp.Notifications.Emit(ctx, notifications.Updated(subscription, document))
	logger.Info("notification received", "entries", len(document.Entries))
	return nil
}

func (cp *CallbackProcessor) _migrate(ctx context.Context, subscription data.SubscriptionDTO, hubUrl string, topic string) error {
	leaseSeconds := cp.Engine.MigrationLease(subscription)
	supersedes := subscription.SK
	input := engine.SubscribeInput{
		Topic:        topic,
		Hub:          &hubUrl,
		LeaseSeconds: &leaseSeconds,
		Supersedes:   &supersedes,
	}
	// A callback derived from the route is rebuilt for the new id instead of
	// reusing the current path, so the hub's verification lands on the record
	// it confirms. Explicit callbacks are kept as given.
	if !cp._derivedCallback(ctx, subscription) {
		input.Callback = &subscription.Callback
	}
	migrated, err := cp.Engine.Subscribe(ctx, input)
	if err != nil {
		return err
	}
	cp.Logger.Info("subscription migrated",
		"subscriptionId", subscription.SK,
		"newSubscriptionId", migrated.SK,
		"leaseSeconds", leaseSeconds,
		"verified", migrated.Verified)
	return nil
}

func (cp *CallbackProcessor) _derivedCallback(ctx context.Context, subscription data.SubscriptionDTO) bool {
	if cp.Engine.Callbacks == nil {
		return false
	}
	derived, err := cp.Engine.Callbacks.CallbackURL(ctx, subscription.SK)
	return err == nil && derived == subscription.Callback
}
