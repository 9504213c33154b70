package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/exceptions"
	"philcali.me/pubsubhubbub/internal/feeds"
	"philcali.me/pubsubhubbub/internal/hub"
	"philcali.me/pubsubhubbub/internal/notifications"
	"philcali.me/pubsubhubbub/internal/verification"
)

// CallbackLocator maps a subscription id onto the public URL hubs should
// call back on.
type CallbackLocator interface {
	CallbackURL(ctx context.Context, subscriptionId string) (string, error)
}

type SubscribeInput struct {
	Topic        string
	Hub          *string
	Callback     *string
	LeaseSeconds *int
	// Supersedes names the record a migration replaces. It is deleted once
	// this subscription is verified.
	Supersedes *string
}

type SubscriptionEngine struct {
	Store               data.SubscriptionStore
	Resolver            feeds.HubResolver
	Hubs                hub.HubClient
	Tokens              *verification.TokenGenerator
	Callbacks           CallbackLocator
	Notifications       notifications.NotificationService
	Logger              *slog.Logger
	DefaultLeaseSeconds int
	MinimumLeaseSeconds int
	Now                 func() time.Time
}

func (se *SubscriptionEngine) _now() time.Time {
	if se.Now != nil {
		return se.Now()
	}
	return time.Now()
}

func (se *SubscriptionEngine) _resolveHub(ctx context.Context, input SubscribeInput) (string, error) {
	if input.Hub != nil && *input.Hub != "" {
		return *input.Hub, nil
	}
	if se.Resolver != nil {
		hubUrl, ok, err := se.Resolver.ResolveHub(ctx, input.Topic)
		if err != nil {
			var te *exceptions.TransportError
			if errors.As(err, &te) {
				return "", err
			}
			se.Logger.Warn("hub discovery failed", "topic", input.Topic, "err", err)
		}
		if ok && hubUrl != "" {
			return hubUrl, nil
		}
	}
	return "", exceptions.Configuration("hub cannot be determined for %s: the feed does not provide one and none was given", input.Topic)
}

func (se *SubscriptionEngine) _resolveCallback(ctx context.Context, input SubscribeInput, subscriptionId string) (string, error) {
	if input.Callback != nil && *input.Callback != "" {
		return *input.Callback, nil
	}
	if se.Callbacks == nil {
		return "", exceptions.Configuration("callback cannot be derived without a callback route")
	}
	callback, err := se.Callbacks.CallbackURL(ctx, subscriptionId)
	if err != nil {
		return "", exceptions.Configuration("callback cannot be derived for %s: %v", subscriptionId, err)
	}
	return callback, nil
}

// Subscribe asks the hub to push topic updates to our callback. The record
// (and its fresh verify token) is saved before the request goes out so an
// async verification racing the response finds it.
func (se *SubscriptionEngine) Subscribe(ctx context.Context, input SubscribeInput) (data.SubscriptionDTO, error) {
	if input.Topic == "" {
		return data.SubscriptionDTO{}, exceptions.InvalidInput("topic is required")
	}
	hubUrl, err := se._resolveHub(ctx, input)
	if err != nil {
		return data.SubscriptionDTO{}, err
	}
	leaseSeconds := se.DefaultLeaseSeconds
	if input.LeaseSeconds != nil && *input.LeaseSeconds > 0 {
		leaseSeconds = *input.LeaseSeconds
	}

	subscription, created, err := se.Store.CreateIfAbsent(ctx, data.SubscriptionInputDTO{
		Hub:   hubUrl,
		Topic: input.Topic,
	})
	if err != nil {
		return subscription, err
	}
	logger := se.Logger.With("subscriptionId", subscription.SK, "hub", hubUrl, "topic", input.Topic)
	se.Notifications.Emit(ctx, notifications.PreSubscribe(subscription, created))

	subscription.SetExpiration(se._now(), leaseSeconds)
	callback, err := se._resolveCallback(ctx, input, subscription.SK)
	if err != nil {
		return subscription, err
	}
	verifyToken, err := se.Tokens.Generate(subscription, verification.MODE_SUBSCRIBE)
	if err != nil {
		return subscription, err
	}
	subscription.Callback = callback
	subscription.VerifyToken = verifyToken
	if input.Supersedes != nil && *input.Supersedes != subscription.SK {
		subscription.Supersedes = *input.Supersedes
	}
	if subscription, err = se.Store.Save(ctx, subscription); err != nil {
		return subscription, err
	}

	response, err := se.Hubs.Subscribe(ctx, hubUrl, hub.SubscribeRequest{
		Mode:         verification.MODE_SUBSCRIBE,
		Callback:     callback,
		Topic:        input.Topic,
		Verify:       []string{hub.VERIFY_ASYNC, hub.VERIFY_SYNC},
		VerifyToken:  verifyToken,
		LeaseSeconds: leaseSeconds,
	})
	if err != nil {
		logger.Error("subscribe request failed", "err", err)
		return subscription, err
	}
	switch response.StatusCode {
	case http.StatusNoContent:
		subscription.Verified = true
	case http.StatusAccepted:
		if confirmed, ok := se._confirmedMeanwhile(ctx, subscription); ok {
			logger.Info("subscription verified before the hub answered", "leaseExpires", confirmed.LeaseExpires)
			return confirmed, nil
		}
		subscription.Verified = false
	default:
		logger.Warn("hub rejected subscription", "status", response.StatusCode)
		return subscription, exceptions.HubRejected(hubUrl, input.Topic, response.StatusCode, response.Body)
	}

	if subscription, err = se.Store.Save(ctx, subscription); err != nil {
		return subscription, err
	}
	logger.Info("subscription requested", "created", created, "verified", subscription.Verified, "leaseSeconds", leaseSeconds)
	if subscription.Verified {
		se.Notifications.Emit(ctx, notifications.NewEvent(notifications.VERIFIED, subscription))
		subscription = se._retire(ctx, subscription)
	}
	return subscription, nil
}

// _confirmedMeanwhile reports whether an async verification for this token
// was stored while the subscribe request was still open. saved is the record
// as written before the request went out.
func (se *SubscriptionEngine) _confirmedMeanwhile(ctx context.Context, saved data.SubscriptionDTO) (data.SubscriptionDTO, bool) {
	current, err := se.Store.Get(ctx, saved.SK)
	if err != nil {
		return current, false
	}
	if !current.Verified || current.VerifyToken != saved.VerifyToken || current.UpdateTime.Equal(saved.UpdateTime) {
		return current, false
	}
	return current, true
}

// Confirm records a hub's asynchronous verification of subscription.
func (se *SubscriptionEngine) Confirm(ctx context.Context, subscription data.SubscriptionDTO, leaseSeconds *int) (data.SubscriptionDTO, error) {
	subscription.Verified = true
	if leaseSeconds != nil && *leaseSeconds > 0 {
		subscription.SetExpiration(se._now(), *leaseSeconds)
	}
	subscription, err := se.Store.Save(ctx, subscription)
	if err != nil {
		return subscription, err
	}
	se.Logger.Info("subscription verified", "subscriptionId", subscription.SK, "leaseExpires", subscription.LeaseExpires)
	se.Notifications.Emit(ctx, notifications.NewEvent(notifications.VERIFIED, subscription))
	return se._retire(ctx, subscription), nil
}

// _retire deletes the record a verified migration replaced. Failures leave
// the orphan behind rather than failing the verified subscription.
func (se *SubscriptionEngine) _retire(ctx context.Context, subscription data.SubscriptionDTO) data.SubscriptionDTO {
	if subscription.Supersedes == "" {
		return subscription
	}
	logger := se.Logger.With("subscriptionId", subscription.SK, "supersedes", subscription.Supersedes)
	if err := se.Store.Delete(ctx, subscription.Supersedes); err != nil {
		logger.Warn("failed to delete superseded subscription", "err", err)
		return subscription
	}
	subscription.Supersedes = ""
	saved, err := se.Store.Save(ctx, subscription)
	if err != nil {
		logger.Warn("failed to clear superseded subscription", "err", err)
		return subscription
	}
	logger.Info("superseded subscription deleted")
	return saved
}

// MigrationLease is what is left of subscription's lease, kept within
// [MinimumLeaseSeconds, LeaseSeconds] so a lapsed lease still asks for a
// positive one.
func (se *SubscriptionEngine) MigrationLease(subscription data.SubscriptionDTO) int {
	remaining := subscription.RemainingLease(se._now())
	if remaining < se.MinimumLeaseSeconds {
		remaining = se.MinimumLeaseSeconds
	}
	if subscription.LeaseSeconds > 0 && remaining > subscription.LeaseSeconds {
		remaining = subscription.LeaseSeconds
	}
	if remaining <= 0 {
		remaining = se.DefaultLeaseSeconds
	}
	return remaining
}

func (se *SubscriptionEngine) Get(ctx context.Context, subscriptionId string) (data.SubscriptionDTO, error) {
	return se.Store.Get(ctx, subscriptionId)
}

func (se *SubscriptionEngine) List(ctx context.Context, params data.QueryParams) (data.QueryResults[data.SubscriptionDTO], error) {
	return se.Store.List(ctx, params)
}

// Unsubscribe forgets a subscription locally. The hub keeps its record until
// the lease runs out.
func (se *SubscriptionEngine) Unsubscribe(ctx context.Context, subscriptionId string) error {
	if err := se.Store.Delete(ctx, subscriptionId); err != nil {
		return err
	}
	se.Logger.Info("subscription deleted", "subscriptionId", subscriptionId)
	return nil
}
