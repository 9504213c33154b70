package engine

import (
	"context"
	"time"

	"philcali.me/pubsubhubbub/internal/data"
)

type RenewalReport struct {
	Checked int `json:"checked"`
	Renewed int `json:"renewed"`
	Failed  int `json:"failed"`
}

// Renew re-subscribes with the stored hub, topic and callback, starting a new
// lease of the same length under the same identity.
func (se *SubscriptionEngine) Renew(ctx context.Context, subscription data.SubscriptionDTO) (data.SubscriptionDTO, error) {
	input := SubscribeInput{
		Topic: subscription.Topic,
		Hub:   &subscription.Hub,
	}
	if subscription.Callback != "" {
		input.Callback = &subscription.Callback
	}
	if subscription.LeaseSeconds > 0 {
		input.LeaseSeconds = &subscription.LeaseSeconds
	}
	return se.Subscribe(ctx, input)
}

// RenewExpiring renews every subscription whose lease ends within window.
// A failed renewal is logged and counted; the sweep carries on.
func (se *SubscriptionEngine) RenewExpiring(ctx context.Context, window time.Duration) (RenewalReport, error) {
	report := RenewalReport{}
	params := data.QueryParams{}
	for {
		page, err := se.Store.List(ctx, params)
		if err != nil {
			return report, err
		}
		now := se._now()
		for _, subscription := range page.Items {
			report.Checked++
			if !subscription.ExpiresWithin(now, window) {
				continue
			}
			if _, err := se.Renew(ctx, subscription); err != nil {
				report.Failed++
				se.Logger.Error("failed to renew subscription", "subscriptionId", subscription.SK, "topic", subscription.Topic, "err", err)
				continue
			}
			report.Renewed++
		}
		if len(page.NextToken) == 0 {
			break
		}
		params.NextToken = page.NextToken
	}
	se.Logger.Info("renewal sweep finished", "checked", report.Checked, "renewed", report.Renewed, "failed", report.Failed)
	return report, nil
}
