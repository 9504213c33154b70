package subscriptions

import (
	"time"

	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/engine"
)

type Subscription struct {
	Id           string    `json:"subscriptionId"`
	Hub          string    `json:"hub"`
	Topic        string    `json:"topic"`
	Callback     string    `json:"callback"`
	Verified     bool      `json:"verified"`
	Expired      bool      `json:"expired"`
	LeaseSeconds int       `json:"leaseSeconds"`
	LeaseExpires time.Time `json:"leaseExpires"`
	Supersedes   string    `json:"supersedes,omitempty"`
	CreateTime   time.Time `json:"createTime"`
	UpdateTime   time.Time `json:"updateTime"`
}

type SubscriptionInput struct {
	Topic        *string `json:"topic"`
	Hub          *string `json:"hub"`
	Callback     *string `json:"callback"`
	LeaseSeconds *int    `json:"leaseSeconds"`
}

func (s *SubscriptionInput) toInput() engine.SubscribeInput {
	input := engine.SubscribeInput{
		Hub:          s.Hub,
		Callback:     s.Callback,
		LeaseSeconds: s.LeaseSeconds,
	}
	if s.Topic != nil {
		input.Topic = *s.Topic
	}
	return input
}

// SubscriptionPage carries the next token as the string the store issued so
// it can be passed back verbatim.
type SubscriptionPage struct {
	Items     []Subscription `json:"items"`
	NextToken *string        `json:"nextToken,omitempty"`
}

func NewSubscription(entry data.SubscriptionDTO) Subscription {
	return Subscription{
		Id:           entry.SK,
		Hub:          entry.Hub,
		Topic:        entry.Topic,
		Callback:     entry.Callback,
		Verified:     entry.Verified,
		Expired:      entry.IsExpired(time.Now()),
		LeaseSeconds: entry.LeaseSeconds,
		LeaseExpires: entry.LeaseExpires,
		Supersedes:   entry.Supersedes,
		CreateTime:   entry.CreateTime,
		UpdateTime:   entry.UpdateTime,
	}
}

func NewSubscriptionPage(results data.QueryResults[data.SubscriptionDTO]) SubscriptionPage {
	page := SubscriptionPage{
		Items: make([]Subscription, 0, len(results.Items)),
	}
	for _, item := range results.Items {
		page.Items = append(page.Items, NewSubscription(item))
	}
	if len(results.NextToken) > 0 {
		nextToken := string(results.NextToken)
		page.NextToken = &nextToken
	}
	return page
}
