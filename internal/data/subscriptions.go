package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const SUBSCRIPTION_PARTITION = "Subscription"

type SubscriptionDTO struct {
	PK           string    `dynamodbav:"PK" json:"-"`
	SK           string    `dynamodbav:"SK" json:"id"`
	Hub          string    `dynamodbav:"hub" json:"hub"`
	Topic        string    `dynamodbav:"topic" json:"topic"`
	Callback     string    `dynamodbav:"callback" json:"callback,omitempty"`
	Verified     bool      `dynamodbav:"verified" json:"verified"`
	VerifyToken  string    `dynamodbav:"verifyToken" json:"-"`
	LeaseSeconds int       `dynamodbav:"leaseSeconds" json:"leaseSeconds"`
	LeaseExpires time.Time `dynamodbav:"leaseExpires" json:"leaseExpires"`
	Supersedes   string    `dynamodbav:"supersedes,omitempty" json:"supersedes,omitempty"`
	CreateTime   time.Time `dynamodbav:"createTime" json:"createTime"`
	UpdateTime   time.Time `dynamodbav:"updateTime" json:"updateTime"`
}

func (s *SubscriptionDTO) Id() string {
	return s.SK
}

// SetExpiration starts a new lease window of leaseSeconds from now.
func (s *SubscriptionDTO) SetExpiration(now time.Time, leaseSeconds int) {
	s.LeaseSeconds = leaseSeconds
	s.LeaseExpires = now.Add(time.Duration(leaseSeconds) * time.Second)
}

// IsExpired reports a lapsed lease. Expired subscriptions are still stored
// and can be renewed.
func (s *SubscriptionDTO) IsExpired(now time.Time) bool {
	return now.After(s.LeaseExpires)
}

func (s *SubscriptionDTO) ExpiresWithin(now time.Time, window time.Duration) bool {
	return !now.Add(window).Before(s.LeaseExpires)
}

// RemainingLease is the whole number of seconds left on the lease, which is
// negative once it has lapsed.
func (s *SubscriptionDTO) RemainingLease(now time.Time) int {
	return int(s.LeaseExpires.Sub(now) / time.Second)
}

func (s *SubscriptionDTO) String() string {
	verified := "unverified"
	if s.Verified {
		verified = "verified"
	}
	return fmt.Sprintf("to %s on %s: %s", s.Topic, s.Hub, verified)
}

type SubscriptionInputDTO struct {
	Hub      string `dynamodbav:"hub"`
	Topic    string `dynamodbav:"topic"`
	Callback string `dynamodbav:"callback"`
}

func (i SubscriptionInputDTO) Id() string {
	return SubscriptionId(i.Hub, i.Topic)
}

func _digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// SubscriptionId derives the stable identity of a (hub, topic) pair so that
// concurrent creates for the same pair converge on one record.
func SubscriptionId(hub string, topic string) string {
	return fmt.Sprintf("%s-%s", _digest(hub), _digest(topic))
}

type SubscriptionStore interface {
	CreateIfAbsent(ctx context.Context, input SubscriptionInputDTO) (SubscriptionDTO, bool, error)
	Get(ctx context.Context, subscriptionId string) (SubscriptionDTO, error)
	Save(ctx context.Context, subscription SubscriptionDTO) (SubscriptionDTO, error)
	Delete(ctx context.Context, subscriptionId string) error
	List(ctx context.Context, params QueryParams) (QueryResults[SubscriptionDTO], error)
}
