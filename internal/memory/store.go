package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/exceptions"
)

// SubscriptionStore keeps subscriptions in a map guarded by a mutex. It
// satisfies the same contract as the DynamoDB store and backs tests and
// local runs.
type SubscriptionStore struct {
	subscriptions map[string]data.SubscriptionDTO
	sync.Mutex
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{subscriptions: make(map[string]data.SubscriptionDTO)}
}

func (ss *SubscriptionStore) CreateIfAbsent(ctx context.Context, input data.SubscriptionInputDTO) (data.SubscriptionDTO, bool, error) {
	ss.Lock()
	defer ss.Unlock()

	id := input.Id()
	if existing, ok := ss.subscriptions[id]; ok {
		return existing, false, nil
	}
	now := time.Now()
	created := data.SubscriptionDTO{
		PK:           data.SUBSCRIPTION_PARTITION,
		SK:           id,
		Hub:          input.Hub,
		Topic:        input.Topic,
		Callback:     input.Callback,
		LeaseExpires: now,
		CreateTime:   now,
		UpdateTime:   now,
	}
	ss.subscriptions[id] = created
	return created, true, nil
}

func (ss *SubscriptionStore) Get(ctx context.Context, subscriptionId string) (data.SubscriptionDTO, error) {
	ss.Lock()
	defer ss.Unlock()

	if existing, ok := ss.subscriptions[subscriptionId]; ok {
		return existing, nil
	}
	return data.SubscriptionDTO{}, exceptions.NotFound("subscription", subscriptionId)
}

func (ss *SubscriptionStore) Save(ctx context.Context, subscription data.SubscriptionDTO) (data.SubscriptionDTO, error) {
	ss.Lock()
	defer ss.Unlock()

	if _, ok := ss.subscriptions[subscription.SK]; !ok {
		return subscription, exceptions.NotFound("subscription", subscription.SK)
	}
	subscription.PK = data.SUBSCRIPTION_PARTITION
	subscription.UpdateTime = time.Now()
	ss.subscriptions[subscription.SK] = subscription
	return subscription, nil
}

func (ss *SubscriptionStore) Delete(ctx context.Context, subscriptionId string) error {
	ss.Lock()
	defer ss.Unlock()

	delete(ss.subscriptions, subscriptionId)
	return nil
}

// List pages through subscriptions ordered by id; the next token is the last
// id of the page.
func (ss *SubscriptionStore) List(ctx context.Context, params data.QueryParams) (data.QueryResults[data.SubscriptionDTO], error) {
	ss.Lock()
	defer ss.Unlock()

	ids := maps.Keys(ss.subscriptions)
	slices.Sort(ids)
	start := 0
	if len(params.NextToken) > 0 {
		start, _ = slices.BinarySearch(ids, string(params.NextToken))
		if start < len(ids) && ids[start] == string(params.NextToken) {
			start++
		}
	}
	limit := int(*params.GetLimit())
	items := make([]data.SubscriptionDTO, 0, limit)
	for _, id := range ids[start:] {
		if len(items) == limit {
			break
		}
		items = append(items, ss.subscriptions[id])
	}
	var nextToken []byte
	if len(items) > 0 && start+len(items) < len(ids) {
		nextToken = []byte(items[len(items)-1].SK)
	}
	return data.QueryResults[data.SubscriptionDTO]{
		Items:     items,
		NextToken: nextToken,
	}, nil
}
