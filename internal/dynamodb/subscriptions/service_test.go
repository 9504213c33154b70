package subscriptions_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/dynamodb/subscriptions"
	"philcali.me/pubsubhubbub/internal/dynamodb/token"
	"philcali.me/pubsubhubbub/internal/exceptions"
	"philcali.me/pubsubhubbub/internal/test"
)

func NewSubscriptionStore(t *testing.T) data.SubscriptionStore {
	client, tableName := test.NewLocalClient(test.LOCAL_DDB_PORT+1, t)
	return subscriptions.NewSubscriptionService(tableName, client, token.NewGCM("test-secret"))
}

func TestSubscriptionStore(t *testing.T) {
	store := NewSubscriptionStore(t)
	ctx := context.Background()
	input := data.SubscriptionInputDTO{
		Hub:   "http://hub.example/",
		Topic: "http://feed.example/atom",
	}

	t.Run("CreateIfAbsent", func(t *testing.T) {
		created, ok, err := store.CreateIfAbsent(ctx, input)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, input.Id(), created.SK)
		assert.False(t, created.Verified)

		existing, ok, err := store.CreateIfAbsent(ctx, input)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, created.SK, existing.SK)
	})

	t.Run("ConcurrentCreateConverges", func(t *testing.T) {
		racing := data.SubscriptionInputDTO{Hub: "http://hub.example/", Topic: "http://feed.example/race"}
		var wg sync.WaitGroup
		results := make([]bool, 8)
		ids := make([]string, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sub, created, err := store.CreateIfAbsent(ctx, racing)
				assert.NoError(t, err)
				results[i] = created
				ids[i] = sub.SK
			}(i)
		}
		wg.Wait()
		winners := 0
		for i, created := range results {
			if created {
				winners++
			}
			assert.Equal(t, racing.Id(), ids[i])
		}
		assert.Equal(t, 1, winners)
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		sub, err := store.Get(ctx, input.Id())
		require.NoError(t, err)
		sub.Verified = true
		sub.VerifyToken = "subscribeabc"
		sub.SetExpiration(time.Now(), 3600)
		_, err = store.Save(ctx, sub)
		require.NoError(t, err)

		fetched, err := store.Get(ctx, input.Id())
		require.NoError(t, err)
		assert.True(t, fetched.Verified)
		assert.Equal(t, "subscribeabc", fetched.VerifyToken)
		assert.Equal(t, 3600, fetched.LeaseSeconds)
	})

	t.Run("List", func(t *testing.T) {
		page, err := store.List(ctx, data.QueryParams{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.NotEmpty(t, page.NextToken)

		rest, err := store.List(ctx, data.QueryParams{Limit: 10, NextToken: page.NextToken})
		require.NoError(t, err)
		assert.Len(t, rest.Items, 1)
		assert.NotEqual(t, page.Items[0].SK, rest.Items[0].SK)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, input.Id()))
		require.NoError(t, store.Delete(ctx, input.Id()))

		_, err := store.Get(ctx, input.Id())
		var nfe *exceptions.NotFoundError
		assert.ErrorAs(t, err, &nfe)

		_, err = store.Save(ctx, data.SubscriptionDTO{SK: input.Id()})
		assert.ErrorAs(t, err, &nfe)
	})
}
