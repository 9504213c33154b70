package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"philcali.me/pubsubhubbub/internal/app"
	"philcali.me/pubsubhubbub/internal/config"
	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/notifications"
	"philcali.me/pubsubhubbub/internal/test"
)

type LocalSns struct {
	Published []*sns.PublishInput
}

func (ls *LocalSns) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	ls.Published = append(ls.Published, input)
	return &sns.PublishOutput{}, nil
}

func TestNewWithClients(t *testing.T) {
	client, tableName := test.NewLocalClient(test.LOCAL_DDB_PORT+3, t)
	localSns := &LocalSns{}
	application := app.NewWithClients(&config.Config{
		SecretKey:           "s3cret",
		TableName:           tableName,
		TopicArn:            "arn:aws:sns:us-east-1:012345678912:subscriptions",
		PublicUrl:           "https://push.example",
		DefaultLeaseSeconds: config.DEFAULT_LEASE_SECONDS,
		MinimumLeaseSeconds: 3600,
		RequestTimeout:      time.Second,
		LogLevel:            "debug",
	}, client, localSns)

	var observed []notifications.Event
	application.Observers.On(notifications.PRE_SUBSCRIBE, func(ctx context.Context, event notifications.Event) {
		observed = append(observed, event)
	})
	created, wasCreated, err := application.Engine.Store.CreateIfAbsent(context.TODO(), data.SubscriptionInputDTO{
		Hub:   "http://hub.example/",
		Topic: "http://feed.example/atom",
	})
	require.NoError(t, err)
	assert.True(t, wasCreated)
	application.Notifications.Emit(context.TODO(), notifications.PreSubscribe(created, true))

	assert.Len(t, observed, 1)
	require.Len(t, localSns.Published, 1)
	callback, err := application.Engine.Callbacks.CallbackURL(context.TODO(), created.SK)
	require.NoError(t, err)
	assert.Equal(t, "https://push.example/callback/"+created.SK, callback)
}
