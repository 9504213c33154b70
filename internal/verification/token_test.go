package verification_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/exceptions"
	"philcali.me/pubsubhubbub/internal/verification"
)

func _subscription(hub, topic string) data.SubscriptionDTO {
	return data.SubscriptionDTO{
		SK:         data.SubscriptionId(hub, topic),
		Hub:        hub,
		Topic:      topic,
		CreateTime: time.Now(),
	}
}

func TestTokenGenerator(t *testing.T) {
	generator := verification.NewTokenGenerator("s3cret")
	subA := _subscription("http://hub.example/", "http://feed.example/a")
	subB := _subscription("http://hub.example/", "http://feed.example/b")

	token, err := generator.Generate(subA, verification.MODE_SUBSCRIBE)
	require.NoError(t, err)

	t.Run("ModePrefix", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(token, "subscribe"))
		assert.Len(t, token, len("subscribe")+64)
	})

	t.Run("Deterministic", func(t *testing.T) {
		again, err := generator.Generate(subA, verification.MODE_SUBSCRIBE)
		require.NoError(t, err)
		assert.Equal(t, token, again)
	})

	t.Run("SameMode", func(t *testing.T) {
		assert.True(t, generator.Verify(subA.SK, token, verification.MODE_SUBSCRIBE))
	})

	t.Run("OtherMode", func(t *testing.T) {
		assert.False(t, generator.Verify(subA.SK, token, verification.MODE_UNSUBSCRIBE))
	})

	t.Run("OtherSubscription", func(t *testing.T) {
		assert.False(t, generator.Verify(subB.SK, token, verification.MODE_SUBSCRIBE))
	})

	t.Run("OtherSecret", func(t *testing.T) {
		other := verification.NewTokenGenerator("rotated")
		assert.False(t, other.Verify(subA.SK, token, verification.MODE_SUBSCRIBE))
	})

	t.Run("Tampered", func(t *testing.T) {
		tampered := token[:len(token)-1] + "0"
		if tampered == token {
			tampered = token[:len(token)-1] + "1"
		}
		assert.False(t, generator.Verify(subA.SK, tampered, verification.MODE_SUBSCRIBE))
		assert.False(t, generator.Verify(subA.SK, "", verification.MODE_SUBSCRIBE))
	})

	t.Run("LongModeTruncated", func(t *testing.T) {
		mode := "a-mode-name-longer-than-twenty-characters"
		long, err := generator.Generate(subA, mode)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(long, mode[:20]))
		assert.Len(t, long, 20+64)
		assert.True(t, generator.Verify(subA.SK, long, mode))
	})
}

func TestGenerateRequiresPersistedSubscription(t *testing.T) {
	generator := verification.NewTokenGenerator("s3cret")
	_, err := generator.Generate(data.SubscriptionDTO{Hub: "h", Topic: "t"}, verification.MODE_SUBSCRIBE)
	var pe *exceptions.PreconditionError
	assert.True(t, errors.As(err, &pe))
}
