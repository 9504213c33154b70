package exceptions_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"philcali.me/pubsubhubbub/internal/exceptions"
)

func TestStatusCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
	}{
		"NotFound":      {exceptions.NotFound("subscription", "abc"), 404},
		"Conflict":      {exceptions.Conflict("subscription", "abc"), 409},
		"InvalidInput":  {exceptions.InvalidInput("bad"), 400},
		"Configuration": {exceptions.Configuration("hub cannot be determined for %s", "t"), 400},
		"HubRejected":   {exceptions.HubRejected("h", "t", 400, "nope"), 502},
		"Transport":     {exceptions.Transport("h", errors.New("reset")), 502},
		"Precondition":  {exceptions.Precondition("unsaved"), 500},
		"Wrapped":       {fmt.Errorf("lookup: %w", exceptions.NotFound("subscription", "abc")), 404},
		"Plain":         {errors.New("boom"), 500},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, c.code, exceptions.StatusCode(c.err))
		})
	}
}

func TestTransportUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := exceptions.Transport("http://hub.example/", cause)
	assert.ErrorIs(t, err, cause)
}

func TestHubRejectedMessage(t *testing.T) {
	err := exceptions.HubRejected("http://hub.example/", "http://feed.example/atom", 400, "bad topic")
	assert.Contains(t, err.Error(), "bad topic")
	assert.Contains(t, err.Error(), "http://feed.example/atom")
}
