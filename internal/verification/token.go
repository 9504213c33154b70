package verification

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"philcali.me/pubsubhubbub/internal/data"
	"philcali.me/pubsubhubbub/internal/exceptions"
)

const (
	MODE_SUBSCRIBE   = "subscribe"
	MODE_UNSUBSCRIBE = "unsubscribe"

	MODE_PREFIX_LENGTH = 20
)

// TokenGenerator derives verify tokens of the form mode[:20] + hex(sha256(secret
// + subscription id + mode)). Rotating the secret invalidates every token
// still awaiting hub verification.
type TokenGenerator struct {
	secret []byte
}

func NewTokenGenerator(secret string) *TokenGenerator {
	return &TokenGenerator{secret: []byte(secret)}
}

func _prefix(mode string) string {
	if len(mode) > MODE_PREFIX_LENGTH {
		return mode[:MODE_PREFIX_LENGTH]
	}
	return mode
}

func (tg *TokenGenerator) _token(subscriptionId string, mode string) string {
	hash := sha256.New()
	hash.Write(tg.secret)
	hash.Write([]byte(subscriptionId))
	hash.Write([]byte(mode))
	return _prefix(mode) + hex.EncodeToString(hash.Sum(nil))
}

// Generate binds a token to a persisted subscription and the given mode.
func (tg *TokenGenerator) Generate(subscription data.SubscriptionDTO, mode string) (string, error) {
	if subscription.SK == "" || subscription.CreateTime.IsZero() {
		return "", exceptions.Precondition("subscription must be saved before generating a token")
	}
	return tg._token(subscription.SK, mode), nil
}

func (tg *TokenGenerator) Verify(subscriptionId string, token string, mode string) bool {
	if subscriptionId == "" || !strings.HasPrefix(token, _prefix(mode)) {
		return false
	}
	expected := tg._token(subscriptionId, mode)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}
