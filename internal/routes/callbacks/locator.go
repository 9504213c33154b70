package callbacks

import (
	"context"
	"fmt"
	"strings"

	"philcali.me/pubsubhubbub/internal/routes"
	"philcali.me/pubsubhubbub/internal/routes/util"
)

// Locator reverses the callback route into an absolute URL. PublicUrl wins;
// without it the domain of the request being served is used.
type Locator struct {
	PublicUrl string
}

func NewLocator(publicUrl string) *Locator {
	return &Locator{
		PublicUrl: strings.TrimSuffix(publicUrl, "/"),
	}
}

func (l *Locator) CallbackURL(ctx context.Context, subscriptionId string) (string, error) {
	path, err := routes.Reverse(CALLBACK_PATH, map[string]string{
		SUBSCRIPTION_ID: subscriptionId,
	})
	if err != nil {
		return "", err
	}
	if l.PublicUrl != "" {
		return l.PublicUrl + path, nil
	}
	if domainName := util.DomainName(ctx); domainName != "" {
		return "https://" + domainName + path, nil
	}
	return "", fmt.Errorf("no public url or request domain to build %s on", path)
}
