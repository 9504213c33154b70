package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"philcali.me/pubsubhubbub/internal/exceptions"
)

// Feeds larger than this are not worth discovering a hub from.
const MAX_FEED_BYTES = 10 << 20

type HubResolver interface {
	ResolveHub(ctx context.Context, topic string) (string, bool, error)
}

// FeedHubResolver fetches the topic and returns the href of its first
// rel="hub" link.
type FeedHubResolver struct {
	Client *http.Client
	Parser Parser
}

func NewHubResolver(client *http.Client, parser Parser) *FeedHubResolver {
	return &FeedHubResolver{
		Client: client,
		Parser: parser,
	}
}

func (fr *FeedHubResolver) Fetch(ctx context.Context, topic string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, topic, nil)
	if err != nil {
		return nil, exceptions.InvalidInput(fmt.Sprintf("invalid topic %s: %v", topic, err))
	}
	resp, err := fr.Client.Do(req)
	if err != nil {
		return nil, exceptions.Transport(topic, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, exceptions.Transport(topic, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MAX_FEED_BYTES))
	if err != nil {
		return nil, exceptions.Transport(topic, err)
	}
	return fr.Parser.Parse(body)
}

func (fr *FeedHubResolver) ResolveHub(ctx context.Context, topic string) (string, bool, error) {
	doc, err := fr.Fetch(ctx, topic)
	if err != nil {
		return "", false, err
	}
	hub, ok := doc.Href(REL_HUB)
	return hub, ok, nil
}
