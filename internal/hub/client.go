package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"philcali.me/pubsubhubbub/internal/exceptions"
)

const (
	FIELD_MODE          = "hub.mode"
	FIELD_CALLBACK      = "hub.callback"
	FIELD_TOPIC         = "hub.topic"
	FIELD_VERIFY        = "hub.verify"
	FIELD_VERIFY_TOKEN  = "hub.verify_token"
	FIELD_LEASE_SECONDS = "hub.lease_seconds"
	FIELD_CHALLENGE     = "hub.challenge"

	VERIFY_ASYNC = "async"
	VERIFY_SYNC  = "sync"

	// Hubs explaining a rejection do not need more than this.
	MAX_ERROR_BYTES = 64 << 10
)

type SubscribeRequest struct {
	Mode         string
	Callback     string
	Topic        string
	Verify       []string
	VerifyToken  string
	LeaseSeconds int
}

func (sr *SubscribeRequest) Form() url.Values {
	form := url.Values{}
	form.Set(FIELD_MODE, sr.Mode)
	form.Set(FIELD_CALLBACK, sr.Callback)
	form.Set(FIELD_TOPIC, sr.Topic)
	for _, verify := range sr.Verify {
		form.Add(FIELD_VERIFY, verify)
	}
	form.Set(FIELD_VERIFY_TOKEN, sr.VerifyToken)
	form.Set(FIELD_LEASE_SECONDS, strconv.Itoa(sr.LeaseSeconds))
	return form
}

type SubscribeResponse struct {
	StatusCode int
	Body       string
}

type HubClient interface {
	Subscribe(ctx context.Context, hubUrl string, request SubscribeRequest) (*SubscribeResponse, error)
}

type HttpHubClient struct {
	Client *http.Client
}

func NewHubClient(client *http.Client) HubClient {
	return &HttpHubClient{
		Client: client,
	}
}

// Subscribe posts the form encoded request. Only network failures are
// errors; interpreting the status is left to the caller.
func (hc *HttpHubClient) Subscribe(ctx context.Context, hubUrl string, request SubscribeRequest) (*SubscribeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hubUrl, strings.NewReader(request.Form().Encode()))
	if err != nil {
		return nil, exceptions.Configuration("invalid hub url %s: %v", hubUrl, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := hc.Client.Do(req)
	if err != nil {
		return nil, exceptions.Transport(hubUrl, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, MAX_ERROR_BYTES))
	if err != nil {
		return nil, exceptions.Transport(hubUrl, fmt.Errorf("failed to read response: %w", err))
	}
	return &SubscribeResponse{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}
