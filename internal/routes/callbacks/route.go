package callbacks

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"philcali.me/pubsubhubbub/internal/callback"
	"philcali.me/pubsubhubbub/internal/exceptions"
	"philcali.me/pubsubhubbub/internal/hub"
	"philcali.me/pubsubhubbub/internal/routes"
	"philcali.me/pubsubhubbub/internal/routes/util"
)

const (
	CALLBACK_PATH   = "/callback/:subscriptionId"
	SUBSCRIPTION_ID = "subscriptionId"
)

type CallbackService struct {
	processor *callback.CallbackProcessor
	logger    *slog.Logger
}

func NewRoute(processor *callback.CallbackProcessor, logger *slog.Logger) routes.Service {
	return &CallbackService{
		processor: processor,
		logger:    logger,
	}
}

func (cs *CallbackService) GetRoutes() map[string]routes.Route {
	return map[string]routes.Route{
		"GET:" + CALLBACK_PATH:  cs.Verify,
		"POST:" + CALLBACK_PATH: cs.Notify,
	}
}

// _opaque hides why a callback failed; hubs only ever learn the id is unknown.
func (cs *CallbackService) _opaque(subscriptionId string, err error) error {
	cs.logger.Warn("callback rejected", "subscriptionId", subscriptionId, "err", err)
	return exceptions.NotFound(callback.SUBSCRIPTION_RESOURCE, subscriptionId)
}

func (cs *CallbackService) Verify(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	subscriptionId := util.RequestParam(ctx, SUBSCRIPTION_ID)
	query := event.QueryStringParameters
	if _, ok := query[hub.FIELD_CHALLENGE]; !ok {
		return events.APIGatewayV2HTTPResponse{}, cs._opaque(subscriptionId, exceptions.InvalidInput("missing "+hub.FIELD_CHALLENGE))
	}
	request := callback.VerificationRequest{
		Mode:        query[hub.FIELD_MODE],
		Topic:       query[hub.FIELD_TOPIC],
		Challenge:   query[hub.FIELD_CHALLENGE],
		VerifyToken: query[hub.FIELD_VERIFY_TOKEN],
	}
	if sLease, ok := query[hub.FIELD_LEASE_SECONDS]; ok && sLease != "" {
		lease, err := strconv.Atoi(sLease)
		if err != nil {
			return events.APIGatewayV2HTTPResponse{}, cs._opaque(subscriptionId, err)
		}
		request.LeaseSeconds = &lease
	}
	challenge, err := cs.processor.Verify(ctx, subscriptionId, request)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, cs._opaque(subscriptionId, err)
	}
	return util.SerializeText(challenge, nil)
}

func (cs *CallbackService) Notify(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	subscriptionId := util.RequestParam(ctx, SUBSCRIPTION_ID)
	body, err := util.RequestBody(event)
	if err == nil {
		err = cs.processor.Notify(ctx, subscriptionId, body)
	}
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, cs._opaque(subscriptionId, err)
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: 200,
	}, nil
}
