package subscriptions

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"philcali.me/pubsubhubbub/internal/engine"
	"philcali.me/pubsubhubbub/internal/exceptions"
	"philcali.me/pubsubhubbub/internal/routes"
	"philcali.me/pubsubhubbub/internal/routes/util"
)

type SubscriptionService struct {
	engine *engine.SubscriptionEngine
	logger *slog.Logger
}

func NewRoute(engine *engine.SubscriptionEngine, logger *slog.Logger) routes.Service {
	return &SubscriptionService{
		engine: engine,
		logger: logger,
	}
}

func (s *SubscriptionService) GetRoutes() map[string]routes.Route {
	return map[string]routes.Route{
		"GET:/subscriptions":                    util.AuthorizedRoute(s.ListSubscriptions),
		"GET:/subscriptions/:subscriptionId":    util.AuthorizedRoute(s.GetSubscription),
		"POST:/subscriptions":                   util.AuthorizedRoute(s.CreateSubscription),
		"DELETE:/subscriptions/:subscriptionId": util.AuthorizedRoute(s.DeleteSubscription),
	}
}

func (s *SubscriptionService) ListSubscriptions(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	params, err := util.QueryParams(event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	items, err := s.engine.List(ctx, params)
	return util.SerializeResponseOK(NewSubscriptionPage, items, err)
}

func (s *SubscriptionService) GetSubscription(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	item, err := s.engine.Get(ctx, util.RequestParam(ctx, "subscriptionId"))
	return util.SerializeResponseOK(NewSubscription, item, err)
}

func (s *SubscriptionService) CreateSubscription(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	input := SubscriptionInput{}
	if err := json.Unmarshal([]byte(event.Body), &input); err != nil {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InvalidInput(err.Error())
	}
	if input.Topic == nil || *input.Topic == "" {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InvalidInput("topic is required")
	}
	if input.LeaseSeconds != nil && *input.LeaseSeconds <= 0 {
		return events.APIGatewayV2HTTPResponse{}, exceptions.InvalidInput("leaseSeconds must be positive")
	}
	s.logger.Info("subscribe requested", "topic", *input.Topic, "username", util.Username(ctx))
	item, err := s.engine.Subscribe(ctx, input.toInput())
	return util.SerializeResponseOK(NewSubscription, item, err)
}

func (s *SubscriptionService) DeleteSubscription(event events.APIGatewayV2HTTPRequest, ctx context.Context) (events.APIGatewayV2HTTPResponse, error) {
	err := s.engine.Unsubscribe(ctx, util.RequestParam(ctx, "subscriptionId"))
	return util.SerializeResponseNoContent(err)
}
