package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"philcali.me/pubsubhubbub/internal/app"
	"philcali.me/pubsubhubbub/internal/callback"
	"philcali.me/pubsubhubbub/internal/routes"
	"philcali.me/pubsubhubbub/internal/routes/callbacks"
	"philcali.me/pubsubhubbub/internal/routes/subscriptions"
)

type App struct {
	Router routes.Router
}

func NewApp() App {
	application, err := app.New(context.TODO())
	if err != nil {
		panic(fmt.Sprintf("Failed to configure the callback service: %s", err))
	}
	processor := callback.NewCallbackProcessor(application.Engine, application.Parser, application.Notifications, application.Logger)
	router := routes.NewRouter(
		callbacks.NewRoute(processor, application.Logger),
		subscriptions.NewRoute(application.Engine, application.Logger),
	)
	router.Logger = application.Logger
	return App{
		Router: *router,
	}
}

func (app *App) HandleRequest(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return app.Router.Invoke(request, ctx), nil
}

func main() {
	app := NewApp()
	lambda.Start(app.HandleRequest)
}
