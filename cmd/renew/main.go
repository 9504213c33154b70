package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"philcali.me/pubsubhubbub/internal/app"
	"philcali.me/pubsubhubbub/internal/engine"
)

// HandleRequest runs on a schedule and renews every lease ending within the
// configured window.
func HandleRequest(ctx context.Context, event events.CloudWatchEvent) (engine.RenewalReport, error) {
	application, err := app.New(ctx)
	if err != nil {
		return engine.RenewalReport{}, err
	}
	application.Logger.Info("renewal sweep started", "eventId", event.ID, "window", application.Config.RenewWindow)
	return application.Engine.RenewExpiring(ctx, application.Config.RenewWindow)
}

func main() {
	lambda.Start(HandleRequest)
}
