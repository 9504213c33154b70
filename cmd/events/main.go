package main

import (
	"context"

	lambdaEvents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"philcali.me/pubsubhubbub/internal/app"
	"philcali.me/pubsubhubbub/internal/events"
)

func HandleRequest(ctx context.Context, event lambdaEvents.DynamoDBEvent) error {
	application, err := app.New(ctx)
	if err != nil {
		return err
	}
	handlers := []events.EventFilter{
		events.DefaultDeletedHandler(application.Notifications, application.Logger),
	}
	if failures := events.Dispatch(ctx, handlers, event.Records, application.Logger); failures > 0 {
		application.Logger.Warn("stream records failed", "failed", failures, "total", len(event.Records))
	}
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
