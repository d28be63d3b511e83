package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsscheduler "github.com/aws/aws-sdk-go-v2/service/scheduler"

	"infinite-dialog/handler"
	"infinite-dialog/internal/integrations/schedulecontrol"
)

func main() {
	ctx := context.Background()

	scheduleARN := mustEnv("SCHEDULE_ARN")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	scheduleClient, err := schedulecontrol.New(awsscheduler.NewFromConfig(awsCfg), scheduleARN)
	if err != nil {
		slog.Error("failed to create schedule client", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewScheduleHandler(scheduleClient)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}
