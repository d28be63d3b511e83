package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"infinite-dialog/handler"
	"infinite-dialog/internal/repository"
	"infinite-dialog/internal/usecase"
)

type config struct {
	chatTable       string
	emailIndex      string
	cooldownSeconds int
}

func loadConfig() config {
	return config{
		chatTable:       mustEnv("CHAT_TABLE"),
		emailIndex:      mustEnv("EMAIL_INDEX"),
		cooldownSeconds: envInt("SEND_COOLDOWN_SECONDS", 60),
	}
}

func main() {
	ctx := context.Background()

	cfg := loadConfig()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.chatTable, cfg.emailIndex)
	if err != nil {
		slog.Error("failed to create store client", "err", err)
		os.Exit(1)
	}

	limiter, err := usecase.NewRateLimiter(store, time.Duration(cfg.cooldownSeconds)*time.Second)
	if err != nil {
		slog.Error("failed to create rate limiter", "err", err)
		os.Exit(1)
	}

	sendService, err := usecase.NewSendService(limiter, store)
	if err != nil {
		slog.Error("failed to create send service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewChatSendHandler(sendService)
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

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
