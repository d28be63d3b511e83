package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"infinite-dialog/handler"
	"infinite-dialog/internal/domain"
	"infinite-dialog/internal/integrations/anthropic"
	"infinite-dialog/internal/integrations/googleai"
	"infinite-dialog/internal/integrations/openai"
	"infinite-dialog/internal/integrations/paramstore"
	"infinite-dialog/internal/repository"
	"infinite-dialog/internal/usecase"
)

type config struct {
	chatTable      string
	emailIndex     string
	paramPrefix    string
	geminiModel    string
	anthropicModel string
	openaiModel    string
	decisionModel  string
}

func loadConfig() config {
	return config{
		chatTable:      mustEnv("CHAT_TABLE"),
		emailIndex:     mustEnv("EMAIL_INDEX"),
		paramPrefix:    strings.TrimRight(mustEnv("PARAM_PREFIX"), "/"),
		geminiModel:    envStr("GEMINI_MODEL", "gemini-2.0-flash"),
		anthropicModel: envStr("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
		openaiModel:    envStr("OPENAI_MODEL", "gpt-4o-mini"),
		decisionModel:  envStr("DECISION_MODEL", "gemini-2.0-flash"),
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

	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.chatTable, cfg.emailIndex)
	if err != nil {
		slog.Error("failed to create store client", "err", err)
		os.Exit(1)
	}

	// The genai SDK takes its key at construction, unlike the lazy HTTP
	// clients, so it is resolved during cold start.
	geminiKey, err := ssmClient.GetParameter(ctx, cfg.paramPrefix+"/gemini-api-key")
	if err != nil {
		slog.Error("failed to load Gemini API key", "err", err)
		os.Exit(1)
	}
	geminiClient, err := googleai.NewClient(ctx, geminiKey, cfg.geminiModel)
	if err != nil {
		slog.Error("failed to create Gemini client", "err", err)
		os.Exit(1)
	}
	anthropicClient, err := anthropic.NewClient(ssmClient, cfg.paramPrefix+"/anthropic-api-key", cfg.anthropicModel)
	if err != nil {
		slog.Error("failed to create Anthropic client", "err", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(ssmClient, cfg.paramPrefix+"/openai-api-key", cfg.openaiModel)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	providers := usecase.NewRegistry()
	for provider, g := range map[domain.Provider]usecase.Generator{
		domain.ProviderGoogle:    geminiClient,
		domain.ProviderAnthropic: anthropicClient,
		domain.ProviderOpenAI:    openaiClient,
	} {
		if err := providers.Register(provider, g); err != nil {
			slog.Error("failed to register provider", "provider", provider, "err", err)
			os.Exit(1)
		}
	}

	// The decision classifier runs on its own fast/cheap model.
	decisionClient, err := googleai.NewClient(ctx, geminiKey, cfg.decisionModel)
	if err != nil {
		slog.Error("failed to create decision client", "err", err)
		os.Exit(1)
	}
	decider, err := usecase.NewDecisionEngine(decisionClient)
	if err != nil {
		slog.Error("failed to create decision engine", "err", err)
		os.Exit(1)
	}

	orchestrator, err := usecase.NewOrchestrator(store, decider, providers)
	if err != nil {
		slog.Error("failed to create orchestrator", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewOrchestratorHandler(orchestrator)
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

func envStr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
