package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"infinite-dialog/internal/usecase"
)

// Ticker runs one orchestrator pass.
type Ticker interface {
	Tick(ctx context.Context) usecase.TickResult
}

// OrchestratorHandler adapts the tick state machine to the scheduled Lambda
// trigger. The trigger payload carries no information.
type OrchestratorHandler struct {
	orch Ticker
}

func NewOrchestratorHandler(orch Ticker) (*OrchestratorHandler, error) {
	if orch == nil {
		return nil, errors.New("handler: orchestrator must not be nil")
	}
	return &OrchestratorHandler{orch: orch}, nil
}

// Handle runs one tick and logs its terminal state. It never returns an
// error: a failed tick is self-healing because nothing was committed and the
// next scheduled trigger re-evaluates the same state, so there is no point
// having Lambda retry this invocation.
func (h *OrchestratorHandler) Handle(ctx context.Context, _ json.RawMessage) (usecase.TickResult, error) {
	result := h.orch.Tick(ctx)

	switch result.Outcome {
	case usecase.OutcomeRespond:
		slog.Info("orchestrator tick: responded",
			"speaker", result.Speaker,
			"provider", result.Provider,
			"newMessageDatetime", result.NewMessageDatetime,
			"processedDatetime", result.ProcessedDatetime,
			"nextSpeakerIndex", result.NextSpeakerIndex,
		)
	case usecase.OutcomeWait:
		slog.Info("orchestrator tick: waiting", "processedDatetime", result.ProcessedDatetime)
	case usecase.OutcomeExit:
		slog.Info("orchestrator tick: exit", "reason", result.Reason)
	default:
		slog.Error("orchestrator tick: failed", "reason", result.Reason)
	}

	return result, nil
}
