package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"infinite-dialog/internal/domain"
	"infinite-dialog/internal/repository"
)

// Exit reasons for ticks that end without touching state.
const (
	ExitNoMetadata       = "Metadata not found"
	ExitNoItems          = "No messages exist"
	ExitNoMessages       = "No messages to process"
	ExitAlreadyProcessed = "Message already processed"
)

// Outcome is the terminal state of one orchestrator tick.
type Outcome string

const (
	OutcomeExit    Outcome = "EXIT"
	OutcomeWait    Outcome = "WAIT"
	OutcomeRespond Outcome = "RESPOND"
	OutcomeError   Outcome = "ERROR"
)

// TickResult describes how a tick terminated. One invocation advances the
// conversation by at most one message.
type TickResult struct {
	Outcome            Outcome
	Reason             string
	Speaker            string
	Provider           domain.Provider
	NewMessageDatetime int64
	ProcessedDatetime  int64
	NextSpeakerIndex   int
}

// TickStore is the slice of the store the orchestrator needs.
type TickStore interface {
	GetMetadata(ctx context.Context) (domain.ChatMetadata, bool, error)
	GetLatestItem(ctx context.Context) (repository.LatestItem, bool, error)
	MarkProcessed(ctx context.Context, datetime int64) error
	CommitTurn(ctx context.Context, newMsg domain.ChatMessage, processedDatetime int64, nextSpeakerIndex int) error
}

// Decider classifies the latest conversation context.
type Decider interface {
	Decide(ctx context.Context, latestContext string) (Action, error)
}

// Orchestrator runs the turn-taking state machine. It is invoked on a fixed
// schedule with no payload; all inputs come from stored state, and the only
// mutations are the conditional mark-processed and the transactional turn
// commit, so a failed tick leaves state exactly as the next tick expects.
type Orchestrator struct {
	store     TickStore
	decider   Decider
	providers *Registry
}

func NewOrchestrator(store TickStore, decider Decider, providers *Registry) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("usecase: tick store must not be nil")
	}
	if decider == nil {
		return nil, errors.New("usecase: decider must not be nil")
	}
	if providers == nil {
		return nil, errors.New("usecase: provider registry must not be nil")
	}
	return &Orchestrator{store: store, decider: decider, providers: providers}, nil
}

// Tick runs one pass of the state machine. Every failure is folded into an
// ERROR result here rather than propagated, so the Lambda invocation finishes
// cleanly and the next scheduled trigger re-evaluates unchanged state.
func (o *Orchestrator) Tick(ctx context.Context) TickResult {
	result, err := o.run(ctx)
	if err != nil {
		return TickResult{Outcome: OutcomeError, Reason: err.Error()}
	}
	return result
}

func (o *Orchestrator) run(ctx context.Context) (TickResult, error) {
	var (
		meta      domain.ChatMetadata
		metaFound bool
		latest    repository.LatestItem
		itemFound bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta, metaFound, err = o.store.GetMetadata(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		latest, itemFound, err = o.store.GetLatestItem(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return TickResult{}, newError(ErrorStore, "tick_fetch", err)
	}

	if !metaFound {
		return TickResult{Outcome: OutcomeExit, Reason: ExitNoMetadata}, nil
	}
	if !itemFound {
		return TickResult{Outcome: OutcomeExit, Reason: ExitNoItems}, nil
	}
	if latest.IsMetadataSentinel() {
		return TickResult{Outcome: OutcomeExit, Reason: ExitNoMessages}, nil
	}
	if latest.Message.IsProcessed {
		return TickResult{Outcome: OutcomeExit, Reason: ExitAlreadyProcessed}, nil
	}

	action, err := o.decider.Decide(ctx, buildMessageContext(latest.Message))
	if err != nil {
		return TickResult{}, err
	}

	switch action {
	case ActionWait:
		return o.consumeWithoutReply(ctx, latest)
	case ActionRespond:
		return o.respond(ctx, meta, latest)
	default:
		// Unreachable given the decision engine's validation.
		return TickResult{}, fmt.Errorf("usecase: unexpected decision %q", action)
	}
}

// consumeWithoutReply marks the triggering message processed so it is not
// reconsidered on the next tick, without generating a reply.
func (o *Orchestrator) consumeWithoutReply(ctx context.Context, latest repository.LatestItem) (TickResult, error) {
	if err := o.store.MarkProcessed(ctx, latest.Datetime); err != nil {
		return TickResult{}, newError(ErrorStore, "mark_processed", err)
	}
	return TickResult{
		Outcome:           OutcomeWait,
		ProcessedDatetime: latest.Datetime,
	}, nil
}

// respond generates the current speaker's reply and commits the full turn
// transition atomically.
func (o *Orchestrator) respond(ctx context.Context, meta domain.ChatMetadata, latest repository.LatestItem) (TickResult, error) {
	speaker, err := NextSpeaker(meta)
	if err != nil {
		return TickResult{}, newError(ErrorValidation, "speaker_resolution", err)
	}
	generator, err := o.providers.Resolve(speaker.Provider)
	if err != nil {
		return TickResult{}, newError(ErrorProvider, "provider_resolution", err)
	}

	text, err := generator.Generate(ctx, buildPersonaPrompt(speaker, latest.Message.Message))
	if err != nil {
		return TickResult{}, newError(ErrorProvider, "persona_generate", err)
	}
	if strings.TrimSpace(text) == "" {
		return TickResult{}, newError(ErrorProvider, "persona_empty_response", nil)
	}

	reply, err := domain.NewChatMessage(speaker.Name, text, "")
	if err != nil {
		return TickResult{}, newError(ErrorValidation, "invalid_reply", err)
	}
	nextIndex, err := IncrementSpeakerIndex(meta.NextSpeakerIndex, len(meta.LLMParticipants))
	if err != nil {
		return TickResult{}, newError(ErrorValidation, "speaker_advance", err)
	}

	if err := o.store.CommitTurn(ctx, reply, latest.Datetime, nextIndex); err != nil {
		return TickResult{}, newError(ErrorStore, "turn_commit", err)
	}

	return TickResult{
		Outcome:            OutcomeRespond,
		Speaker:            speaker.Name,
		Provider:           speaker.Provider,
		NewMessageDatetime: reply.Datetime,
		ProcessedDatetime:  latest.Datetime,
		NextSpeakerIndex:   nextIndex,
	}, nil
}
