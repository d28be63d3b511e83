package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

type scheduleRequest struct {
	Action string `json:"action"`
}

type scheduleResult struct {
	Status string `json:"status"`
}

// ScheduleToggler enables or disables the orchestrator's trigger schedule.
type ScheduleToggler interface {
	SetEnabled(ctx context.Context, enabled bool) error
}

// ScheduleHandler exposes operator control over the tick schedule.
type ScheduleHandler struct {
	schedule ScheduleToggler
}

func NewScheduleHandler(schedule ScheduleToggler) (*ScheduleHandler, error) {
	if schedule == nil {
		return nil, errors.New("handler: schedule toggler must not be nil")
	}
	return &ScheduleHandler{schedule: schedule}, nil
}

// Handle accepts {"action":"enable"} or {"action":"disable"}.
func (h *ScheduleHandler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	var req scheduleRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		slog.Warn("schedule control: malformed request body", "err", err)
		return jsonResponse(400, errorBody{Error: "malformed request body"}), nil
	}

	var enabled bool
	switch req.Action {
	case "enable":
		enabled = true
	case "disable":
		enabled = false
	default:
		slog.Warn("schedule control: invalid action", "action", req.Action)
		return jsonResponse(400, errorBody{Error: "action must be 'enable' or 'disable'"}), nil
	}

	if err := h.schedule.SetEnabled(ctx, enabled); err != nil {
		slog.Error("schedule control: update failed", "action", req.Action, "err", err)
		return jsonResponse(500, errorBody{Error: "failed to update schedule"}), nil
	}

	slog.Info("schedule control: updated", "action", req.Action)
	return jsonResponse(200, scheduleResult{Status: req.Action + "d"}), nil
}
