package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"infinite-dialog/internal/usecase"
)

type chatSendRequest struct {
	UserInput   string `json:"userInput"`
	UserName    string `json:"userName"`
	SenderEmail string `json:"senderEmail"`
}

type chatSendAccepted struct {
	Status   string `json:"status"`
	Datetime int64  `json:"datetime"`
}

type chatSendDenied struct {
	Error       string `json:"error"`
	WaitSeconds int    `json:"waitSeconds"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Sender is the chat-send service contract consumed by the handler.
type Sender interface {
	Send(ctx context.Context, in usecase.SendInput) (usecase.SendOutput, error)
}

// ChatSendHandler accepts inbound user messages.
type ChatSendHandler struct {
	svc Sender
}

func NewChatSendHandler(svc Sender) (*ChatSendHandler, error) {
	if svc == nil {
		return nil, errors.New("handler: send service must not be nil")
	}
	return &ChatSendHandler{svc: svc}, nil
}

// Handle decodes the inbound payload and maps the service outcome to a proxy
// response: 200 accepted, 429 rate-limited, 400 invalid, 500 otherwise.
// Rate-limit denials stay distinguishable from failures.
func (h *ChatSendHandler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	requestID := uuid.NewString()

	var req chatSendRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		slog.Warn("chat send: malformed request body", "requestId", requestID, "err", err)
		return jsonResponse(400, errorBody{Error: "malformed request body"}), nil
	}

	out, err := h.svc.Send(ctx, usecase.SendInput{
		UserInput:   req.UserInput,
		UserName:    req.UserName,
		SenderEmail: req.SenderEmail,
	})
	if err != nil {
		var svcErr *usecase.Error
		if errors.As(err, &svcErr) && svcErr.Code == usecase.ErrorValidation {
			slog.Warn("chat send: rejected", "requestId", requestID, "reason", svcErr.Reason)
			return jsonResponse(400, errorBody{Error: "invalid message"}), nil
		}
		slog.Error("chat send: failed", "requestId", requestID, "err", err)
		return jsonResponse(500, errorBody{Error: "failed to send message"}), nil
	}

	if !out.Accepted {
		slog.Info("chat send: rate limited",
			"requestId", requestID,
			"userName", req.UserName,
			"waitSeconds", out.WaitSeconds,
		)
		return jsonResponse(429, chatSendDenied{
			Error:       out.Notice,
			WaitSeconds: out.WaitSeconds,
		}), nil
	}

	slog.Info("chat send: accepted",
		"requestId", requestID,
		"userName", req.UserName,
		"datetime", out.Datetime,
	)
	return jsonResponse(200, chatSendAccepted{Status: "sent", Datetime: out.Datetime}), nil
}
