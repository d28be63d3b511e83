package usecase

import (
	"context"
	"errors"
	"strings"

	"infinite-dialog/internal/domain"
)

// MessageWriter is the slice of the store the send path needs.
type MessageWriter interface {
	PutMessage(ctx context.Context, msg domain.ChatMessage) error
}

// SendService handles the inbound chat-send path: rate-limit the sender, then
// persist their message as an unprocessed turn for the orchestrator to pick
// up on its next tick.
type SendService struct {
	limiter *RateLimiter
	store   MessageWriter
}

type SendInput struct {
	UserInput   string
	UserName    string
	SenderEmail string
}

// SendOutput reports either an accepted message (with its timestamp, which
// clients use as a pagination anchor) or a rate-limit denial.
type SendOutput struct {
	Accepted    bool
	Datetime    int64
	WaitSeconds int
	Notice      string
}

func NewSendService(limiter *RateLimiter, store MessageWriter) (*SendService, error) {
	if limiter == nil {
		return nil, errors.New("usecase: rate limiter must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: message store must not be nil")
	}
	return &SendService{limiter: limiter, store: store}, nil
}

// Send validates and persists one user message. A rate-limit denial is a
// normal outcome carried in SendOutput, not an error.
func (s *SendService) Send(ctx context.Context, in SendInput) (SendOutput, error) {
	if strings.TrimSpace(in.UserInput) == "" {
		return SendOutput{}, newError(ErrorValidation, "empty_user_input", nil)
	}
	if strings.TrimSpace(in.SenderEmail) == "" {
		return SendOutput{}, newError(ErrorValidation, "empty_sender_email", nil)
	}

	limit, err := s.limiter.Check(ctx, in.SenderEmail)
	if err != nil {
		return SendOutput{}, err
	}
	if !limit.CanSend {
		return SendOutput{
			Accepted:    false,
			WaitSeconds: limit.WaitSeconds,
			Notice:      limit.Notice,
		}, nil
	}

	msg, err := domain.NewChatMessage(domain.SenderUser, in.UserInput, in.SenderEmail)
	if err != nil {
		return SendOutput{}, newError(ErrorValidation, "invalid_message", err)
	}
	if err := s.store.PutMessage(ctx, msg); err != nil {
		return SendOutput{}, newError(ErrorStore, "message_write", err)
	}

	return SendOutput{Accepted: true, Datetime: msg.Datetime}, nil
}
