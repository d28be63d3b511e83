package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultSendCooldown is the per-sender minimum spacing between messages.
const DefaultSendCooldown = 60 * time.Second

// SenderHistory is the slice of the store the rate limiter needs: the
// timestamp of a sender's most recent message, via the email index.
type SenderHistory interface {
	LatestSenderTimestamp(ctx context.Context, email string) (int64, bool, error)
}

// RateLimitResult is the limiter's decision. A denial is a normal outcome,
// not an error: WaitSeconds and Notice are populated for the caller to relay.
type RateLimitResult struct {
	CanSend     bool
	WaitSeconds int
	Notice      string
}

// RateLimiter allows one message per cooldown window per sender. Only the
// single most recent message is considered, so this bounds burst spacing, not
// cumulative rate. The read is not transactional with the subsequent write;
// two rapid sends can both pass, which is an accepted best-effort limit.
type RateLimiter struct {
	history  SenderHistory
	cooldown time.Duration
	now      func() time.Time
}

func NewRateLimiter(history SenderHistory, cooldown time.Duration) (*RateLimiter, error) {
	if history == nil {
		return nil, errors.New("usecase: sender history must not be nil")
	}
	if cooldown <= 0 {
		cooldown = DefaultSendCooldown
	}
	return &RateLimiter{
		history:  history,
		cooldown: cooldown,
		now:      time.Now,
	}, nil
}

// Check looks up the sender's most recent message and applies the cooldown.
// A sender with no prior message is always allowed.
func (r *RateLimiter) Check(ctx context.Context, senderEmail string) (RateLimitResult, error) {
	if strings.TrimSpace(senderEmail) == "" {
		return RateLimitResult{}, newError(ErrorValidation, "empty_sender_email", nil)
	}

	lastMillis, found, err := r.history.LatestSenderTimestamp(ctx, senderEmail)
	if err != nil {
		return RateLimitResult{}, newError(ErrorStore, "sender_history_lookup", err)
	}
	if !found {
		return RateLimitResult{CanSend: true}, nil
	}

	elapsed := float64(r.now().UnixMilli()-lastMillis) / 1000.0
	window := r.cooldown.Seconds()
	if elapsed >= window {
		return RateLimitResult{CanSend: true}, nil
	}

	wait := int(math.Ceil(window - elapsed))
	return RateLimitResult{
		CanSend:     false,
		WaitSeconds: wait,
		Notice:      fmt.Sprintf("Please wait %d seconds before sending another message.", wait),
	}, nil
}
