package usecase

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"infinite-dialog/internal/domain"
)

// moodIndex is swapped out in tests for deterministic mood selection.
var moodIndex = func(n int) int {
	return rand.IntN(n)
}

// buildDecisionPrompt wraps the latest-message context in the fixed
// classification template. The output contract is restated twice because
// small models drift on single-mention instructions.
func buildDecisionPrompt(latestContext string) string {
	return strings.Join([]string{
		"You moderate a group chat between a human user and several AI personas.",
		"Below is the most recent message in the conversation.",
		"",
		"Latest message:",
		latestContext,
		"",
		"Task:",
		"Decide whether an AI persona should respond to this message now (RESPOND),",
		"or whether the conversation should pause and wait for the user (WAIT).",
		"",
		"Output Contract:",
		`Return JSON only, with a single key "action" whose value is "RESPOND" or "WAIT".`,
		`Example: {"action":"RESPOND"}`,
	}, "\n")
}

// buildMessageContext renders the latest message for the decision prompt:
// timestamp, sender, optional email, content.
func buildMessageContext(msg domain.ChatMessage) string {
	var sb strings.Builder
	ts := time.UnixMilli(msg.Datetime).UTC().Format(time.RFC3339)
	fmt.Fprintf(&sb, "[%s] %s", ts, msg.Sender)
	if msg.Email != "" {
		fmt.Fprintf(&sb, " <%s>", msg.Email)
	}
	fmt.Fprintf(&sb, ": %s", msg.Message)
	return sb.String()
}

// buildPersonaPrompt combines one randomly selected mood prefix with the
// message being replied to.
func buildPersonaPrompt(p domain.Participant, latestMessage string) string {
	mood := p.Personality.Moods[moodIndex(len(p.Personality.Moods))]
	return strings.Join([]string{
		mood,
		"",
		"You are " + p.Name + ", one persona in an ongoing group chat.",
		"Reply to the following message in your own voice. Keep it conversational.",
		"",
		latestMessage,
	}, "\n")
}
