package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed entity. Records failing validation are
// rejected before they ever reach the store.
type ValidationError struct {
	Entity string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("domain: invalid %s: %s", e.Entity, e.Reason)
}

func invalid(entity, format string, args ...any) *ValidationError {
	return &ValidationError{Entity: entity, Reason: fmt.Sprintf(format, args...)}
}

// allowedSenders is the closed identity set for message senders: the human
// user plus the persona names configured at bootstrap.
var allowedSenders = map[string]struct{}{
	SenderUser: {},
	"gemini":   {},
	"claude":   {},
	"openai":   {},
}

// allowedProviders mirrors the backend integrations wired in cmd.
var allowedProviders = map[Provider]struct{}{
	ProviderGoogle:    {},
	ProviderAnthropic: {},
	ProviderOpenAI:    {},
}

// Validate checks the message invariants: fixed partition id, positive
// timestamp, known sender, non-empty content. Email may only accompany
// user-sent messages.
func (m ChatMessage) Validate() error {
	if m.ID != PartitionID {
		return invalid("ChatMessage", "id must be %q, got %q", PartitionID, m.ID)
	}
	if m.Datetime <= MetadataDatetime {
		return invalid("ChatMessage", "datetime must be a positive epoch-millisecond value, got %d", m.Datetime)
	}
	if _, ok := allowedSenders[m.Sender]; !ok {
		return invalid("ChatMessage", "sender %q is not an allowed identity", m.Sender)
	}
	if strings.TrimSpace(m.Message) == "" {
		return invalid("ChatMessage", "message content must not be empty")
	}
	if m.Email != "" && m.Sender != SenderUser {
		return invalid("ChatMessage", "email is only valid on %s-sent messages", SenderUser)
	}
	return nil
}

// Validate checks the metadata invariants, including the strict speaker-index
// bound. An out-of-range index is rejected here, never clamped downstream.
func (m ChatMetadata) Validate() error {
	if m.ID != PartitionID {
		return invalid("ChatMetadata", "id must be %q, got %q", PartitionID, m.ID)
	}
	if m.Datetime != MetadataDatetime {
		return invalid("ChatMetadata", "datetime must be the sentinel %d, got %d", MetadataDatetime, m.Datetime)
	}
	if len(m.LLMParticipants) == 0 {
		return invalid("ChatMetadata", "llmParticipants must not be empty")
	}
	seen := make(map[string]struct{}, len(m.LLMParticipants))
	for i, p := range m.LLMParticipants {
		if err := p.Validate(); err != nil {
			return invalid("ChatMetadata", "participant %d: %v", i, err)
		}
		if _, dup := seen[p.Name]; dup {
			return invalid("ChatMetadata", "duplicate participant name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	if m.NextSpeakerIndex < 0 || m.NextSpeakerIndex >= len(m.LLMParticipants) {
		return invalid("ChatMetadata", "nextSpeakerIndex %d out of range [0,%d)", m.NextSpeakerIndex, len(m.LLMParticipants))
	}
	return nil
}

// Validate checks a single persona definition.
func (p Participant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("Participant", "name must not be empty")
	}
	if _, ok := allowedProviders[p.Provider]; !ok {
		return invalid("Participant", "provider %q is not supported", p.Provider)
	}
	if len(p.Personality.Moods) == 0 {
		return invalid("Participant", "personality moods must not be empty")
	}
	for i, mood := range p.Personality.Moods {
		if strings.TrimSpace(mood) == "" {
			return invalid("Participant", "personality mood %d must not be empty", i)
		}
	}
	if strings.TrimSpace(p.Personality.Phrase) == "" {
		return invalid("Participant", "personality phrase must not be empty")
	}
	return nil
}
