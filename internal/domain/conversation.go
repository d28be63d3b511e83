package domain

import "time"

// PartitionID is the single partition key value shared by every record in the
// conversation table.
const PartitionID = "chat"

// MetadataDatetime is the reserved sort key of the singleton metadata record.
// Real messages always carry a positive millisecond timestamp.
const MetadataDatetime = 0

// SenderUser identifies messages posted by the human participant.
const SenderUser = "user"

// Provider selects which backend integration generates a persona's text.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Personality configures how a persona prompts its model. One mood is picked
// at random per turn; Phrase is the human-facing label.
type Personality struct {
	Moods  []string
	Phrase string
}

// Participant is one AI persona in the round-robin rotation.
type Participant struct {
	Name        string
	Provider    Provider
	Personality Personality
}

// ChatMessage is a single persisted conversation turn.
type ChatMessage struct {
	ID          string
	Datetime    int64
	Sender      string
	Message     string
	Email       string
	IsProcessed bool
}

// ChatMetadata is the singleton configuration/state record stored under the
// sentinel sort key. LLMParticipants order defines the round-robin sequence.
type ChatMetadata struct {
	ID               string
	Datetime         int64
	LLMParticipants  []Participant
	NextSpeakerIndex int
}

// nowMillis is swapped out in tests for deterministic timestamps.
var nowMillis = func() int64 {
	return time.Now().UnixMilli()
}

// NewChatMessage builds an unprocessed message stamped with the current time
// and validates it before returning.
func NewChatMessage(sender, content, email string) (ChatMessage, error) {
	msg := ChatMessage{
		ID:          PartitionID,
		Datetime:    nowMillis(),
		Sender:      sender,
		Message:     content,
		Email:       email,
		IsProcessed: false,
	}
	if err := msg.Validate(); err != nil {
		return ChatMessage{}, err
	}
	return msg, nil
}

// NewChatMetadata builds the bootstrap metadata record pointing at the first
// participant and validates it before returning.
func NewChatMetadata(participants []Participant) (ChatMetadata, error) {
	meta := ChatMetadata{
		ID:               PartitionID,
		Datetime:         MetadataDatetime,
		LLMParticipants:  participants,
		NextSpeakerIndex: 0,
	}
	if err := meta.Validate(); err != nil {
		return ChatMetadata{}, err
	}
	return meta, nil
}
