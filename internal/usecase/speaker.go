package usecase

import (
	"fmt"

	"infinite-dialog/internal/domain"
)

// NextSpeaker returns the participant whose turn is next. The index is
// checked strictly against the participant list: metadata validation already
// rejects out-of-range pointers, so encountering one here means the stored
// record is corrupt and the tick must fail rather than wrap around it.
func NextSpeaker(meta domain.ChatMetadata) (domain.Participant, error) {
	count := len(meta.LLMParticipants)
	if count == 0 {
		return domain.Participant{}, fmt.Errorf("usecase: NextSpeaker: metadata has no participants")
	}
	if meta.NextSpeakerIndex < 0 || meta.NextSpeakerIndex >= count {
		return domain.Participant{}, fmt.Errorf("usecase: NextSpeaker: index %d out of range [0,%d)", meta.NextSpeakerIndex, count)
	}
	return meta.LLMParticipants[meta.NextSpeakerIndex], nil
}

// IncrementSpeakerIndex advances the round-robin pointer. Pure arithmetic,
// no skipping: after participantCount calls the pointer returns to its start.
func IncrementSpeakerIndex(currentIndex, participantCount int) (int, error) {
	if participantCount <= 0 {
		return 0, fmt.Errorf("usecase: IncrementSpeakerIndex: participant count %d must be positive", participantCount)
	}
	if currentIndex < 0 {
		return 0, fmt.Errorf("usecase: IncrementSpeakerIndex: negative index %d", currentIndex)
	}
	return (currentIndex + 1) % participantCount, nil
}
