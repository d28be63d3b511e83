package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"infinite-dialog/internal/domain"
)

func threeParticipants() []domain.Participant {
	return []domain.Participant{
		{Name: "gemini", Provider: domain.ProviderGoogle, Personality: domain.Personality{Moods: []string{"cheerful"}, Phrase: "The Optimist"}},
		{Name: "claude", Provider: domain.ProviderAnthropic, Personality: domain.Personality{Moods: []string{"thoughtful"}, Phrase: "The Philosopher"}},
		{Name: "openai", Provider: domain.ProviderOpenAI, Personality: domain.Personality{Moods: []string{"playful"}, Phrase: "The Joker"}},
	}
}

func metadataWithIndex(idx int) domain.ChatMetadata {
	return domain.ChatMetadata{
		ID:               domain.PartitionID,
		Datetime:         domain.MetadataDatetime,
		LLMParticipants:  threeParticipants(),
		NextSpeakerIndex: idx,
	}
}

func TestNextSpeaker_InBoundsIndices(t *testing.T) {
	for idx, want := range []string{"gemini", "claude", "openai"} {
		speaker, err := NextSpeaker(metadataWithIndex(idx))
		require.NoError(t, err)
		require.Equal(t, want, speaker.Name)
	}
}

func TestNextSpeaker_OutOfRangeIndexFails(t *testing.T) {
	_, err := NextSpeaker(metadataWithIndex(3))
	require.Error(t, err)

	_, err = NextSpeaker(metadataWithIndex(-1))
	require.Error(t, err)
}

func TestNextSpeaker_NoParticipantsFails(t *testing.T) {
	_, err := NextSpeaker(domain.ChatMetadata{ID: domain.PartitionID})
	require.Error(t, err)
}

func TestIncrementSpeakerIndex_Advances(t *testing.T) {
	for count := 1; count <= 5; count++ {
		for idx := 0; idx < count; idx++ {
			next, err := IncrementSpeakerIndex(idx, count)
			require.NoError(t, err)
			require.Equal(t, (idx+1)%count, next)
		}
	}
}

func TestIncrementSpeakerIndex_CycleClosure(t *testing.T) {
	const count = 4
	for start := 0; start < count; start++ {
		idx := start
		for i := 0; i < count; i++ {
			var err error
			idx, err = IncrementSpeakerIndex(idx, count)
			require.NoError(t, err)
		}
		require.Equal(t, start, idx)
	}
}

func TestIncrementSpeakerIndex_RejectsBadInput(t *testing.T) {
	_, err := IncrementSpeakerIndex(0, 0)
	require.Error(t, err)

	_, err = IncrementSpeakerIndex(0, -2)
	require.Error(t, err)

	_, err = IncrementSpeakerIndex(-1, 3)
	require.Error(t, err)
}
