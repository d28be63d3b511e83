package repository

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"infinite-dialog/internal/domain"
)

// messageItem converts a ChatMessage to its attribute map. Validation runs
// first so an invalid entity never reaches the wire.
func messageItem(msg domain.ChatMessage) (map[string]types.AttributeValue, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	item := map[string]types.AttributeValue{
		"id":          &types.AttributeValueMemberS{Value: msg.ID},
		"datetime":    &types.AttributeValueMemberN{Value: strconv.FormatInt(msg.Datetime, 10)},
		"sender":      &types.AttributeValueMemberS{Value: msg.Sender},
		"message":     &types.AttributeValueMemberS{Value: msg.Message},
		"isProcessed": &types.AttributeValueMemberBOOL{Value: msg.IsProcessed},
	}
	if msg.Email != "" {
		item["email"] = &types.AttributeValueMemberS{Value: msg.Email}
	}
	return item, nil
}

// itemToMessage converts an attribute map back to a ChatMessage and validates
// the result, so a corrupted row surfaces as an error rather than a
// structurally-plausible entity.
func itemToMessage(item map[string]types.AttributeValue) (domain.ChatMessage, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return domain.ChatMessage{}, err
	}
	datetime, err := int64Attr(item, "datetime")
	if err != nil {
		return domain.ChatMessage{}, err
	}
	sender, err := strAttr(item, "sender")
	if err != nil {
		return domain.ChatMessage{}, err
	}
	message, err := strAttr(item, "message")
	if err != nil {
		return domain.ChatMessage{}, err
	}
	processed, err := boolAttr(item, "isProcessed")
	if err != nil {
		return domain.ChatMessage{}, err
	}
	email, err := optionalStrAttr(item, "email")
	if err != nil {
		return domain.ChatMessage{}, err
	}

	msg := domain.ChatMessage{
		ID:          id,
		Datetime:    datetime,
		Sender:      sender,
		Message:     message,
		Email:       email,
		IsProcessed: processed,
	}
	if err := msg.Validate(); err != nil {
		return domain.ChatMessage{}, err
	}
	return msg, nil
}

// metadataItem converts ChatMetadata to its attribute map, participants as a
// list of nested maps.
func metadataItem(meta domain.ChatMetadata) (map[string]types.AttributeValue, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	participants := make([]types.AttributeValue, 0, len(meta.LLMParticipants))
	for _, p := range meta.LLMParticipants {
		moods := make([]types.AttributeValue, 0, len(p.Personality.Moods))
		for _, mood := range p.Personality.Moods {
			moods = append(moods, &types.AttributeValueMemberS{Value: mood})
		}
		participants = append(participants, &types.AttributeValueMemberM{
			Value: map[string]types.AttributeValue{
				"name":     &types.AttributeValueMemberS{Value: p.Name},
				"provider": &types.AttributeValueMemberS{Value: string(p.Provider)},
				"personality": &types.AttributeValueMemberM{
					Value: map[string]types.AttributeValue{
						"moods":  &types.AttributeValueMemberL{Value: moods},
						"phrase": &types.AttributeValueMemberS{Value: p.Personality.Phrase},
					},
				},
			},
		})
	}

	return map[string]types.AttributeValue{
		"id":               &types.AttributeValueMemberS{Value: meta.ID},
		"datetime":         &types.AttributeValueMemberN{Value: strconv.FormatInt(meta.Datetime, 10)},
		"llmParticipants":  &types.AttributeValueMemberL{Value: participants},
		"nextSpeakerIndex": &types.AttributeValueMemberN{Value: strconv.Itoa(meta.NextSpeakerIndex)},
	}, nil
}

// itemToMetadata converts an attribute map back to ChatMetadata and validates
// the result.
func itemToMetadata(item map[string]types.AttributeValue) (domain.ChatMetadata, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return domain.ChatMetadata{}, err
	}
	datetime, err := int64Attr(item, "datetime")
	if err != nil {
		return domain.ChatMetadata{}, err
	}
	index, err := intAttr(item, "nextSpeakerIndex")
	if err != nil {
		return domain.ChatMetadata{}, err
	}
	rawList, ok := item["llmParticipants"]
	if !ok {
		return domain.ChatMetadata{}, fmt.Errorf("repository: missing attribute %q", "llmParticipants")
	}
	list, ok := rawList.(*types.AttributeValueMemberL)
	if !ok {
		return domain.ChatMetadata{}, fmt.Errorf("repository: attribute %q is not a list", "llmParticipants")
	}

	participants := make([]domain.Participant, 0, len(list.Value))
	for i, raw := range list.Value {
		entry, ok := raw.(*types.AttributeValueMemberM)
		if !ok {
			return domain.ChatMetadata{}, fmt.Errorf("repository: participant %d is not a map", i)
		}
		p, err := itemToParticipant(entry.Value)
		if err != nil {
			return domain.ChatMetadata{}, fmt.Errorf("repository: participant %d: %w", i, err)
		}
		participants = append(participants, p)
	}

	meta := domain.ChatMetadata{
		ID:               id,
		Datetime:         datetime,
		LLMParticipants:  participants,
		NextSpeakerIndex: index,
	}
	if err := meta.Validate(); err != nil {
		return domain.ChatMetadata{}, err
	}
	return meta, nil
}

func itemToParticipant(item map[string]types.AttributeValue) (domain.Participant, error) {
	name, err := strAttr(item, "name")
	if err != nil {
		return domain.Participant{}, err
	}
	provider, err := strAttr(item, "provider")
	if err != nil {
		return domain.Participant{}, err
	}
	rawPersonality, ok := item["personality"]
	if !ok {
		return domain.Participant{}, fmt.Errorf("repository: missing attribute %q", "personality")
	}
	personality, ok := rawPersonality.(*types.AttributeValueMemberM)
	if !ok {
		return domain.Participant{}, fmt.Errorf("repository: attribute %q is not a map", "personality")
	}
	phrase, err := strAttr(personality.Value, "phrase")
	if err != nil {
		return domain.Participant{}, err
	}
	rawMoods, ok := personality.Value["moods"]
	if !ok {
		return domain.Participant{}, fmt.Errorf("repository: missing attribute %q", "moods")
	}
	moodList, ok := rawMoods.(*types.AttributeValueMemberL)
	if !ok {
		return domain.Participant{}, fmt.Errorf("repository: attribute %q is not a list", "moods")
	}
	moods := make([]string, 0, len(moodList.Value))
	for i, raw := range moodList.Value {
		mood, ok := raw.(*types.AttributeValueMemberS)
		if !ok {
			return domain.Participant{}, fmt.Errorf("repository: mood %d is not a string", i)
		}
		moods = append(moods, mood.Value)
	}

	return domain.Participant{
		Name:     name,
		Provider: domain.Provider(provider),
		Personality: domain.Personality{
			Moods:  moods,
			Phrase: phrase,
		},
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func optionalStrAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func boolAttr(item map[string]types.AttributeValue, key string) (bool, error) {
	v, ok := item[key]
	if !ok {
		return false, fmt.Errorf("repository: missing attribute %q", key)
	}
	b, ok := v.(*types.AttributeValueMemberBOOL)
	if !ok {
		return false, fmt.Errorf("repository: attribute %q is not a boolean", key)
	}
	return b.Value, nil
}

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, err := int64Attr(item, key)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
