package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action is the orchestrator decision: should an AI speak now or hold back.
type Action string

const (
	ActionRespond Action = "RESPOND"
	ActionWait    Action = "WAIT"
)

type decisionPayload struct {
	Action string `json:"action"`
}

// DecisionEngine classifies the latest conversation context as RESPOND or
// WAIT by asking a fast classifier model. The model's output is not
// guaranteed to be clean JSON, so parsing is best-effort extraction followed
// by strict validation of the extracted value.
type DecisionEngine struct {
	llm Generator
}

func NewDecisionEngine(llm Generator) (*DecisionEngine, error) {
	if llm == nil {
		return nil, errors.New("usecase: decision generator must not be nil")
	}
	return &DecisionEngine{llm: llm}, nil
}

// Decide submits the decision prompt and parses the classifier's answer.
func (e *DecisionEngine) Decide(ctx context.Context, latestContext string) (Action, error) {
	raw, err := e.llm.Generate(ctx, buildDecisionPrompt(latestContext))
	if err != nil {
		return "", newError(ErrorProvider, "decision_generate", err)
	}
	action, err := parseAction(raw)
	if err != nil {
		return "", newError(ErrorParse, "decision_parse", err)
	}
	return action, nil
}

// parseAction strips markdown fences, extracts the first {...} object found
// anywhere in the text, and validates its action field case-insensitively.
func parseAction(raw string) (Action, error) {
	object, err := extractJSONObject(stripCodeFences(raw))
	if err != nil {
		return "", err
	}

	var payload decisionPayload
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		return "", fmt.Errorf("decode decision object: %w", err)
	}

	switch Action(strings.ToUpper(strings.TrimSpace(payload.Action))) {
	case ActionRespond:
		return ActionRespond, nil
	case ActionWait:
		return ActionWait, nil
	default:
		return "", fmt.Errorf("action %q is not one of RESPOND, WAIT", payload.Action)
	}
}

func stripCodeFences(s string) string {
	var sb strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// extractJSONObject returns the first brace-balanced {...} substring.
func extractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errors.New("no JSON object found in decision response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errors.New("unterminated JSON object in decision response")
}
