package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response  string
	err       error
	gotPrompt string
	calls     int
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.gotPrompt = prompt
	return f.response, f.err
}

func TestNewDecisionEngine_RequiresGenerator(t *testing.T) {
	_, err := NewDecisionEngine(nil)
	require.Error(t, err)
}

func TestDecide_EmbedsContextInPrompt(t *testing.T) {
	llm := &fakeGenerator{response: `{"action":"WAIT"}`}
	engine, err := NewDecisionEngine(llm)
	require.NoError(t, err)

	action, err := engine.Decide(context.Background(), "[2023-11-14T22:13:20Z] user <alice@example.com>: hello?")
	require.NoError(t, err)
	require.Equal(t, ActionWait, action)
	require.Contains(t, llm.gotPrompt, "alice@example.com")
	require.Contains(t, llm.gotPrompt, `"action"`)
}

func TestDecide_GeneratorErrorIsProviderError(t *testing.T) {
	engine, err := NewDecisionEngine(&fakeGenerator{err: errors.New("upstream boom")})
	require.NoError(t, err)

	_, err = engine.Decide(context.Background(), "context")
	requireUsecaseError(t, err, ErrorProvider, "decision_generate")
}

func TestDecide_UnparseableResponseIsParseError(t *testing.T) {
	engine, err := NewDecisionEngine(&fakeGenerator{response: "not json"})
	require.NoError(t, err)

	_, err = engine.Decide(context.Background(), "context")
	requireUsecaseError(t, err, ErrorParse, "decision_parse")
}

func TestParseAction_FencedJSON(t *testing.T) {
	action, err := parseAction("```json\n{\"action\":\"respond\"}\n```")
	require.NoError(t, err)
	require.Equal(t, ActionRespond, action)
}

func TestParseAction_PlainJSON(t *testing.T) {
	action, err := parseAction(`{"action":"WAIT"}`)
	require.NoError(t, err)
	require.Equal(t, ActionWait, action)
}

func TestParseAction_CaseInsensitive(t *testing.T) {
	action, err := parseAction(`{"action":"Respond"}`)
	require.NoError(t, err)
	require.Equal(t, ActionRespond, action)

	action, err = parseAction(`{"action":" wait "}`)
	require.NoError(t, err)
	require.Equal(t, ActionWait, action)
}

func TestParseAction_ObjectBuriedInProse(t *testing.T) {
	raw := "Sure! Based on the conversation I think {\"action\":\"RESPOND\"} is right."
	action, err := parseAction(raw)
	require.NoError(t, err)
	require.Equal(t, ActionRespond, action)
}

func TestParseAction_Failures(t *testing.T) {
	_, err := parseAction("not json")
	require.Error(t, err)

	_, err = parseAction(`{"action":"MAYBE"}`)
	require.Error(t, err)

	_, err = parseAction(`{"action":`)
	require.Error(t, err)

	_, err = parseAction(`{"verdict":"RESPOND"}`)
	require.Error(t, err)
}

func TestExtractJSONObject_SkipsBracesInsideStrings(t *testing.T) {
	object, err := extractJSONObject(`{"action":"WAIT","note":"ignore } this"}`)
	require.NoError(t, err)
	require.Equal(t, `{"action":"WAIT","note":"ignore } this"}`, object)
}
