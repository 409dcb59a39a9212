package copilot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/common"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/diff"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakeLLM struct {
	content  string
	err      error
	requests []llm.Request
}

func (f *fakeLLM) Prompt(_ context.Context, req llm.Request) llm.Response {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Response{Error: f.err}
	}
	return llm.Response{Content: f.content}
}

func newTestRequester(client *fakeLLM) (*Requester, *[]string) {
	var keys []string
	factory := func(apiKey string) (llm.LLM, error) {
		keys = append(keys, apiKey)
		if apiKey == "" {
			return nil, fmt.Errorf("%w: API key is not set", llm.ErrAuth)
		}
		return client, nil
	}
	return NewRequester(common.WithDefaultSettings(), factory), &keys
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		instruction string
		wantErr     string
	}{
		{name: "valid", code: "x = 1", instruction: "rename x"},
		{name: "blank code", code: "  \n\t", instruction: "rename x", wantErr: "code required"},
		{name: "blank instruction", code: "x = 1", instruction: "", wantErr: "instruction required"},
		{name: "both blank", code: "", instruction: " ", wantErr: "code and instruction required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.code, tt.instruction)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSuggestValidationNeverCallsClient(t *testing.T) {
	client := &fakeLLM{content: `{"improved_code":"x","explanation":"y"}`}
	requester, keys := newTestRequester(client)

	_, err := requester.Suggest(context.Background(), "sk-test", "", "make it faster")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, *keys)
	assert.Empty(t, client.requests)
}

func TestSuggestSendsPrompts(t *testing.T) {
	client := &fakeLLM{content: `{"improved_code":"print(2)","explanation":"Changed the constant."}`}
	requester, keys := newTestRequester(client)

	result, err := requester.Suggest(context.Background(), "sk-test", "print(1)", "print 2 instead")
	require.NoError(t, err)

	assert.Equal(t, SuggestionResult{ImprovedCode: "print(2)", Explanation: "Changed the constant."}, result)
	assert.Equal(t, []string{"sk-test"}, *keys)
	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].UserPrompt, "print(1)")
	assert.Contains(t, client.requests[0].UserPrompt, "print 2 instead")
	assert.NotEmpty(t, client.requests[0].SystemPrompt)
}

func TestSuggestErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		content string
		err     error
		want    Kind
	}{
		{name: "missing key", apiKey: "", want: KindAuth},
		{name: "rejected key", apiKey: "sk-bad", err: fmt.Errorf("%w: 401", llm.ErrAuth), want: KindAuth},
		{name: "timeout", apiKey: "sk-test", err: fmt.Errorf("%w: deadline", llm.ErrTimeout), want: KindTimeout},
		{name: "service", apiKey: "sk-test", err: fmt.Errorf("%w: 500", llm.ErrService), want: KindService},
		{name: "not json", apiKey: "sk-test", content: "Sure! Here is the code", want: KindSchema},
		{name: "missing field", apiKey: "sk-test", content: `{"improved_code":"x"}`, want: KindSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requester, _ := newTestRequester(&fakeLLM{content: tt.content, err: tt.err})

			result, err := requester.Suggest(context.Background(), tt.apiKey, "x = 1", "improve")

			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
			assert.True(t, IsServiceError(err))
			assert.Equal(t, SuggestionResult{}, result)
		})
	}
}

func TestSubmitRecordsRound(t *testing.T) {
	client := &fakeLLM{content: `{"improved_code":"print(2)","explanation":"Changed the constant."}`}
	requester, _ := newTestRequester(client)
	session := NewSession("s1", "")

	round, err := requester.Submit(context.Background(), session, "sk-test", "print(1)", "print 2 instead")
	require.NoError(t, err)

	assert.Equal(t, "print(1)", session.WorkingCode)
	require.NotNil(t, session.Last)
	assert.Equal(t, round, session.Last)
	assert.Equal(t, "print(1)", round.Original)
	assert.Equal(t, "print 2 instead", round.Instruction)
	assert.Equal(t, "print(2)", round.Result.ImprovedCode)
	assert.Equal(t, DiffReport(diff.Unified("print(1)", "print(2)")), round.Diff)
	assert.Contains(t, string(round.Diff), "-print(1)")
	assert.Contains(t, string(round.Diff), "+print(2)")
}

func TestSubmitFailureLeavesSessionUnchanged(t *testing.T) {
	client := &fakeLLM{content: `{"improved_code":"print(2)","explanation":"first"}`}
	requester, _ := newTestRequester(client)
	session := NewSession("s1", "")

	_, err := requester.Submit(context.Background(), session, "sk-test", "print(1)", "print 2")
	require.NoError(t, err)
	before := *session
	beforeRound := *session.Last

	client.err = fmt.Errorf("%w: 401", llm.ErrAuth)
	_, err = requester.Submit(context.Background(), session, "sk-bad", "print(3)", "print 4")

	assert.ErrorIs(t, err, llm.ErrAuth)
	assert.Equal(t, before.WorkingCode, session.WorkingCode)
	assert.Equal(t, beforeRound, *session.Last)
	assert.Equal(t, before.UpdatedAt, session.UpdatedAt)
}

func TestSubmitIdenticalReplyHasEmptyDiff(t *testing.T) {
	client := &fakeLLM{content: `{"improved_code":"x = 1\n","explanation":"Already fine."}`}
	requester, _ := newTestRequester(client)
	session := NewSession("s1", "")

	round, err := requester.Submit(context.Background(), session, "sk-test", "x = 1\n", "improve")
	require.NoError(t, err)
	assert.Empty(t, round.Diff)
}

func TestSubmitIsDeterministicForSameReply(t *testing.T) {
	client := &fakeLLM{content: `{"improved_code":"local y = 2\n","explanation":"Renamed."}`}
	requester, _ := newTestRequester(client)

	first, err := requester.Submit(context.Background(), NewSession("a", ""), "sk-test", "local x = 2\n", "rename")
	require.NoError(t, err)
	second, err := requester.Submit(context.Background(), NewSession("b", ""), "sk-test", "local x = 2\n", "rename")
	require.NoError(t, err)

	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, first.Diff, second.Diff)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindValidation, KindOf(ErrNothingToIntegrate))
	assert.Equal(t, KindService, KindOf(errors.New("boom")))
	assert.False(t, IsServiceError(nil))
	assert.False(t, IsServiceError(fmt.Errorf("%w: code required", ErrValidation)))
}

func TestSuggestStripsMarkdownFence(t *testing.T) {
	client := &fakeLLM{content: "{\"improved_code\":\"```lua\\nprint(2)\\n```\",\"explanation\":\"Changed.\"}"}
	requester, _ := newTestRequester(client)

	result, err := requester.Suggest(context.Background(), "sk-test", "print(1)", "print 2")

	require.NoError(t, err)
	assert.Equal(t, "print(2)", result.ImprovedCode)
}

func TestSuggestAnthropicFromSettingsFileUsesAnthropicModel(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_01","type":"message","role":"assistant","model":"claude-3-7-sonnet-latest",
			"content":[{"type":"tool_use","id":"toolu_01","name":"output_generated",
			"input":{"improved_code":"print(2)","explanation":"Bumped."}}],
			"stop_reason":"tool_use","usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	t.Cleanup(srv.Close)

	for _, key := range []string{"COPILOT_PROVIDER", "COPILOT_MODEL", "COPILOT_API_TIMEOUT"} {
		t.Setenv(key, "")
	}
	t.Setenv("ANTHROPIC_BASE_URL", srv.URL+"/")

	path := filepath.Join(t.TempDir(), "copilot.yml")
	require.NoError(t, os.WriteFile(path, []byte("provider: anthropic\n"), 0644))
	settings, err := common.WithYamlFile(path)
	require.NoError(t, err)

	result, err := NewRequester(settings, nil).Suggest(context.Background(), "sk-ant-test", "print(1)", "print 2")

	require.NoError(t, err)
	assert.Equal(t, "print(2)", result.ImprovedCode)
	assert.Equal(t, "claude-3-7-sonnet-latest", gjson.GetBytes(body, "model").String())
}
