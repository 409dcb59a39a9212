package copilot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/common"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/diff"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/llm"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/prompt"
)

// ClientFactory builds a completion client for the credential of one request
type ClientFactory func(apiKey string) (llm.LLM, error)

// ProviderClientFactory returns a ClientFactory for the provider and model
// parameters named in settings.
func ProviderClientFactory(settings common.Settings) ClientFactory {
	return func(apiKey string) (llm.LLM, error) {
		return llm.NewLLM(settings.Provider, apiKey,
			llm.WithModel(settings.Model),
			llm.WithMaxTokens(settings.MaxTokens),
			llm.WithAPITimeout(settings.APITimeout),
			llm.WithTemperature(settings.Temperature),
			llm.WithMaxRetries(settings.MaxRetries),
		)
	}
}

// Requester turns a snippet and an instruction into a suggestion
type Requester struct {
	settings  common.Settings
	newClient ClientFactory
}

// NewRequester creates a Requester. A nil factory uses ProviderClientFactory.
func NewRequester(settings common.Settings, newClient ClientFactory) *Requester {
	if newClient == nil {
		newClient = ProviderClientFactory(settings)
	}
	return &Requester{
		settings:  settings,
		newClient: newClient,
	}
}

// Validate rejects blank code or instruction
func Validate(code, instruction string) error {
	var missing []string
	if common.IsBlank(code) {
		missing = append(missing, "code")
	}
	if common.IsBlank(instruction) {
		missing = append(missing, "instruction")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, " and "))
	}
	return nil
}

// Suggest validates the inputs, sends one completion request and decodes the
// structured reply. It has no side effects besides the network call, and
// never retries.
func (r *Requester) Suggest(ctx context.Context, apiKey, code, instruction string) (SuggestionResult, error) {
	if err := Validate(code, instruction); err != nil {
		return SuggestionResult{}, err
	}

	client, err := r.newClient(apiKey)
	if err != nil {
		return SuggestionResult{}, fmt.Errorf("failed to create client for provider: %w", err)
	}

	resp := client.Prompt(ctx, llm.Request{
		SystemPrompt: prompt.GetSystemPrompt(r.settings),
		UserPrompt:   prompt.GetSuggestionPrompt(code, instruction),
	})
	if resp.Error != nil {
		return SuggestionResult{}, fmt.Errorf("error getting response from provider: %w", resp.Error)
	}

	suggestion, err := llm.DecodeSuggestion(resp.Content)
	if err != nil {
		logger.Debugf("Non-conforming reply: %s", resp.Content)
		return SuggestionResult{}, err
	}

	improved := common.StripCodeFence(suggestion.ImprovedCode)
	if improved != suggestion.ImprovedCode {
		logger.Debug("Removed the markdown fence around the improved code")
	}

	return SuggestionResult{
		ImprovedCode: improved,
		Explanation:  suggestion.Explanation,
	}, nil
}

// Submit runs one round for the session. On success the round (result and
// the diff against exactly the submitted code) is recorded and the submitted
// code becomes the working copy. On any error the session is left untouched.
func (r *Requester) Submit(ctx context.Context, s *Session, apiKey, code, instruction string) (*Round, error) {
	log := logger.With("session", s.ID)

	result, err := r.Suggest(ctx, apiKey, code, instruction)
	if err != nil {
		log.Warnw("Suggestion failed", "kind", string(KindOf(err)), "error", err.Error())
		return nil, err
	}

	unified := diff.Unified(code, result.ImprovedCode)
	s.apply(Round{
		Original:    code,
		Instruction: instruction,
		Result:      result,
		Diff:        DiffReport(unified),
		CreatedAt:   time.Now().UTC(),
	})

	added, removed := diff.Stats(unified)
	log.Infow("Suggestion received", "added", added, "removed", removed)

	return s.Last, nil
}
