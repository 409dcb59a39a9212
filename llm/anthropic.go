package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/common"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
)

// AnthropicModel implements the LLM interface using Anthropic's API.
// The structured reply is obtained by forcing a single tool call whose
// input schema is the suggestion schema.
type AnthropicModel struct {
	client anthropic.Client
	config
}

// NewAnthropic creates a new Anthropic client
func NewAnthropic(apiKey string, opts ...Option) (*AnthropicModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Anthropic API key cannot be empty", ErrAuth)
	}

	cfg := newConfig(common.DefaultAnthropicModel, opts)

	retryClient := common.NewRetryableClient(common.RetryConfigWithMax(cfg.maxRetries))

	requestOptions := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(retryClient.StandardClient()),
		// retries are owned by the retryable transport
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(cfg.baseURL))
	}

	model := &AnthropicModel{
		client: anthropic.NewClient(requestOptions...),
		config: cfg,
	}

	logger.Debugf("Anthropic client initialized with model: %s, max tokens: %d, timeout: %d seconds",
		model.modelName, model.maxTokens, model.apiTimeout)

	return model, nil
}

// Prompt sends a request to Anthropic and returns the structured reply
func (a *AnthropicModel) Prompt(ctx context.Context, req Request) Response {
	ctx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()

	logger.Debug("Adding system prompt to Anthropic request")
	logger.Debug(req.SystemPrompt)
	logger.Debug("Adding user prompt to Anthropic request")
	logger.Debug(req.UserPrompt)

	schema := SuggestionSchema()
	tool := anthropic.ToolParam{
		Name:        SuggestionSchemaName,
		Description: anthropic.String("Return the improved code and the explanation of the changes."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: schema.Properties,
			Required:   schema.Required,
		},
	}

	messageParams := anthropic.MessageNewParams{
		Model:       a.model(),
		MaxTokens:   int64(a.maxTokens),
		Temperature: anthropic.Float(float64(a.temperature)),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(req.UserPrompt),
				},
			},
		},
		Tools: []anthropic.ToolUnionParam{
			{OfTool: &tool},
		},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: SuggestionSchemaName},
		},
	}

	logger.Infof("Sending request to Anthropic with model %s, max tokens %d", a.modelName, a.maxTokens)

	message, err := a.client.Messages.New(ctx, messageParams)
	if err != nil {
		err = classify(ctx, anthropicStatusCode(err), fmt.Errorf("failed to create message: %w", err))
		logger.Error(err.Error())
		return Response{Error: err}
	}

	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			if b.Name != SuggestionSchemaName {
				continue
			}
			input, err := json.Marshal(b.Input)
			if err != nil {
				return Response{Error: fmt.Errorf("%w: failed to read tool input: %w", ErrSchemaViolation, err)}
			}
			return Response{Content: string(input)}
		}
	}

	err = fmt.Errorf("%w: Anthropic response contained no %s tool call", ErrSchemaViolation, SuggestionSchemaName)
	logger.Error(err.Error())
	return Response{Error: err}
}

// model converts the configured model name to anthropic.Model
func (a *AnthropicModel) model() anthropic.Model {
	switch a.modelName {
	case "claude-3.7-sonnet":
		return anthropic.ModelClaude3_7SonnetLatest
	case "claude-3.5-sonnet":
		return anthropic.ModelClaude3_5SonnetLatest
	case "claude-3.5-haiku":
		return anthropic.ModelClaude3_5HaikuLatest
	default:
		return anthropic.Model(a.modelName)
	}
}

func anthropicStatusCode(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
