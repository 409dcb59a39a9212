package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/common"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAIModel implements the LLM interface using OpenAI's structured outputs
type OpenAIModel struct {
	client *openai.Client
	config
}

// NewOpenAI creates a new OpenAI client
func NewOpenAI(apiKey string, opts ...Option) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key cannot be empty", ErrAuth)
	}

	cfg := newConfig(common.DefaultOpenAIModel, opts)

	retryClient := common.NewRetryableClient(common.RetryConfigWithMax(cfg.maxRetries))

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.HTTPClient = retryClient.StandardClient()
	if cfg.baseURL != "" {
		clientConfig.BaseURL = cfg.baseURL
	}

	model := &OpenAIModel{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}

	logger.Debugf("OpenAI client initialized with model: %s, max tokens: %d, timeout: %d seconds",
		model.modelName, model.maxTokens, model.apiTimeout)

	return model, nil
}

// Prompt sends a request to OpenAI and returns the structured reply
func (o *OpenAIModel) Prompt(ctx context.Context, req Request) Response {
	ctx, cancel := context.WithTimeout(ctx, o.timeout())
	defer cancel()

	logger.Debug("Adding system prompt to OpenAI request")
	logger.Debug(req.SystemPrompt)
	logger.Debug("Adding user prompt to OpenAI request")
	logger.Debug(req.UserPrompt)

	chatReq := openai.ChatCompletionRequest{
		Model: o.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.UserPrompt,
			},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   SuggestionSchemaName,
				Schema: SuggestionSchema(),
				Strict: true,
			},
		},
	}

	logger.Infof("Sending request to OpenAI with model %s, max tokens %d", o.modelName, o.maxTokens)

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		err = classify(ctx, openAIStatusCode(err), fmt.Errorf("failed to create chat completion: %w", err))
		logger.Error(err.Error())
		return Response{Error: err}
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("%w: OpenAI response contained no choices", ErrSchemaViolation)
		logger.Error(err.Error())
		return Response{Error: err}
	}

	message := resp.Choices[0].Message
	if message.Refusal != "" {
		err := fmt.Errorf("%w: model refused to answer: %s", ErrSchemaViolation, message.Refusal)
		logger.Error(err.Error())
		return Response{Error: err}
	}

	return Response{
		Content: message.Content,
	}
}

func openAIStatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
