package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// OptionType defines the type of option
type OptionType string

// Available option types
const (
	ModelNameOption   OptionType = "model"
	MaxTokensOption   OptionType = "max_tokens"
	APITimeoutOption  OptionType = "api_timeout"
	TemperatureOption OptionType = "temperature"
	MaxRetriesOption  OptionType = "max_retries"
	BaseURLOption     OptionType = "base_url"
)

// Option represents a generic configuration option for any LLM provider
type Option struct {
	Type  OptionType
	Value any
}

// WithModel creates an option to set the model name
func WithModel(model string) Option {
	return Option{
		Type:  ModelNameOption,
		Value: model,
	}
}

// WithMaxTokens creates an option to set the max tokens
func WithMaxTokens(maxTokens int) Option {
	return Option{
		Type:  MaxTokensOption,
		Value: maxTokens,
	}
}

// WithAPITimeout creates an option to set the API timeout in seconds
func WithAPITimeout(timeout int) Option {
	return Option{
		Type:  APITimeoutOption,
		Value: timeout,
	}
}

// WithTemperature creates an option to set the sampling temperature
func WithTemperature(temperature float32) Option {
	return Option{
		Type:  TemperatureOption,
		Value: temperature,
	}
}

// WithMaxRetries creates an option to let the HTTP transport retry failed calls
func WithMaxRetries(retries int) Option {
	return Option{
		Type:  MaxRetriesOption,
		Value: retries,
	}
}

// WithBaseURL creates an option to point the provider at another endpoint
func WithBaseURL(baseURL string) Option {
	return Option{
		Type:  BaseURLOption,
		Value: baseURL,
	}
}

// Request represents the data needed to generate a prompt for the LLM
type Request struct {
	SystemPrompt string
	UserPrompt   string
}

// Response represents the response from the LLM. Content holds the raw
// structured reply; it is empty whenever Error is set.
type Response struct {
	Content string
	Error   error
}

// LLM defines the interface for language model prompting
type LLM interface {
	// Prompt sends a request to the language model and returns its raw structured reply
	Prompt(ctx context.Context, req Request) Response
}

// config holds the options shared by every provider
type config struct {
	modelName   string
	maxTokens   int
	apiTimeout  int // in seconds
	temperature float32
	maxRetries  int
	baseURL     string
}

func newConfig(defaultModel string, opts []Option) config {
	c := config{
		modelName:   defaultModel,
		maxTokens:   4000,
		apiTimeout:  60,
		temperature: 0.01,
	}

	for _, opt := range opts {
		switch opt.Type {
		case ModelNameOption:
			if modelName, ok := opt.Value.(string); ok && modelName != "" {
				c.modelName = modelName
			}
		case MaxTokensOption:
			if maxTokens, ok := opt.Value.(int); ok && maxTokens > 0 {
				c.maxTokens = maxTokens
			}
		case APITimeoutOption:
			if timeout, ok := opt.Value.(int); ok && timeout > 0 {
				c.apiTimeout = timeout
			}
		case TemperatureOption:
			if temperature, ok := opt.Value.(float32); ok {
				c.temperature = temperature
			}
		case MaxRetriesOption:
			if retries, ok := opt.Value.(int); ok && retries >= 0 {
				c.maxRetries = retries
			}
		case BaseURLOption:
			if baseURL, ok := opt.Value.(string); ok {
				c.baseURL = baseURL
			}
		}
	}

	return c
}

func (c config) timeout() time.Duration {
	return time.Duration(c.apiTimeout) * time.Second
}

// NewLLM creates a client for the named provider. A blank API key is an
// ErrAuth so a missing credential never reaches the network.
func NewLLM(providerName, apiKey string, opts ...Option) (LLM, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: API key is not set", ErrAuth)
	}

	var llmClient LLM
	var err error

	switch providerName {
	case ProviderOpenAI:
		llmClient, err = NewOpenAI(apiKey, opts...)
	case ProviderAnthropic:
		llmClient, err = NewAnthropic(apiKey, opts...)
	default:
		err = fmt.Errorf("unsupported provider: %s", providerName)
	}

	if err == nil {
		logger.Debugf("Using LLM provider: %s", providerName)
	}

	return llmClient, err
}
