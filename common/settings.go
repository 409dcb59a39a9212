package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3.7-sonnet"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Server holds the settings of the HTTP surface
type Server struct {
	Addr              string   `yaml:"addr"`
	SessionStore      string   `yaml:"session_store"`
	RedisAddr         string   `yaml:"redis_addr"`
	RedisPassword     string   `yaml:"redis_password"`
	RedisDB           int      `yaml:"redis_db"`
	SessionTTLMinutes int      `yaml:"session_ttl_minutes"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
}

type Settings struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	APITimeout   int     `yaml:"api_timeout"` // in seconds
	MaxRetries   int     `yaml:"max_retries"`
	CodeLanguage string  `yaml:"code_language"`
	Language     string  `yaml:"language"`
	Tone         string  `yaml:"tone_instructions"`
	Server       Server  `yaml:"server"`
}

// SettingsFileNames are looked up in the working directory when no explicit path is given
var SettingsFileNames = []string{"copilot.yml", "copilot.yaml"}

func WithDefaultSettings() Settings {
	return Settings{
		Provider:     ProviderOpenAI,
		Temperature:  0.01,
		MaxTokens:    4000,
		APITimeout:   60,
		MaxRetries:   0,
		CodeLanguage: "javascript",
		Language:     "en-US",
		Server: Server{
			Addr:              ":8080",
			SessionStore:      SessionStoreMemory,
			RedisAddr:         "localhost:6379",
			SessionTTLMinutes: 24 * 60,
		},
	}
}

// WithYamlFile reads the settings from path, or from the first of
// SettingsFileNames found in the working directory when path is empty.
// A missing default file is not an error; a missing explicit file is.
func WithYamlFile(path string) (Settings, error) {
	settings := WithDefaultSettings()

	filePath := path
	if filePath == "" {
		for _, name := range SettingsFileNames {
			if _, err := os.Stat(name); err == nil {
				filePath = name
				break
			}
		}
	}

	if filePath == "" {
		logger.Debug("No settings file found in the current directory. Using default settings.")
		return settings.WithEnv(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return settings, fmt.Errorf("failed to read settings file %s: %w", filePath, err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file %s: %w", filePath, err)
	}
	logger.Infof("Using settings from YAML file: %s", filePath)

	return settings.WithEnv(), nil
}

// WithEnv applies environment overrides on top of the settings
func (s Settings) WithEnv() Settings {
	if v := os.Getenv("COPILOT_PROVIDER"); v != "" {
		s.Provider = v
	}
	if v := os.Getenv("COPILOT_MODEL"); v != "" {
		s.Model = v
	}
	if v := os.Getenv("COPILOT_ADDR"); v != "" {
		s.Server.Addr = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		s.Server.RedisAddr = v
		s.Server.SessionStore = SessionStoreRedis
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		s.Server.RedisPassword = v
	}
	if v := os.Getenv("COPILOT_API_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			s.APITimeout = timeout
		} else {
			logger.Warnf("Invalid COPILOT_API_TIMEOUT %q, keeping %d seconds", v, s.APITimeout)
		}
	}
	return s
}

// ModelName returns the configured model, or the provider default when none is set
func (s Settings) ModelName() string {
	if s.Model != "" {
		return s.Model
	}
	switch s.Provider {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	}
	return ""
}

// Validate reports settings that cannot work
func (s Settings) Validate() error {
	switch s.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported provider: %s", s.Provider)
	}
	if s.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive, got %d", s.APITimeout)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", s.MaxRetries)
	}
	switch s.Server.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported session store: %s", s.Server.SessionStore)
	}
	return nil
}

// APIKey returns the credential for the configured provider from the environment.
// LLM_API_KEY wins over the provider specific variable.
func (s Settings) APIKey() string {
	if key := strings.TrimSpace(os.Getenv("LLM_API_KEY")); key != "" {
		return key
	}
	switch s.Provider {
	case ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	}
	return ""
}
