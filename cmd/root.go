package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/common"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Command line flags
	logLevel   string
	configPath string

	// settings is loaded before any subcommand runs
	settings common.Settings
)

var rootCmd = &cobra.Command{
	Use:   "code-copilot",
	Short: "Code Copilot - AI suggestions for game code",
	Long: `Code Copilot sends a code snippet and an instruction to an LLM and shows the
suggested code, an explanation of the changes and a unified diff against the original.
It runs once on a local file or serves a small web form and JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger with the specified log level
		logger.Init(logLevel)
		logger.Debugf("Log level set to: %s", logLevel)

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env file: %w", err)
		}

		var err error
		settings, err = common.WithYamlFile(configPath)
		if err != nil {
			return err
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Default behavior when no subcommands are provided
		_ = cmd.Help()
	},
}

// Execute runs the root command and handles errors
func Execute() error {
	defer logger.Sync()
	// Subcommands are added in their respective init() functions
	return rootCmd.Execute()
}

func init() {
	// Add persistent flags that will be available to all subcommands
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Set the logging level (debug, info, warn, error, dpanic, panic, fatal)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the settings file (defaults to copilot.yml or copilot.yaml in the working directory)")
}

// applyProviderFlags overrides the provider settings with the flags the user set
func applyProviderFlags(cmd *cobra.Command, s *common.Settings) {
	if cmd.Flags().Changed("provider") {
		provider, _ := cmd.Flags().GetString("provider")
		if provider != s.Provider && !cmd.Flags().Changed("model") {
			// the configured model belongs to the other provider
			s.Model = ""
		}
		s.Provider = provider
	}
	if cmd.Flags().Changed("model") {
		s.Model, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("api-timeout") {
		s.APITimeout, _ = cmd.Flags().GetInt("api-timeout")
	}
	if cmd.Flags().Changed("max-retries") {
		s.MaxRetries, _ = cmd.Flags().GetInt("max-retries")
	}
}

func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("provider", "p", "", "LLM provider to use: openai or anthropic (defaults to the settings file)")
	cmd.Flags().StringP("model", "m", "", "LLM model to use (defaults to the settings file or the provider default)")
	cmd.Flags().Int("api-timeout", 0, "Timeout of the completion request in seconds")
	cmd.Flags().Int("max-retries", 0, "Retry failed completion requests this many times")
}
