package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/copilot"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/server"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/session"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web form and the JSON API",
	Long: `Start an HTTP server with the copilot web form and the JSON API under /api/v1.
The API key comes from the form, the X-API-Key header or the environment.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings
		applyProviderFlags(cmd, &s)
		if cmd.Flags().Changed("addr") {
			s.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if err := s.Validate(); err != nil {
			return err
		}

		if logLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := session.NewStore(ctx, s.Server)
		if err != nil {
			return err
		}
		if closer, ok := store.(interface{ Close() error }); ok {
			defer closer.Close()
		}

		srv, err := server.New(s, copilot.NewRequester(s, newClient), store)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		if s.APIKey() == "" {
			logger.Warn("No API key in the environment, every request has to send one")
		}
		logger.Infow("Starting server", "addr", s.Server.Addr, "provider", s.Provider, "session_store", s.Server.SessionStore)

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Address to listen on (defaults to the settings file or :8080)")
	addProviderFlags(serveCmd)
}
