package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/common"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/copilot"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the session id
const SessionCookieName = "copilot_session"

const shutdownTimeout = 10 * time.Second

//go:embed templates/*.html
var templatesFS embed.FS

// ErrBusy is returned when a session already has a request in flight
var ErrBusy = errors.New("a suggestion is already in progress for this session")

// Server serves the copilot form and its JSON API
type Server struct {
	settings  common.Settings
	requester *copilot.Requester
	store     session.Store
	engine    *gin.Engine

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates a Server and registers its routes
func New(settings common.Settings, requester *copilot.Requester, store session.Store) (*Server, error) {
	page, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		settings:  settings,
		requester: requester,
		store:     store,
		inflight:  make(map[string]struct{}),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestIDMiddleware(), RequestLogger())
	if config, ok := corsConfig(settings.Server.AllowedOrigins); ok {
		engine.Use(cors.New(config))
	}
	engine.SetHTMLTemplate(page)

	engine.GET("/healthz", s.healthz)
	engine.GET("/", s.index)
	engine.POST("/suggest", s.suggestForm)
	engine.POST("/integrate", s.integrateForm)

	api := engine.Group("/api/v1")
	api.GET("/session", s.getSession)
	api.POST("/suggestions", s.createSuggestion)
	api.POST("/session/integrate", s.integrateSession)
	api.POST("/diff", s.renderDiff)

	s.engine = engine
	return s, nil
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.settings.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}

	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{"Content-Type", "X-API-Key", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return config, true
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// loadSession returns the session of the cookie, creating a new one when
// the cookie is missing or the session has expired.
func (s *Server) loadSession(c *gin.Context) (*copilot.Session, error) {
	ctx := c.Request.Context()

	if id, err := c.Cookie(SessionCookieName); err == nil && id != "" {
		sess, err := s.store.Get(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return nil, err
		}
		logger.Debugw("Session expired, starting a new one", "session", id)
	}

	sess := copilot.NewSession(uuid.NewString(), copilot.DefaultWorkingCode)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, sess.ID, 0, "/", "", false, true)
	logger.Infow("Session created", "session", sess.ID)
	return sess, nil
}

// acquire marks the session busy. It returns false when it already is.
func (s *Server) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Server) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

// apiKey returns the credential of the request, falling back to the environment
func (s *Server) apiKey(fromRequest string) string {
	if fromRequest != "" {
		return fromRequest
	}
	return s.settings.APIKey()
}

// statusFor maps an error to the HTTP status reported to the user
func statusFor(err error) int {
	if errors.Is(err, ErrBusy) {
		return http.StatusConflict
	}

	switch copilot.KindOf(err) {
	case copilot.KindNone:
		return http.StatusOK
	case copilot.KindValidation:
		return http.StatusUnprocessableEntity
	case copilot.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
