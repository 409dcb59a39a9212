package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/copilot"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/diff"
	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the completion service credential of an API call
const APIKeyHeader = "X-API-Key"

type suggestionRequest struct {
	Code        string `json:"code"`
	Instruction string `json:"instruction"`
}

type diffRequest struct {
	Original string `json:"original"`
	Revised  string `json:"revised"`
}

type diffResponse struct {
	Diff    string `json:"diff"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

type roundResponse struct {
	Original     string `json:"original"`
	Instruction  string `json:"instruction"`
	ImprovedCode string `json:"improved_code"`
	Explanation  string `json:"explanation"`
	diffResponse
}

type sessionResponse struct {
	ID           string         `json:"id"`
	WorkingCode  string         `json:"working_code"`
	CodeLanguage string         `json:"code_language"`
	Integrated   bool           `json:"integrated"`
	Last         *roundResponse `json:"last,omitempty"`
}

type errorResponse struct {
	Error string       `json:"error"`
	Kind  copilot.Kind `json:"kind"`
}

func newDiffResponse(unified string) diffResponse {
	added, removed := diff.Stats(unified)
	return diffResponse{Diff: unified, Added: added, Removed: removed}
}

func newRoundResponse(round *copilot.Round) *roundResponse {
	if round == nil {
		return nil
	}
	return &roundResponse{
		Original:     round.Original,
		Instruction:  round.Instruction,
		ImprovedCode: round.Result.ImprovedCode,
		Explanation:  round.Result.Explanation,
		diffResponse: newDiffResponse(string(round.Diff)),
	}
}

func (s *Server) newSessionResponse(sess *copilot.Session) sessionResponse {
	return sessionResponse{
		ID:           sess.ID,
		WorkingCode:  sess.WorkingCode,
		CodeLanguage: s.settings.CodeLanguage,
		Integrated:   sess.Integrated,
		Last:         newRoundResponse(sess.Last),
	}
}

func (s *Server) apiError(c *gin.Context, err error) {
	if errors.Is(err, errStore) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "session storage is unavailable", Kind: copilot.KindService})
		return
	}
	c.JSON(statusFor(err), errorResponse{Error: err.Error(), Kind: copilot.KindOf(err)})
}

func (s *Server) getSession(c *gin.Context) {
	sess, err := s.loadSession(c)
	if err != nil {
		s.apiError(c, fmt.Errorf("%w: %w", errStore, err))
		return
	}
	c.JSON(http.StatusOK, s.newSessionResponse(sess))
}

func (s *Server) createSuggestion(c *gin.Context) {
	var req suggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Kind: copilot.KindValidation})
		return
	}

	sess, err := s.loadSession(c)
	if err != nil {
		s.apiError(c, fmt.Errorf("%w: %w", errStore, err))
		return
	}

	apiKey := s.apiKey(strings.TrimSpace(c.GetHeader(APIKeyHeader)))
	round, err := s.submit(c, sess, apiKey, req.Code, req.Instruction)
	if err != nil {
		s.apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRoundResponse(round))
}

func (s *Server) integrateSession(c *gin.Context) {
	sess, err := s.loadSession(c)
	if err != nil {
		s.apiError(c, fmt.Errorf("%w: %w", errStore, err))
		return
	}

	if err := s.integrate(c, sess); err != nil {
		s.apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.newSessionResponse(sess))
}

func (s *Server) renderDiff(c *gin.Context) {
	var req diffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Kind: copilot.KindValidation})
		return
	}

	c.JSON(http.StatusOK, newDiffResponse(diff.Unified(req.Original, req.Revised)))
}
