package server

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/copilot"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/diff"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
	"github.com/gin-gonic/gin"
)

const pageTemplate = "index.html"

var templateFuncs = template.FuncMap{
	"diffLines": diffLines,
}

type diffLine struct {
	Class string
	Text  string
}

// pageData is everything the page template renders
type pageData struct {
	SessionID    string
	CodeLanguage string
	Code         string
	WorkingCode  string
	Instruction  string
	APIKey       string
	HasEnvKey    bool
	Round        *copilot.Round
	Integrated   bool
	Validation   string
	Failure      string
	FailureKind  copilot.Kind
}

func (s *Server) newPageData(sess *copilot.Session) pageData {
	return pageData{
		SessionID:    sess.ID,
		CodeLanguage: s.settings.CodeLanguage,
		Code:         sess.WorkingCode,
		WorkingCode:  sess.WorkingCode,
		HasEnvKey:    s.settings.APIKey() != "",
		Round:        sess.Last,
	}
}

func (s *Server) index(c *gin.Context) {
	sess, err := s.loadSession(c)
	if err != nil {
		s.storeFailure(c, err)
		return
	}

	data := s.newPageData(sess)
	if sess.ConsumeIntegrated() {
		data.Integrated = true
		if err := s.store.Save(c.Request.Context(), sess); err != nil {
			s.storeFailure(c, err)
			return
		}
	}

	c.HTML(http.StatusOK, pageTemplate, data)
}

func (s *Server) suggestForm(c *gin.Context) {
	sess, err := s.loadSession(c)
	if err != nil {
		s.storeFailure(c, err)
		return
	}

	code := c.PostForm("code")
	instruction := c.PostForm("instruction")
	apiKey := strings.TrimSpace(c.PostForm("api_key"))

	data := s.newPageData(sess)
	data.Code = code
	data.Instruction = instruction
	data.APIKey = apiKey

	round, err := s.submit(c, sess, s.apiKey(apiKey), code, instruction)
	if err != nil {
		if errors.Is(err, errStore) {
			s.storeFailure(c, err)
			return
		}
		if copilot.IsServiceError(err) {
			data.Failure = err.Error()
			data.FailureKind = copilot.KindOf(err)
		} else {
			data.Validation = err.Error()
		}
		c.HTML(statusFor(err), pageTemplate, data)
		return
	}

	data.Round = round
	data.WorkingCode = sess.WorkingCode
	c.HTML(http.StatusOK, pageTemplate, data)
}

func (s *Server) integrateForm(c *gin.Context) {
	sess, err := s.loadSession(c)
	if err != nil {
		s.storeFailure(c, err)
		return
	}

	if err := s.integrate(c, sess); err != nil {
		if errors.Is(err, errStore) {
			s.storeFailure(c, err)
			return
		}
		data := s.newPageData(sess)
		if errors.Is(err, ErrBusy) {
			data.Failure = err.Error()
		} else {
			data.Validation = err.Error()
		}
		c.HTML(statusFor(err), pageTemplate, data)
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) storeFailure(c *gin.Context, err error) {
	logger.Errorw("Session store failed", "request_id", GetRequestID(c.Request.Context()), "error", err.Error())
	_ = c.Error(err)
	c.String(http.StatusInternalServerError, "session storage is unavailable")
}

func diffLines(report copilot.DiffReport) []diffLine {
	if report == "" {
		return nil
	}

	lines := strings.Split(strings.TrimSuffix(string(report), "\n"), "\n")
	out := make([]diffLine, len(lines))
	for i, lineType := range diff.Classify(lines) {
		out[i] = diffLine{Class: lineClass(lineType), Text: lines[i]}
	}
	return out
}

func lineClass(lineType diff.LineType) string {
	switch lineType {
	case diff.LineTypeFileHeader:
		return "header"
	case diff.LineTypeHunk:
		return "hunk"
	case diff.LineTypeAdd:
		return "add"
	case diff.LineTypeDelete:
		return "del"
	case diff.LineTypeMarker:
		return "marker"
	default:
		return "ctx"
	}
}
