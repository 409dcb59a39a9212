package server

import (
	"errors"
	"fmt"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/copilot"
	"github.com/gin-gonic/gin"
)

// errStore marks failures of the session store, which are not user errors
var errStore = errors.New("session store failed")

// submit runs one suggestion round for the session and saves it. The session
// is only saved after a successful round.
func (s *Server) submit(c *gin.Context, sess *copilot.Session, apiKey, code, instruction string) (*copilot.Round, error) {
	if err := copilot.Validate(code, instruction); err != nil {
		return nil, err
	}

	if !s.acquire(sess.ID) {
		return nil, ErrBusy
	}
	defer s.release(sess.ID)

	if err := s.refresh(c, sess); err != nil {
		return nil, err
	}

	round, err := s.requester.Submit(c.Request.Context(), sess, apiKey, code, instruction)
	if err != nil {
		_ = c.Error(err)
		return nil, err
	}

	if err := s.store.Save(c.Request.Context(), sess); err != nil {
		return nil, fmt.Errorf("%w: %w", errStore, err)
	}
	return round, nil
}

// integrate copies the last suggestion into the working code and saves it
func (s *Server) integrate(c *gin.Context, sess *copilot.Session) error {
	if !s.acquire(sess.ID) {
		return ErrBusy
	}
	defer s.release(sess.ID)

	if err := s.refresh(c, sess); err != nil {
		return err
	}

	if err := sess.Integrate(); err != nil {
		return err
	}

	if err := s.store.Save(c.Request.Context(), sess); err != nil {
		return fmt.Errorf("%w: %w", errStore, err)
	}
	return nil
}

// refresh reloads the session once it is held, so a round finished by
// another request since loading is not overwritten.
func (s *Server) refresh(c *gin.Context, sess *copilot.Session) error {
	fresh, err := s.store.Get(c.Request.Context(), sess.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", errStore, err)
	}
	*sess = *fresh
	return nil
}
