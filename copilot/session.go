package copilot

import "time"

// DefaultWorkingCode seeds the working copy of a new session
const DefaultWorkingCode = `// Example: A simple game loop
function gameLoop() {
    // Game logic here

    // Continue the loop
    requestAnimationFrame(gameLoop);
}

// Start the game loop
gameLoop();`

// SuggestionResult is one reply of the completion service. It is replaced
// wholesale by the next successful request.
type SuggestionResult struct {
	ImprovedCode string `json:"improved_code"`
	Explanation  string `json:"explanation"`
}

// DiffReport is the unified diff of a round, "" when nothing changed
type DiffReport string

// Round ties a result to the exact code it was computed from, so the diff
// is never paired with a stale result.
type Round struct {
	Original    string           `json:"original"`
	Instruction string           `json:"instruction"`
	Result      SuggestionResult `json:"result"`
	Diff        DiffReport       `json:"diff"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Session is the per-user state of the tool. Handlers receive it explicitly;
// nothing about it lives in package state.
type Session struct {
	ID          string    `json:"id"`
	WorkingCode string    `json:"working_code"`
	Last        *Round    `json:"last,omitempty"`
	Integrated  bool      `json:"integrated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSession creates a session whose working copy is initialCode, or the
// example game loop when initialCode is empty.
func NewSession(id, initialCode string) *Session {
	if initialCode == "" {
		initialCode = DefaultWorkingCode
	}
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		WorkingCode: initialCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Integrate replaces the working code with the last suggestion and raises
// the integrated flag for the next render.
func (s *Session) Integrate() error {
	if s.Last == nil {
		return ErrNothingToIntegrate
	}
	s.WorkingCode = s.Last.Result.ImprovedCode
	s.Integrated = true
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ConsumeIntegrated returns the integrated flag and clears it, so the
// confirmation is shown for exactly one render.
func (s *Session) ConsumeIntegrated() bool {
	integrated := s.Integrated
	s.Integrated = false
	return integrated
}

// apply records a successful round. All fields change together.
func (s *Session) apply(round Round) {
	s.Last = &round
	s.WorkingCode = round.Original
	s.UpdatedAt = round.CreatedAt
}
