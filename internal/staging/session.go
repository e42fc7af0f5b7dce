package staging

import (
	"log/slog"
	"sync"

	"github.com/mfcosta/listings-tracker/constants"
	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/entity"
)

// Session is the state machine of one import dialog:
//
//	IDLE → AWAITING_DOCUMENT → EXTRACTING → STAGED → COMMITTED
//
// A failed extraction drops back to IDLE; there is no retry-in-place.
// Cancel is legal from any state (including COMMITTED) and returns to
// IDLE. One session serves one dialog; two concurrent batches against
// the same session are a caller bug.
type Session struct {
	mu     sync.Mutex
	state  constants.SessionState
	store  *Store
	logger *slog.Logger
}

func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		state:  constants.SessionIdle,
		store:  NewStore(),
		logger: logger,
	}
}

// State returns the current session state.
func (s *Session) State() constants.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Store exposes the staging store for field edits while STAGED.
func (s *Session) Store() *Store {
	return s.store
}

// Open moves IDLE → AWAITING_DOCUMENT (dialog opened).
func (s *Session) Open() error {
	return s.transition(constants.SessionIdle, constants.SessionAwaitingDocument)
}

// BeginExtraction moves AWAITING_DOCUMENT → EXTRACTING.
func (s *Session) BeginExtraction() error {
	return s.transition(constants.SessionAwaitingDocument, constants.SessionExtracting)
}

// CompleteExtraction moves EXTRACTING → STAGED and stages the batch.
func (s *Session) CompleteExtraction(batch *entity.ImportBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != constants.SessionExtracting {
		return s.badTransition(constants.SessionStaged)
	}
	s.store.Stage(batch)
	s.logger.Info("session.staged", "candidates", len(batch.Candidates))
	s.state = constants.SessionStaged
	return nil
}

// FailExtraction moves EXTRACTING → IDLE after an orchestrator failure.
// The error is surfaced by the caller; the session just resets.
func (s *Session) FailExtraction() error {
	return s.transition(constants.SessionExtracting, constants.SessionIdle)
}

// MarkCommitted moves STAGED → COMMITTED. A committed session is
// finished; Cancel brings it back to IDLE if it is to be reused. The
// store is cleared by the merge service only after a successful append,
// so a persistence failure keeps the batch.
func (s *Session) MarkCommitted() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != constants.SessionStaged {
		return s.badTransition(constants.SessionCommitted)
	}
	s.state = constants.SessionCommitted
	s.logger.Info("session.committed")
	return nil
}

// Cancel abandons the session from any state and clears the store.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Clear()
	s.state = constants.SessionIdle
}

func (s *Session) transition(from, to constants.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != from {
		return s.badTransition(to)
	}
	s.state = to
	return nil
}

func (s *Session) badTransition(to constants.SessionState) error {
	return common.Errorf(common.KindConflict, "illegal session transition %s -> %s", s.state, to)
}
