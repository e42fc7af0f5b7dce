package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/staging"
)

// sessionManager tracks one staging session per open import dialog.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[string]*staging.Session
	logger   *slog.Logger
}

func newSessionManager(logger *slog.Logger) *sessionManager {
	return &sessionManager{
		sessions: make(map[string]*staging.Session),
		logger:   logger,
	}
}

func (m *sessionManager) open() (string, *staging.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	sess := staging.NewSession(m.logger)
	m.sessions[id] = sess
	return id, sess
}

func (m *sessionManager) get(id string) (*staging.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, common.Errorf(common.KindNotFound, "import session %s not found", id)
	}
	return sess, nil
}

func (m *sessionManager) drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	id, sess := s.sessions.open()
	if err := sess.Open(); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{
		"session_id": id,
		"state":      string(sess.State()),
	})
}

// handleExtract runs structured extraction for an uploaded document.
// Zero extracted candidates is not a failure: the response flags the empty
// state and falls back to raw OCR text so the user can hand-copy from it.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req struct {
		DocumentDataURI string `json:"document_data_uri"`
		Filename        string `json:"filename"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := sess.BeginExtraction(); err != nil {
		s.respondError(w, r, err)
		return
	}

	batch, err := s.orchestrator.ExtractRecords(r.Context(), req.DocumentDataURI, req.Filename)
	if err != nil {
		_ = sess.FailExtraction()
		s.respondError(w, r, err)
		return
	}

	if len(batch.Candidates) == 0 {
		// OCR fallback: structured extraction found nothing, but the raw
		// text may still be useful for manual entry.
		if text, ocrErr := s.orchestrator.ExtractText(r.Context(), req.DocumentDataURI, req.Filename); ocrErr == nil {
			batch.RawText = text
		}
	}

	if err := sess.CompleteExtraction(batch); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"state":      string(sess.State()),
		"candidates": batch.Candidates,
		"raw_text":   batch.RawText,
		"empty":      len(batch.Candidates) == 0,
	})
}

func (s *Server) handleAddBlank(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sess.Store().AddBlank()
	s.respondJSON(w, http.StatusOK, map[string]any{"candidates": sess.Store().Candidates()})
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, r, common.NewError(common.KindInvalidInput, "candidate index", err))
		return
	}

	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	// A field violation is not fatal: the edit landed and the candidate
	// stays editable, so the response reports it alongside the state.
	updateErr := sess.Store().UpdateField(index, req.Field, req.Value)
	resp := map[string]any{
		"candidates":   sess.Store().Candidates(),
		"field_errors": sess.Store().FieldErrors(index),
	}
	if updateErr != nil && !common.IsKind(updateErr, common.KindValidation) {
		s.respondError(w, r, updateErr)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveCandidate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, r, common.NewError(common.KindInvalidInput, "candidate index", err))
		return
	}
	if err := sess.Store().Remove(index); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"candidates": sess.Store().Candidates()})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.get(sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req struct {
		TableID string `json:"table_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	records, err := s.committer.Commit(r.Context(), req.TableID, sess)
	if err != nil {
		// ValidationError and PersistenceError both leave the batch staged
		s.respondError(w, r, err)
		return
	}

	s.sessions.drop(sessionID)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"committed": len(records),
		"records":   records,
	})
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sess, err := s.sessions.get(sessionID); err == nil {
		sess.Cancel()
	}
	s.sessions.drop(sessionID)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
