package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/export"
	"github.com/mfcosta/listings-tracker/internal/extract"
	"github.com/mfcosta/listings-tracker/internal/merge"
	"github.com/mfcosta/listings-tracker/internal/repository"
)

// Server wires the import core behind a thin JSON surface for the web UI.
type Server struct {
	tables       repository.TableRepository
	shares       repository.ShareRepository
	orchestrator *extract.Orchestrator
	committer    *merge.Committer
	exporter     *export.Service
	sessions     *sessionManager
	logger       *slog.Logger
}

func New(
	tables repository.TableRepository,
	shares repository.ShareRepository,
	orchestrator *extract.Orchestrator,
	committer *merge.Committer,
	exporter *export.Service,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		tables:       tables,
		shares:       shares,
		orchestrator: orchestrator,
		committer:    committer,
		exporter:     exporter,
		sessions:     newSessionManager(logger),
		logger:       logger,
	}
}

// Router builds the chi mux.
func (s *Server) Router() *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Timeout(120 * time.Second))

	mux.Route("/api/tables", func(r chi.Router) {
		r.Post("/", s.handleCreateTable)
		r.Get("/", s.handleListTables)
		r.Get("/{tableID}", s.handleGetTable)
		r.Patch("/{tableID}", s.handleRenameTable)
		r.Delete("/{tableID}", s.handleDeleteTable)
		r.Put("/{tableID}/records/{recordID}", s.handleUpdateRecord)
		r.Delete("/{tableID}/records/{recordID}", s.handleDeleteRecord)
		r.Get("/{tableID}/export", s.handleExportTable)
		r.Post("/{tableID}/share", s.handleCreateShare)
	})

	mux.Route("/api/imports", func(r chi.Router) {
		r.Post("/", s.handleOpenSession)
		r.Post("/{sessionID}/extract", s.handleExtract)
		r.Post("/{sessionID}/candidates", s.handleAddBlank)
		r.Patch("/{sessionID}/candidates/{index}", s.handleUpdateField)
		r.Delete("/{sessionID}/candidates/{index}", s.handleRemoveCandidate)
		r.Post("/{sessionID}/commit", s.handleCommit)
		r.Delete("/{sessionID}", s.handleCancelSession)
	})

	mux.Get("/api/shares/{shareID}", s.handleGetShare)
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Warn("response encode failed", "error", err)
		}
	}
}

// respondError maps the error taxonomy onto HTTP. The body carries the
// kind plus the localized message; raw upstream error text stays in the
// logs.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := common.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case common.KindInvalidInput:
		status = http.StatusBadRequest
	case common.KindValidation, common.KindExtractionEmpty:
		status = http.StatusUnprocessableEntity
	case common.KindNotFound:
		status = http.StatusNotFound
	case common.KindConflict:
		status = http.StatusConflict
	case common.KindServiceError, common.KindMalformedResponse:
		status = http.StatusBadGateway
	case common.KindPersistence:
		status = http.StatusInternalServerError
	}

	s.logger.Warn("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"kind", string(kind),
		"error", err,
	)
	s.respondJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    string(kind),
			"message": common.UserMessageFor(err),
		},
	})
}

func decodeBody(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.NewError(common.KindInvalidInput, "decode request body", err)
	}
	return nil
}
