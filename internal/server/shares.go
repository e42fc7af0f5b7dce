package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mfcosta/listings-tracker/internal/entity"
)

// handleCreateShare snapshots the table's records (optionally narrowed by
// the active tag filter) under a new share id. The snapshot is frozen:
// later edits to the table do not show through the link.
func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	table, err := s.tables.Get(r.Context(), chi.URLParam(r, "tableID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req struct {
		Tags []string `json:"tags"`
	}
	// body is optional; an empty body shares the whole table
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	records := entity.FilterByTags(table.Records, req.Tags)
	shareID, err := s.shares.CreateShare(r.Context(), records)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Info("share.created", "table_id", table.ID, "share_id", shareID, "records", len(records))
	s.respondJSON(w, http.StatusCreated, map[string]any{
		"share_id": shareID,
		"records":  len(records),
	})
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	share, err := s.shares.GetShare(r.Context(), chi.URLParam(r, "shareID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, share)
}
