package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/entity"
	"github.com/mfcosta/listings-tracker/internal/merge"
)

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"owner_id"`
		Name    string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" || strings.TrimSpace(req.Name) == "" {
		s.respondError(w, r, common.Errorf(common.KindInvalidInput, "owner_id and name are required"))
		return
	}

	table, err := s.tables.Create(r.Context(), req.OwnerID, req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, table)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		s.respondError(w, r, common.Errorf(common.KindInvalidInput, "owner_id is required"))
		return
	}
	tables, err := s.tables.List(r.Context(), ownerID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	table, err := s.tables.Get(r.Context(), chi.URLParam(r, "tableID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	// tags=a,b narrows the records to those carrying every listed tag
	if raw := r.URL.Query().Get("tags"); raw != "" {
		var active []string
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				active = append(active, t)
			}
		}
		table.Records = entity.FilterByTags(table.Records, active)
	}
	s.respondJSON(w, http.StatusOK, table)
}

func (s *Server) handleRenameTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, r, common.Errorf(common.KindInvalidInput, "name is required"))
		return
	}
	if err := s.tables.Rename(r.Context(), chi.URLParam(r, "tableID"), req.Name); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.tables.Delete(r.Context(), chi.URLParam(r, "tableID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleUpdateRecord replaces every field of one record except its
// identifier, which comes from the URL, not the body. Tags are recomputed
// from the edited fields so the filter index stays in step with them.
func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var record entity.PropertyRecord
	if err := decodeBody(r, &record); err != nil {
		s.respondError(w, r, err)
		return
	}
	record.ID = chi.URLParam(r, "recordID")
	record.Tags = merge.RetagRecord(record)
	if err := s.tables.UpdateRecord(r.Context(), chi.URLParam(r, "tableID"), record); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	err := s.tables.DeleteRecord(r.Context(), chi.URLParam(r, "tableID"), chi.URLParam(r, "recordID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
