package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mfcosta/listings-tracker/internal/common"
)

// handleExportTable streams the table in the requested format.
// ?format=xlsx|csv|word|json, defaulting to xlsx.
func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	table, err := s.tables.Get(r.Context(), chi.URLParam(r, "tableID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "xlsx"
	}
	filename := sanitizeFilename(table.Name)

	switch format {
	case "xlsx":
		data, err := s.exporter.ExportXLSX(table.Name, table.Records)
		if err != nil {
			s.respondError(w, r, common.NewError(common.KindServiceError, "render workbook", err))
			return
		}
		sendAttachment(w, filename+".xlsx",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	case "csv":
		sendAttachment(w, filename+".csv", "text/csv; charset=utf-8",
			s.exporter.ExportCSV(table.Records))
	case "word":
		sendAttachment(w, filename+".doc", "application/msword",
			s.exporter.ExportWord(table.Name, table.Records))
	case "json":
		data, err := s.exporter.ExportJSON(table.Records)
		if err != nil {
			s.respondError(w, r, common.NewError(common.KindServiceError, "render json", err))
			return
		}
		sendAttachment(w, filename+".json", "application/json; charset=utf-8", data)
	default:
		s.respondError(w, r, common.Errorf(common.KindInvalidInput, "unknown export format %q", format))
	}
}

func sendAttachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// sanitizeFilename keeps the table name usable as a download filename.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "tabela"
	}
	r := strings.NewReplacer("/", "-", "\\", "-", "\"", "", "\n", " ", "\r", " ")
	return r.Replace(name)
}
