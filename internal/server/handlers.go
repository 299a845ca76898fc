package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/flosch/pongo2/v6"

	"github.com/koustreak/DatEd/internal/editor"
	"github.com/koustreak/DatEd/internal/errs"
	"github.com/koustreak/DatEd/internal/logger"
	"github.com/koustreak/DatEd/internal/schema"
)

type metadataResponse struct {
	Table  string          `json:"table"`
	Fields []schema.Column `json:"fields"`
}

type updateResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RowsAffected int64  `json:"rows_affected"`
}

type exportResponse struct {
	Success bool   `json:"success"`
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
	URL     string `json:"url"`
	Rows    int    `json:"rows"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// pageCell and pageRow feed the index template: the grid is flattened
// here because templates cannot index a map with a runtime column name.
type pageCell struct {
	Column string
	Value  any
}

type pageRow struct {
	Key   any
	Cells []pageCell
}

func tableName(r *http.Request) string {
	if t := r.URL.Query().Get("table"); t != "" {
		return t
	}
	return defaultTable
}

// handleIndex renders the editor page for the default table.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	desc, err := s.svc.Metadata(ctx, defaultTable)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	data, err := s.svc.FetchAllRows(ctx, defaultTable)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	rows := make([]pageRow, 0, len(data.Rows))
	for _, row := range data.Rows {
		cells := make([]pageCell, len(data.Columns))
		for i, col := range data.Columns {
			cells[i] = pageCell{Column: col, Value: row[col]}
		}
		rows = append(rows, pageRow{Key: row[desc.PrimaryKey], Cells: cells})
	}

	html, err := s.indexTmpl.Execute(pongo2.Context{
		"table_name":  defaultTable,
		"metadata":    desc.Columns,
		"rows":        rows,
		"primary_key": desc.PrimaryKey,
	})
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, html)
}

// renderError logs err and renders the error page with a redacted message.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).With().Err(err).Logger().Error("page render failed")

	html, terr := s.errTmpl.Execute(pongo2.Context{"error": redactedError})
	if terr != nil {
		http.Error(w, redactedError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, html)
}

// handleMetadata returns the column descriptors for a table. Unknown
// tables answer 200 with an empty field list.
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	table := tableName(r)

	desc, err := s.svc.Metadata(r.Context(), table)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, metadataResponse{Table: table, Fields: desc.Columns})
}

// handleData returns every row of a table. Unknown tables answer 200 with
// empty columns and rows, mirroring /metadata.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	table := tableName(r)

	data, err := s.svc.FetchAllRows(r.Context(), table)
	if err != nil {
		if errs.IsUnknownTable(err) {
			writeJSON(w, http.StatusOK, editor.TableData{
				Table:   table,
				Columns: []string{},
				Rows:    []map[string]any{},
			})
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// handleUpdate applies a partial update to one record.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req *editor.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No data provided"})
		return
	}
	if req.Table == "" {
		req.Table = defaultTable
	}

	res, err := s.svc.UpdateRecord(r.Context(), *req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updateResponse{
		Success:      true,
		Message:      res.Message,
		RowsAffected: res.RowsAffected,
	})
}

// handleExport renders a table to CSV. With an object store configured the
// snapshot is uploaded and a presigned URL returned; without one the CSV
// comes back directly as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req *struct {
		Table string `json:"table"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No data provided"})
		return
	}
	table := req.Table
	if table == "" {
		table = defaultTable
	}

	snap, err := s.exporter.Render(r.Context(), table)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if s.exporter.CanUpload() {
		res, err := s.exporter.Upload(r.Context(), snap)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, exportResponse{
			Success: true,
			Bucket:  res.Bucket,
			Key:     res.Key,
			URL:     res.URL,
			Rows:    res.Rows,
		})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", snap.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Data)
}

// handleHealthz reports whether the database answers a ping.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		logger.FromContext(r.Context()).With().Err(err).Logger().Error("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status: "unavailable",
			Error:  "database unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
