// Package server exposes the record editor over HTTP: the JSON API
// (/metadata, /data, /update, /export, /healthz) and the HTML editor
// page at /.
package server

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/DatEd/internal/database"
	"github.com/koustreak/DatEd/internal/editor"
	"github.com/koustreak/DatEd/internal/exporter"
	"github.com/koustreak/DatEd/internal/logger"
)

// defaultTable is used when a request names no table.
const defaultTable = "users"

//go:embed templates/index.html
var indexHTML []byte

//go:embed templates/error.html
var errorHTML []byte

// Server holds the handler dependencies and the compiled page templates.
type Server struct {
	svc      *editor.Service
	exporter *exporter.Exporter
	db       database.DB
	log      *logger.Logger

	indexTmpl *pongo2.Template
	errTmpl   *pongo2.Template
}

// New builds a Server. The templates are compiled once here; a template
// error is a programming error and surfaces immediately.
func New(svc *editor.Service, exp *exporter.Exporter, db database.DB, log *logger.Logger) (*Server, error) {
	indexTmpl, err := pongo2.FromBytes(indexHTML)
	if err != nil {
		return nil, err
	}
	errTmpl, err := pongo2.FromBytes(errorHTML)
	if err != nil {
		return nil, err
	}

	return &Server{
		svc:       svc,
		exporter:  exp,
		db:        db,
		log:       log,
		indexTmpl: indexTmpl,
		errTmpl:   errTmpl,
	}, nil
}

// Router returns the HTTP handler with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/metadata", s.handleMetadata)
	r.Get("/data", s.handleData)
	r.Post("/update", s.handleUpdate)
	r.Post("/export", s.handleExport)
	r.Get("/healthz", s.handleHealthz)

	return r
}

// requestLogger attaches a request-scoped logger to the context and logs
// one line per request with method, path, status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqLog := s.log.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Logger()

		next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

		reqLog.With().
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Logger().Info("request")
	})
}
