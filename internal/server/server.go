// Package server exposes the migration project over a local HTTP API and
// renders the progress dashboard as an HTML page.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/diegofalves/ominideck/internal/errs"
	"github.com/diegofalves/ominideck/internal/schema"
	"github.com/diegofalves/ominideck/internal/store"
	"github.com/diegofalves/ominideck/pkg/logger"
)

// FieldSource lists tables and describes their fields.
type FieldSource interface {
	ListTables() ([]string, error)
	FieldDescriptors(table string) ([]schema.FieldDescriptor, error)
}

// Server serves one migration project file. Store access is serialized, so
// a single Server is safe for concurrent requests.
type Server struct {
	Store  *store.Store
	Schema FieldSource
	Author string
	Now    func() time.Time

	mu sync.Mutex
}

func New(st *store.Store, sc FieldSource, author string) *Server {
	return &Server{Store: st, Schema: sc, Author: author, Now: time.Now}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Author"},
		MaxAge:         300,
	}))

	r.Get("/", s.DashboardPage)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/project", s.GetProject)
		r.Put("/project", s.PutProject)
		r.Get("/dashboard", s.GetDashboard)
		r.Get("/tables", s.ListTables)
		r.Get("/tables/{table}/fields", s.TableFields)
		r.Post("/sql/tables", s.SQLTables)
		r.Post("/groups/{groupID}/items/{index}/subtable-check", s.SubtableCheck)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Errorf("failed to encode response: %v", err)
	}
}

type errorBody struct {
	Errors []string `json:"errors"`
}

// writeError maps the error taxonomy onto status codes.
func writeError(w http.ResponseWriter, err error) {
	if msgs, ok := errs.AsValidation(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Errors: msgs})
		return
	}
	if errs.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, errorBody{Errors: []string{err.Error()}})
		return
	}
	logger.Errorf("request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Errors: []string{err.Error()}})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Errors: []string{msg}})
}
