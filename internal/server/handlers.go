package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diegofalves/ominideck/internal/dashboard"
	"github.com/diegofalves/ominideck/internal/sqlparse"
	"github.com/diegofalves/ominideck/internal/store"
	"github.com/diegofalves/ominideck/internal/validate"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

const maxBodyBytes = 32 << 20

func (s *Server) load() (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Store.Load()
}

func readDocument(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		badRequest(w, "failed to read request body: "+err.Error())
		return nil, false
	}
	doc, err := store.Decode(body, "request body")
	if err != nil {
		badRequest(w, err.Error())
		return nil, false
	}
	return doc, true
}

func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	doc, err := s.load()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// PutProject replaces the document. The change is recorded in the history
// under the X-Author header, or the configured author.
func (s *Server) PutProject(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}

	author := strings.TrimSpace(r.Header.Get("X-Author"))
	if author == "" {
		author = s.Author
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	store.RecordChange(doc, author, "project updated", s.Now())
	if err := s.Store.Save(doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) GetDashboard(w http.ResponseWriter, r *http.Request) {
	doc, err := s.load()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Build(doc))
}

func (s *Server) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.Schema.ListTables()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tables": tables})
}

func (s *Server) TableFields(w http.ResponseWriter, r *http.Request) {
	table := utils.NormalizeToken(chi.URLParam(r, "table"))
	fields, err := s.Schema.FieldDescriptors(table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"table": table, "fields": fields})
}

type sqlRequest struct {
	SQL string `json:"sql"`
}

func (s *Server) SQLTables(w http.ResponseWriter, r *http.Request) {
	var req sqlRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tables": sqlparse.ExtractTables(req.SQL)})
}

// SubtableCheck runs the subtable constraints for one item of the proposed
// document in the body. The document is checked as sent, not normalized.
func (s *Server) SubtableCheck(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		badRequest(w, "invalid item index: "+chi.URLParam(r, "index"))
		return
	}
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}
	if err := validate.SubtableConstraintsForObject(doc, chi.URLParam(r, "groupID"), index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, errorBody{Errors: []string{}})
}
