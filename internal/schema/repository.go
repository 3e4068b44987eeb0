// Package schema reads the per-table column metadata exported from the OTM
// data dictionary and turns it into form field descriptors.
package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/diegofalves/ominideck/internal/config"
	"github.com/diegofalves/ominideck/internal/errs"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

const indexFile = "index.json"

// Repository serves table schemas from a directory holding one
// <TABLE>.json file per table. Loaded schemas are cached until ClearCache.
type Repository struct {
	dir string

	mu     sync.Mutex
	tables []string
	cache  map[string]*models.TableSchema
}

// NewRepository creates a Repository over dir.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir, cache: make(map[string]*models.TableSchema)}
}

// Dir returns the schema directory.
func (r *Repository) Dir() string {
	return r.dir
}

// ListTables returns the known table names, sorted.
func (r *Repository) ListTables() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tables != nil {
		return append([]string(nil), r.tables...), nil
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound("schema directory", r.dir)
		}
		return nil, fmt.Errorf("failed to read schema directory '%s': %w", r.dir, err)
	}

	tables := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".json") || strings.EqualFold(name, indexFile) {
			continue
		}
		tables = append(tables, utils.NormalizeToken(strings.TrimSuffix(name, filepath.Ext(name))))
	}
	sort.Strings(tables)
	r.tables = tables
	return append([]string(nil), tables...), nil
}

// LoadTable returns the raw schema of a table. A missing file is an
// errs.NotFoundError.
func (r *Repository) LoadTable(name string) (*models.TableSchema, error) {
	table := utils.NormalizeToken(name)
	if table == "" {
		return nil, errs.NotFound("table schema", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.cache[table]; ok {
		return s, nil
	}

	var s models.TableSchema
	if err := config.LoadJSON(filepath.Join(r.dir, table+".json"), "table schema", &s); err != nil {
		return nil, err
	}
	r.cache[table] = &s
	return &s, nil
}

// HasColumn reports whether the table exists and has the column.
func (r *Repository) HasColumn(table, column string) bool {
	s, err := r.LoadTable(table)
	if err != nil {
		return false
	}
	col := utils.NormalizeToken(column)
	for _, c := range s.Columns {
		if utils.NormalizeToken(c.Name) == col {
			return true
		}
	}
	return false
}

// ClearCache drops every cached schema and the table list.
func (r *Repository) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = nil
	r.cache = make(map[string]*models.TableSchema)
}
