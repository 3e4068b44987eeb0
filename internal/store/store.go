package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/diegofalves/ominideck/internal/errs"
	"github.com/diegofalves/ominideck/pkg/logger"
	"github.com/diegofalves/ominideck/pkg/models"
)

// Validator checks a normalized document before it is written.
type Validator interface {
	Validate(doc *models.Document) error
}

// Store owns the migration-project file.
type Store struct {
	path       string
	normalizer *Normalizer
	validator  Validator
}

// New creates a Store for the document at path. A nil validator accepts
// every normalized document.
func New(path string, n *Normalizer, v Validator) *Store {
	if n == nil {
		n = &Normalizer{}
	}
	return &Store{path: path, normalizer: n, validator: v}
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Normalize runs the normalization pipeline on doc.
func (s *Store) Normalize(doc *models.Document) error {
	return s.normalizer.Normalize(doc)
}

// Decode parses a document. Parse failures are errs.ParseError tagged with
// source.
func Decode(data []byte, source string) (*models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.Parse(source, err)
	}
	return &doc, nil
}

// Load reads and normalizes the document. A missing file is an
// errs.NotFoundError. When normalization changed the document it is written
// back, without validation.
func (s *Store) Load() (*models.Document, error) {
	doc, _, err := s.Sync()
	return doc, err
}

// Read decodes the document as stored, without normalizing or writing.
func (s *Store) Read() (*models.Document, error) {
	data, err := s.readRaw()
	if err != nil {
		return nil, err
	}
	return Decode(data, s.path)
}

func (s *Store) readRaw() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound("migration project", s.path)
		}
		return nil, fmt.Errorf("failed to read migration project '%s': %w", s.path, err)
	}
	return data, nil
}

// Sync is Load that also reports whether the file was rewritten.
func (s *Store) Sync() (*models.Document, bool, error) {
	data, err := s.readRaw()
	if err != nil {
		return nil, false, err
	}

	doc, err := Decode(data, s.path)
	if err != nil {
		return nil, false, err
	}
	before, err := CanonicalJSON(data)
	if err != nil {
		return nil, false, errs.Parse(s.path, err)
	}

	if err := s.normalizer.Normalize(doc); err != nil {
		return nil, false, err
	}
	after, err := Canonical(doc)
	if err != nil {
		return nil, false, err
	}
	if bytes.Equal(before, after) {
		return doc, false, nil
	}

	if err := s.write(doc); err != nil {
		return nil, false, err
	}
	logger.Infow("migration project normalized and rewritten", "path", s.path)
	return doc, true, nil
}

// Save normalizes, validates and atomically writes doc. Validation failures
// are returned as one errs.DomainValidationError and leave the file as is.
func (s *Store) Save(doc *models.Document) error {
	// 1. Normalize
	if err := s.normalizer.Normalize(doc); err != nil {
		return err
	}

	// 2. Validate
	if s.validator != nil {
		if err := s.validator.Validate(doc); err != nil {
			return err
		}
	}

	// 3. Write
	if err := s.write(doc); err != nil {
		return err
	}
	logger.Infow("migration project saved", "path", s.path, "groups", len(doc.Groups), "items", len(doc.Items()))
	return nil
}

func (s *Store) write(doc *models.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", s.path, err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write migration project '%s': %w", s.path, err)
	}
	return nil
}
