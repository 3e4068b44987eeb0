package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/diegofalves/ominideck/pkg/models"
)

// Encode renders the document the way it is written to disk: two-space
// indent, no HTML escaping, trailing newline.
func Encode(doc *models.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode migration project: %w", err)
	}
	return buf.Bytes(), nil
}

// Canonical returns a deterministic serialization of doc: object keys
// sorted, numbers kept verbatim. Two documents are equal iff their canonical
// forms are.
func Canonical(doc *models.Document) ([]byte, error) {
	raw, err := Encode(doc)
	if err != nil {
		return nil, err
	}
	return CanonicalJSON(raw)
}

// CanonicalJSON re-serializes arbitrary JSON with sorted keys.
func CanonicalJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
