package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/diegofalves/ominideck/internal/errs"
)

// LoadJSON reads and parses a JSON catalog file into v. kind names the file
// in errors ("eligibility catalog", "table schema", ...). A missing file
// yields an errs.NotFoundError, malformed content an errs.ParseError.
func LoadJSON(path, kind string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errs.NotFound(kind, path)
		}
		return fmt.Errorf("failed to read %s '%s': %w", kind, path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return errs.Parse(path, err)
	}
	return nil
}
