package store

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diegofalves/ominideck/pkg/models"
)

// RecordChange appends an entry to project_metadata.change_history.
func RecordChange(doc *models.Document, author, summary string, at time.Time) models.ChangeEntry {
	entry := models.ChangeEntry{
		ID:      uuid.NewString(),
		At:      at.UTC().Format(time.RFC3339),
		Author:  strings.TrimSpace(author),
		Summary: strings.TrimSpace(summary),
	}
	// ChangeEntry holds only strings, so Marshal cannot fail.
	raw, _ := json.Marshal(entry)
	doc.ProjectMetadata.ChangeHistory = append(doc.ProjectMetadata.ChangeHistory, raw)
	return entry
}
