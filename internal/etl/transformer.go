package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/diegofalves/ominideck/pkg/logger"
	"github.com/diegofalves/ominideck/pkg/models"
)

// Transformer flattens document items into catalog records.
type Transformer struct {
	ProjectCode string
	Now         func() time.Time
}

func NewTransformer(doc *models.Document) *Transformer {
	return &Transformer{ProjectCode: doc.Project.Code, Now: time.Now}
}

// Transform builds the record for one item. Items without a migration item
// id cannot be keyed and are rejected.
func (t *Transformer) Transform(ref models.ItemRef) (Record, error) {
	it := ref.Item
	if it.ID == "" {
		return nil, fmt.Errorf("item %q in group %s has no migration_item_id", it.Name, ref.Group.GroupID)
	}

	status := make(map[string]interface{}, len(models.StatusPhases))
	for _, phase := range models.StatusPhases {
		status[phase] = it.Status.Phase(phase)
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}

	return Record{
		"_id":             it.ID,
		"project_code":    t.ProjectCode,
		"group_id":        ref.Group.GroupID,
		"group_label":     ref.Group.Label,
		"group_sequence":  int(ref.Group.Sequence),
		"sequence":        int(it.Sequence),
		"name":            it.Name,
		"object_type":     it.ObjectType,
		"table":           it.Table(),
		"domain":          it.DomainKey(),
		"deployment_type": it.DeploymentType,
		"responsible":     it.Responsible,
		"status":          status,
		"related_tables":  append([]string{}, it.RelatedTables...),
		"subtables":       append([]string{}, it.Subtables...),
		"subtable_parent": it.SubtableParent,
		"auto_generated":  it.Auto(),
		"ignored":         it.Ignored(),
		"published_at":    now().UTC(),
	}, nil
}

// DocumentExtractor pages through every item of a normalized document,
// IGNORADOS included.
type DocumentExtractor struct {
	Refs        []models.ItemRef
	Transformer *Transformer
}

func NewDocumentExtractor(doc *models.Document) *DocumentExtractor {
	return &DocumentExtractor{Refs: doc.Items(), Transformer: NewTransformer(doc)}
}

func (e *DocumentExtractor) Extract(ctx context.Context, batchSize int, offset int) ([]Record, int, error) {
	if offset >= len(e.Refs) {
		return nil, offset, nil
	}
	end := offset + batchSize
	if end > len(e.Refs) {
		end = len(e.Refs)
	}

	records := make([]Record, 0, end-offset)
	for _, ref := range e.Refs[offset:end] {
		rec, err := e.Transformer.Transform(ref)
		if err != nil {
			logger.Errorf("Skipping item due to transform error: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records, end, nil
}
