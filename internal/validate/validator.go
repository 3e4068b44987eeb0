// Package validate checks a normalized migration-project document against
// the structural and cross-item rules enforced on save.
package validate

import (
	"fmt"
	"strings"

	"github.com/diegofalves/ominideck/internal/errs"
	"github.com/diegofalves/ominideck/internal/schema"
	"github.com/diegofalves/ominideck/internal/stats"
	"github.com/diegofalves/ominideck/pkg/logger"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

// DomainSource supplies the domain coverage requirements.
type DomainSource interface {
	TableDomainMap() (*stats.TableDomainMap, error)
}

// FieldSource describes the columns of a table.
type FieldSource interface {
	FieldDescriptors(table string) ([]schema.FieldDescriptor, error)
}

// Validator runs every document check. Both sources are optional; without
// them coverage and data dictionary checks are skipped.
type Validator struct {
	Stats  DomainSource
	Schema FieldSource
}

// New creates a Validator.
func New(st DomainSource, sc FieldSource) *Validator {
	return &Validator{Stats: st, Schema: sc}
}

// Validate returns nil, a catalog loading error, or one
// errs.DomainValidationError carrying every violation.
func (v *Validator) Validate(doc *models.Document) error {
	msgs, err := v.Messages(doc)
	if err != nil {
		return err
	}
	return errs.Validation(msgs)
}

// Messages lists every violation in check order.
func (v *Validator) Messages(doc *models.Document) ([]string, error) {
	var msgs []string
	msgs = append(msgs, checkProject(doc)...)
	msgs = append(msgs, checkGroups(doc)...)
	msgs = append(msgs, v.checkItems(doc)...)
	for _, c := range subtableConflicts(doc.Items()) {
		msgs = append(msgs, c.message)
	}
	msgs = append(msgs, checkCanonicalProcess(doc)...)

	coverage, err := v.checkCoverage(doc)
	if err != nil {
		return nil, err
	}
	return append(msgs, coverage...), nil
}

func checkProject(doc *models.Document) []string {
	var msgs []string
	p := doc.Project
	if strings.TrimSpace(p.Code) == "" {
		msgs = append(msgs, "project code is required")
	}
	if strings.TrimSpace(p.Version) == "" {
		msgs = append(msgs, "project version is required")
	}
	src, dst := strings.TrimSpace(p.SourceEnvironment), strings.TrimSpace(p.TargetEnvironment)
	if src != "" && dst != "" && strings.EqualFold(src, dst) {
		msgs = append(msgs, fmt.Sprintf("source and target environments must differ (both are %s)", src))
	}
	if len(doc.Groups) == 0 {
		msgs = append(msgs, "the project must have at least one group")
	}
	return msgs
}

func checkGroups(doc *models.Document) []string {
	var msgs []string
	seen := make(map[string]int)
	for _, g := range doc.Groups {
		seen[g.GroupID]++
		switch g.Kind() {
		case models.GroupKindUnassigned:
			if g.Sequence != models.UnassignedSequence {
				msgs = append(msgs, fmt.Sprintf("group %s must have sequence %d, got %d", g.GroupID, models.UnassignedSequence, g.Sequence))
			}
		case models.GroupKindIgnored:
			if g.Sequence != models.IgnoredSequence {
				msgs = append(msgs, fmt.Sprintf("group %s must have sequence %d, got %d", g.GroupID, models.IgnoredSequence, g.Sequence))
			}
		default:
			if strings.TrimSpace(g.Label) == "" {
				msgs = append(msgs, fmt.Sprintf("group %s: label is required", g.GroupID))
			}
			if g.Sequence <= 0 {
				msgs = append(msgs, fmt.Sprintf("group %s: invalid sequence %d", g.GroupID, g.Sequence))
			}
			if len(g.Objects) == 0 {
				msgs = append(msgs, fmt.Sprintf("group %s: must contain at least one item", g.GroupID))
			}
		}
	}
	for _, id := range []string{models.GroupUnassigned, models.GroupIgnored} {
		if seen[id] != 1 {
			msgs = append(msgs, fmt.Sprintf("group %s must exist exactly once, found %d", id, seen[id]))
		}
	}
	for _, g := range doc.Groups {
		if g.IsManual() && seen[g.GroupID] > 1 {
			msgs = append(msgs, fmt.Sprintf("group id %s is used by %d groups", g.GroupID, seen[g.GroupID]))
			seen[g.GroupID] = 1
		}
	}
	return msgs
}

func describe(ref models.ItemRef) string {
	return fmt.Sprintf("%q (group %s)", ref.Item.Name, ref.Group.GroupID)
}

func itemLabel(ref models.ItemRef) string {
	name := ref.Item.Name
	if name == "" {
		name = "#" + fmt.Sprint(ref.Index+1)
	}
	return fmt.Sprintf("group %s, item %s", ref.Group.GroupID, name)
}

func (v *Validator) checkItems(doc *models.Document) []string {
	var msgs []string
	for _, ref := range doc.Items() {
		it := ref.Item
		label := itemLabel(ref)

		if strings.TrimSpace(it.Name) == "" {
			msgs = append(msgs, fmt.Sprintf("%s: name is required", label))
		}
		objectType := utils.NormalizeToken(it.ObjectType)
		if objectType == "" {
			msgs = append(msgs, fmt.Sprintf("%s: object_type is required", label))
		} else if it.IsLogical() {
			if objectType == "SAVED_QUERY" && it.SQL() == "" && !it.Auto() {
				msgs = append(msgs, fmt.Sprintf("%s: a SAVED_QUERY item needs SQL", label))
			}
		} else if utils.NormalizeToken(it.OTMTable) != objectType {
			msgs = append(msgs, fmt.Sprintf("%s: otm_table %s must equal object_type %s", label, it.OTMTable, objectType))
		}

		for _, phase := range models.StatusPhases {
			if val := it.Status.Phase(phase); !utils.ContainsToken(models.StatusValues, val) {
				msgs = append(msgs, fmt.Sprintf("%s: invalid %s status %q", label, phase, val))
			}
		}
		if dt := it.DeploymentType; dt != "" && !utils.ContainsToken(models.DeploymentTypes, dt) {
			msgs = append(msgs, fmt.Sprintf("%s: unknown deployment_type %q", label, dt))
		}

		msgs = append(msgs, v.checkData(label, it)...)
	}
	return msgs
}

// checkData validates item data against the table's dictionary: required
// fields must be filled and numeric fields must parse.
func (v *Validator) checkData(label string, it *models.Item) []string {
	if v.Schema == nil || len(it.Data) == 0 || it.IsLogical() || it.Auto() {
		return nil
	}
	fields, err := v.Schema.FieldDescriptors(it.Table())
	if err != nil {
		logger.Warnf("Skipping data dictionary check for %s: %v", it.Table(), err)
		return nil
	}

	var msgs []string
	for _, f := range fields {
		val := strings.TrimSpace(utils.ConvertToString(lookupData(it.Data, f.Name)))
		if val == "" {
			if f.Required {
				msgs = append(msgs, fmt.Sprintf("%s: field %s is required", label, f.Name))
			}
			continue
		}
		if f.Type == schema.TypeNumber && !utils.IsNumeric(val) {
			msgs = append(msgs, fmt.Sprintf("%s: field %s must be numeric, got %q", label, f.Name, val))
		}
	}
	return msgs
}

func lookupData(data map[string]interface{}, column string) interface{} {
	if v, ok := data[column]; ok {
		return v
	}
	for k, v := range data {
		if strings.EqualFold(k, column) {
			return v
		}
	}
	return nil
}

// checkCanonicalProcess requires an active item for every table-bound
// object type in use, unless the table is ignored as a whole.
func checkCanonicalProcess(doc *models.Document) []string {
	active := make(map[string]int)
	var order []string
	for _, ref := range doc.Items() {
		it := ref.Item
		ot := utils.NormalizeToken(it.ObjectType)
		if ot == "" || it.IsLogical() {
			continue
		}
		if _, ok := active[ot]; !ok {
			active[ot] = 0
			order = append(order, ot)
		}
		if !it.Ignored() {
			active[ot]++
		}
	}

	ignored := stats.IgnoredCoverage(doc.Groups)
	var msgs []string
	for _, ot := range order {
		if active[ot] == 0 && !ignored.TableIgnored(ot) {
			msgs = append(msgs, fmt.Sprintf("object type %s has no active (non-ignored) item", ot))
		}
	}
	return msgs
}

func (v *Validator) checkCoverage(doc *models.Document) ([]string, error) {
	if v.Stats == nil {
		return nil, nil
	}
	tdm, err := v.Stats.TableDomainMap()
	if err != nil {
		return nil, err
	}
	if tdm.Empty() {
		return nil, nil
	}

	covered := stats.ObjectDomainMap(doc.Groups)
	ignored := stats.IgnoredCoverage(doc.Groups)
	var msgs []string
	for _, table := range tdm.Tables {
		for _, d := range tdm.Domains[table] {
			if !covered[table][d] && !ignored.Skips(table, d) {
				msgs = append(msgs, fmt.Sprintf("table %s has no item covering domain %s", table, d))
			}
		}
	}
	return msgs, nil
}
