package schema

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

// Field types.
const (
	TypeText    = "text"
	TypeNumber  = "number"
	TypeDate    = "date"
	TypeBoolean = "boolean"
	TypeSelect  = "select"
)

// Form sections.
const (
	SectionIdentification = "identification"
	SectionGeneral        = "general"
	SectionFlexfields     = "flexfields"
	SectionAudit          = "audit"
)

var auditColumns = map[string]bool{
	"INSERT_USER": true,
	"INSERT_DATE": true,
	"UPDATE_USER": true,
	"UPDATE_DATE": true,
}

var quotedValue = regexp.MustCompile(`'((?:[^']|'')*)'`)

// FieldDescriptor is the UI-ready description of one column.
type FieldDescriptor struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Type       string   `json:"type"`
	Required   bool     `json:"required"`
	Section    string   `json:"section"`
	Lookup     string   `json:"lookup,omitempty"`
	Constraint string   `json:"constraint,omitempty"`
	Options    []string `json:"options,omitempty"`
}

// FieldDescriptors describes every column of a table in schema order.
func (r *Repository) FieldDescriptors(table string) ([]FieldDescriptor, error) {
	s, err := r.LoadTable(table)
	if err != nil {
		return nil, err
	}
	return Describe(s), nil
}

// Describe builds the field descriptors of a loaded schema.
func Describe(s *models.TableSchema) []FieldDescriptor {
	pk := make(map[string]bool, len(s.PrimaryKey))
	for _, c := range s.PrimaryKey {
		pk[utils.NormalizeToken(c)] = true
	}
	checks := make(map[string]string)
	for _, cc := range s.CheckConstraints {
		checks[utils.NormalizeToken(cc.ColumnName)] = cc.SearchCondition
	}

	fields := make([]FieldDescriptor, 0, len(s.Columns))
	for _, col := range s.Columns {
		name := utils.NormalizeToken(col.Name)
		constraint := col.CheckConstraint
		if constraint == "" {
			constraint = checks[name]
		}

		f := FieldDescriptor{
			Name:       name,
			Label:      label(name),
			Section:    section(name, pk),
			Lookup:     lookup(name, s.ForeignKeys),
			Constraint: constraint,
		}
		f.Type, f.Options = fieldType(col.DataType, constraint)
		f.Required = !bool(col.Nullable) && f.Section != SectionAudit && isEmptyDefault(col.DefaultValue)
		fields = append(fields, f)
	}
	return fields
}

func label(name string) string {
	return cases.Title(language.Und).String(strings.ToLower(strings.ReplaceAll(name, "_", " ")))
}

func section(name string, pk map[string]bool) string {
	switch {
	case pk[name] || name == "DOMAIN_NAME":
		return SectionIdentification
	case auditColumns[name]:
		return SectionAudit
	case strings.HasPrefix(name, "ATTRIBUTE"):
		return SectionFlexfields
	default:
		return SectionGeneral
	}
}

func lookup(name string, fks []models.ForeignKey) string {
	for _, fk := range fks {
		if utils.NormalizeToken(fk.Column) == name || utils.ContainsToken(fk.Columns, name) {
			return utils.NormalizeToken(fk.ReferencedTable)
		}
	}
	return ""
}

func fieldType(dataType, constraint string) (string, []string) {
	dt := utils.NormalizeToken(dataType)
	switch {
	case strings.HasPrefix(dt, "VARCHAR"), strings.HasPrefix(dt, "NVARCHAR"), strings.HasPrefix(dt, "CHAR"), strings.HasPrefix(dt, "NCHAR"):
		options := quotedValues(constraint)
		if len(options) == 0 {
			return TypeText, nil
		}
		if len(options) == 2 && utils.ContainsToken(options, "Y") && utils.ContainsToken(options, "N") {
			return TypeBoolean, nil
		}
		return TypeSelect, options
	case strings.HasPrefix(dt, "NUMBER"), strings.HasPrefix(dt, "INTEGER"), strings.HasPrefix(dt, "FLOAT"), strings.HasPrefix(dt, "DECIMAL"):
		return TypeNumber, nil
	case strings.HasPrefix(dt, "DATE"), strings.HasPrefix(dt, "TIMESTAMP"):
		return TypeDate, nil
	default:
		return TypeText, nil
	}
}

func quotedValues(constraint string) []string {
	var values []string
	seen := make(map[string]bool)
	for _, m := range quotedValue.FindAllStringSubmatch(constraint, -1) {
		v := strings.ReplaceAll(m[1], "''", "'")
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	return values
}

func isEmptyDefault(v interface{}) bool {
	return strings.TrimSpace(utils.ConvertToString(v)) == ""
}
