package models

import (
	"encoding/json"
	"strings"

	"github.com/diegofalves/ominideck/pkg/utils"
)

// Status values.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// Phase names, in document order.
const (
	PhaseDocumentation    = "documentation"
	PhaseDeployment       = "deployment"
	PhaseMigrationProject = "migration_project"
	PhaseExport           = "export"
	PhaseValidation       = "validation"
)

// StatusPhases lists every tracked phase.
var StatusPhases = []string{PhaseDocumentation, PhaseDeployment, PhaseMigrationProject, PhaseExport, PhaseValidation}

// StatusValues is the allowed enumeration for a phase.
var StatusValues = []string{StatusPending, StatusInProgress, StatusDone}

// Deployment types.
const (
	DeploymentManual           = "MANUAL"
	DeploymentMigrationProject = "MIGRATION_PROJECT"
	DeploymentCSV              = "CSV"
	DeploymentDBXML            = "DB_XML"
	DeploymentIntegration      = "INTEGRATION"
)

// DeploymentTypes is the fixed deployment mechanism enumeration.
var DeploymentTypes = []string{DeploymentManual, DeploymentMigrationProject, DeploymentCSV, DeploymentDBXML, DeploymentIntegration}

// Technical content and query defaults.
const (
	TechnicalContentNone = "NONE"
	TechnicalContentSQL  = "SQL"
	QueryLanguageSQL     = "SQL"
)

// LogicalTypeIdentifiers maps each logical object type to the identifier keys
// an item of that type must carry. Logical types are not bound to one table.
var LogicalTypeIdentifiers = map[string][]string{
	"SAVED_QUERY": {"SAVED_QUERY_GID"},
	"AGENT":       {"AGENT_GID"},
	"FINDER_SET":  {"FINDER_SET_GID"},
	"RATE":        {"RATE_OFFERING_GID"},
	"EVENT_GROUP": {"EVENT_GROUP_GID"},
}

// IsLogicalType reports whether objectType is a logical type.
func IsLogicalType(objectType string) bool {
	_, ok := LogicalTypeIdentifiers[utils.NormalizeToken(objectType)]
	return ok
}

// DomainsOverlap treats an empty domain as "every domain".
func DomainsOverlap(a, b string) bool {
	a, b = utils.NormalizeToken(a), utils.NormalizeToken(b)
	return a == "" || b == "" || a == b
}

// Status tracks one token per phase.
type Status struct {
	Documentation    string `json:"documentation"`
	Deployment       string `json:"deployment"`
	MigrationProject string `json:"migration_project"`
	Export           string `json:"export"`
	Validation       string `json:"validation"`
}

// Phase returns the value of the named phase.
func (s *Status) Phase(name string) string {
	if p := s.phasePtr(name); p != nil {
		return *p
	}
	return ""
}

// SetPhase sets the named phase; unknown names are ignored.
func (s *Status) SetPhase(name, value string) {
	if p := s.phasePtr(name); p != nil {
		*p = value
	}
}

func (s *Status) phasePtr(name string) *string {
	switch name {
	case PhaseDocumentation:
		return &s.Documentation
	case PhaseDeployment:
		return &s.Deployment
	case PhaseMigrationProject:
		return &s.MigrationProject
	case PhaseExport:
		return &s.Export
	case PhaseValidation:
		return &s.Validation
	}
	return nil
}

// TechnicalContent is free text attached to an item. Older files store a bare
// string; it decodes into Content.
type TechnicalContent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (tc *TechnicalContent) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case map[string]interface{}:
		tc.Type = utils.ConvertToString(val["type"])
		tc.Content = utils.ConvertToString(val["content"])
	case nil:
		*tc = TechnicalContent{}
	default:
		tc.Type = ""
		tc.Content = utils.ConvertToString(val)
	}
	return nil
}

// ExtractionQuery is the SQL that pulls the item's rows out of OTM.
type ExtractionQuery struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

func (q *ExtractionQuery) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case map[string]interface{}:
		q.Language = utils.ConvertToString(val["language"])
		q.Content = utils.ConvertToString(val["content"])
	case nil:
		*q = ExtractionQuery{}
	default:
		q.Language = ""
		q.Content = utils.ConvertToString(val)
	}
	return nil
}

// Item is one unit of migration work.
type Item struct {
	ID                        string                 `json:"migration_item_id,omitempty"`
	Name                      string                 `json:"name"`
	Description               string                 `json:"description"`
	ObjectType                string                 `json:"object_type"`
	OTMTable                  string                 `json:"otm_table"`
	DomainName                string                 `json:"domainName"`
	Domain                    string                 `json:"domain"`
	DeploymentType            string                 `json:"deployment_type"`
	DeploymentTypeUserDefined Flag                   `json:"deployment_type_user_defined"`
	Responsible               string                 `json:"responsible"`
	Sequence                  Seq                    `json:"sequence"`
	Status                    Status                 `json:"status"`
	Identifiers               map[string]interface{} `json:"identifiers"`
	Data                      map[string]interface{} `json:"data"`
	TechnicalContent          TechnicalContent       `json:"technical_content"`
	ExtractionQuery           *ExtractionQuery       `json:"object_extraction_query,omitempty"`
	SavedQuery                json.RawMessage        `json:"saved_query,omitempty"`
	RelatedTables             []string               `json:"otm_related_tables"`
	Subtables                 []string               `json:"otm_subtables"`
	IgnoreTable               Flag                   `json:"ignore_table"`
	AutoGenerated             Flag                   `json:"auto_generated"`
	SubtableParent            string                 `json:"subtable_parent,omitempty"`
	InheritsFromParent        Flag                   `json:"inherits_from_parent,omitempty"`
	Notes                     string                 `json:"notes"`

	Extra Extra `json:"-"`
}

func (it *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	extra, err := decodeWithExtra(data, (*plain)(it))
	if err != nil {
		return err
	}
	it.Extra = extra
	return nil
}

func (it Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return encodeWithExtra(plain(it), it.Extra)
}

// Table is the OTM table the item covers: otm_table, or object_type when the
// item is not bound to a table.
func (it *Item) Table() string {
	if t := utils.NormalizeToken(it.OTMTable); t != "" {
		return t
	}
	return utils.NormalizeToken(it.ObjectType)
}

// DomainKey is the canonical domain of the item.
func (it *Item) DomainKey() string {
	if d := utils.NormalizeToken(it.DomainName); d != "" {
		return d
	}
	return utils.NormalizeToken(it.Domain)
}

// SQL returns the extraction query text.
func (it *Item) SQL() string {
	if it.ExtractionQuery == nil {
		return ""
	}
	return strings.TrimSpace(it.ExtractionQuery.Content)
}

// LegacySQL reads saved_query.sql from pre-extraction-query documents.
func (it *Item) LegacySQL() string {
	if len(it.SavedQuery) == 0 {
		return ""
	}
	var legacy map[string]interface{}
	if err := json.Unmarshal(it.SavedQuery, &legacy); err != nil {
		return ""
	}
	return strings.TrimSpace(utils.ConvertToString(legacy["sql"]))
}

// IsLogical reports whether the item's object type is a logical type.
func (it *Item) IsLogical() bool {
	return IsLogicalType(it.ObjectType)
}

// Ignored reports the ignore_table flag.
func (it *Item) Ignored() bool {
	return bool(it.IgnoreTable)
}

// Auto reports the auto_generated flag.
func (it *Item) Auto() bool {
	return bool(it.AutoGenerated)
}
