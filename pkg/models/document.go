// Package models defines the canonical migration-project document and the
// catalog files that feed its normalization.
package models

import "encoding/json"

// Reserved group ids. Every normalized document holds each exactly once.
const (
	GroupUnassigned = "SEM_GRUPO"
	GroupIgnored    = "IGNORADOS"

	// LegacyGroupUnassigned is merged into SEM_GRUPO and never written back.
	LegacyGroupUnassigned = "GROUP_0"

	UnassignedSequence = 0
	IgnoredSequence    = 999
)

// Canonical labels and descriptions of the reserved groups.
const (
	UnassignedLabel       = "Sem Grupo"
	UnassignedDescription = "Itens ainda não atribuídos a um grupo manual ou adicionados automaticamente para cobertura de domínios."
	IgnoredLabel          = "Ignorados"
	IgnoredDescription    = "Itens marcados com ignore_table."
)

// GroupKind tags a group as one of the two reserved sentinels or a manual group.
type GroupKind int

const (
	GroupKindManual GroupKind = iota
	GroupKindUnassigned
	GroupKindIgnored
)

func (k GroupKind) String() string {
	switch k {
	case GroupKindUnassigned:
		return "unassigned"
	case GroupKindIgnored:
		return "ignored"
	default:
		return "manual"
	}
}

// Document is the whole migration-project file.
type Document struct {
	Project         Project         `json:"project"`
	ProjectMetadata ProjectMetadata `json:"project_metadata"`
	Groups          []*Group        `json:"groups"`
	ActiveGroupID   string          `json:"active_group_id"`
	State           json.RawMessage `json:"state,omitempty"`

	// Objects holds stray top-level items from older files. Normalization
	// moves them into SEM_GRUPO and leaves it empty.
	Objects []*Item `json:"objects,omitempty"`

	Extra Extra `json:"-"`
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	extra, err := decodeWithExtra(data, (*plain)(d))
	if err != nil {
		return err
	}
	d.Extra = extra
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	return encodeWithExtra(plain(d), d.Extra)
}

// Group returns the group with the given (normalized) id, or nil.
func (d *Document) Group(groupID string) *Group {
	for _, g := range d.Groups {
		if g.GroupID == groupID {
			return g
		}
	}
	return nil
}

// ItemRef locates an item inside the document.
type ItemRef struct {
	Group *Group
	Index int
	Item  *Item
}

// Items walks every item in group order.
func (d *Document) Items() []ItemRef {
	var refs []ItemRef
	for _, g := range d.Groups {
		for i, it := range g.Objects {
			refs = append(refs, ItemRef{Group: g, Index: i, Item: it})
		}
	}
	return refs
}

// Project carries the identity of the migration project.
type Project struct {
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Version           string          `json:"version"`
	Consultant        string          `json:"consultant"`
	SourceEnvironment string          `json:"source_environment"`
	TargetEnvironment string          `json:"target_environment"`
	State             json.RawMessage `json:"state,omitempty"`

	Extra Extra `json:"-"`
}

func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	extra, err := decodeWithExtra(data, (*plain)(p))
	if err != nil {
		return err
	}
	p.Extra = extra
	return nil
}

func (p Project) MarshalJSON() ([]byte, error) {
	type plain Project
	return encodeWithExtra(plain(p), p.Extra)
}

// ProjectMetadata holds free-form narrative data. Change history entries are
// kept raw so legacy entry shapes are preserved.
type ProjectMetadata struct {
	Objective      json.RawMessage   `json:"objective,omitempty"`
	VersionControl json.RawMessage   `json:"version_control,omitempty"`
	ChangeHistory  []json.RawMessage `json:"change_history,omitempty"`

	Extra Extra `json:"-"`
}

func (m *ProjectMetadata) UnmarshalJSON(data []byte) error {
	type plain ProjectMetadata
	extra, err := decodeWithExtra(data, (*plain)(m))
	if err != nil {
		return err
	}
	m.Extra = extra
	return nil
}

func (m ProjectMetadata) MarshalJSON() ([]byte, error) {
	type plain ProjectMetadata
	return encodeWithExtra(plain(m), m.Extra)
}

// ChangeEntry is the shape of change-history entries this tool appends.
type ChangeEntry struct {
	ID      string `json:"id"`
	At      string `json:"at"`
	Author  string `json:"author"`
	Summary string `json:"summary"`
}

// Group is an ordered bucket of migration items.
type Group struct {
	GroupID     string  `json:"group_id"`
	Label       string  `json:"label"`
	Sequence    Seq     `json:"sequence"`
	Description string  `json:"description"`
	Objects     []*Item `json:"objects"`

	Extra Extra `json:"-"`
}

func (g *Group) UnmarshalJSON(data []byte) error {
	type plain Group
	extra, err := decodeWithExtra(data, (*plain)(g))
	if err != nil {
		return err
	}
	g.Extra = extra
	return nil
}

func (g Group) MarshalJSON() ([]byte, error) {
	type plain Group
	return encodeWithExtra(plain(g), g.Extra)
}

// Kind classifies the group by its id.
func (g *Group) Kind() GroupKind {
	switch g.GroupID {
	case GroupUnassigned:
		return GroupKindUnassigned
	case GroupIgnored:
		return GroupKindIgnored
	default:
		return GroupKindManual
	}
}

// IsManual reports whether the group is user-defined.
func (g *Group) IsManual() bool {
	return g.Kind() == GroupKindManual
}
