package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegofalves/ominideck/internal/errs"
	"github.com/diegofalves/ominideck/internal/policy"
	"github.com/diegofalves/ominideck/internal/stats"
	"github.com/diegofalves/ominideck/internal/validate"
	"github.com/diegofalves/ominideck/pkg/models"
)

type fixedStats map[string][]string

func (f fixedStats) TableDomainMap() (*stats.TableDomainMap, error) {
	cat := &models.DomainStatisticsCatalog{}
	for table, domains := range f {
		counts := make(map[string]int)
		for _, d := range domains {
			counts[d] = 1
		}
		cat.Tables = append(cat.Tables, models.TableStatistics{TableName: table, ParsedCounts: counts})
	}
	m := stats.NewTableDomainMap(cat)
	sort.Strings(m.Tables)
	return m, nil
}

var testPolicy = policy.FromCatalog(&models.EligibilityCatalog{
	DefaultDeploymentType: models.DeploymentManual,
	Tables: []models.EligibilityRule{
		{TableName: "LOCATION", DeploymentType: models.DeploymentMigrationProject},
	},
})

func newStore(t *testing.T, st DomainSource, content string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "migration_project.json")
	if content != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	n := &Normalizer{Stats: st, Policy: testPolicy}
	return New(path, n, validate.New(st, nil))
}

func decode(t *testing.T, content string) *models.Document {
	t.Helper()
	doc, err := Decode([]byte(content), "test")
	require.NoError(t, err)
	return doc
}

const projectHeader = `"project": {"code": "P1", "name": "Projeto", "version": "1.0",
  "source_environment": "https://otm-dev", "target_environment": "https://otm-prd"}`

func TestSave_SubtableRelocation(t *testing.T) {
	doc := decode(t, `{`+projectHeader+`,
	  "groups": [
	    {"group_id": "G1", "label": "Pedidos", "sequence": 1, "objects": [
	      {"name": "Order Release", "object_type": "ORDER_RELEASE", "domainName": "DOM1",
	       "deployment_type": "MIGRATION_PROJECT", "responsible": "ana",
	       "identifiers": {"ORDER_RELEASE_GID": "DOM1.OR1"},
	       "status": {"documentation": "DONE", "deployment": "IN_PROGRESS"},
	       "object_extraction_query": {"language": "SQL",
	         "content": "SELECT * FROM ORDER_RELEASE orl, ORDER_RELEASE_LINE orll WHERE orl.ORDER_RELEASE_GID = orll.ORDER_RELEASE_GID"},
	       "otm_subtables": ["order_release_line"]}
	    ]},
	    {"group_id": "SEM_GRUPO", "objects": [
	      {"name": "Order Release Line", "object_type": "ORDER_RELEASE_LINE", "domainName": "DOM1",
	       "deployment_type": "CSV", "otm_subtables": ["X"]}
	    ]}
	  ]}`)
	s := newStore(t, nil, "")

	require.NoError(t, s.Save(doc), spew.Sdump(doc))

	g1 := doc.Group("G1")
	require.Len(t, g1.Objects, 2, spew.Sdump(g1))
	principal, child := g1.Objects[0], g1.Objects[1]
	assert.Equal(t, "Order Release Line", child.Name)
	assert.Empty(t, doc.Group(models.GroupUnassigned).Objects)

	assert.Equal(t, "DOM1", child.DomainKey())
	assert.Equal(t, principal.SQL(), child.SQL())
	assert.Equal(t, models.DeploymentMigrationProject, child.DeploymentType)
	assert.Equal(t, principal.Status, child.Status)
	assert.Equal(t, models.StatusDone, child.Status.Documentation)
	assert.Equal(t, "ana", child.Responsible)
	assert.Equal(t, "DOM1.OR1", child.Identifiers["ORDER_RELEASE_GID"])
	assert.Empty(t, child.Subtables)
	assert.Equal(t, "ORDER_RELEASE", child.SubtableParent)
	assert.True(t, bool(child.InheritsFromParent))

	// identifiers are copied, not shared
	principal.Identifiers["ORDER_RELEASE_GID"] = "changed"
	assert.Equal(t, "DOM1.OR1", child.Identifiers["ORDER_RELEASE_GID"])

	loaded, rewritten, err := s.Sync()
	require.NoError(t, err)
	assert.False(t, rewritten)
	assert.Len(t, loaded.Group("G1").Objects, 2)
}

func TestSave_CoverageAutoFill(t *testing.T) {
	st := fixedStats{"LOCATION": {"DOM1", "DOM2"}}
	doc := decode(t, `{`+projectHeader+`,
	  "groups": [
	    {"group_id": "G1", "label": "Cadastros", "sequence": 1, "objects": [
	      {"name": "Locations", "object_type": "LOCATION", "domainName": "DOM1"}
	    ]}
	  ]}`)
	s := newStore(t, st, "")

	require.NoError(t, s.Save(doc))

	var autos []*models.Item
	for _, it := range doc.Group(models.GroupUnassigned).Objects {
		if it.Auto() {
			autos = append(autos, it)
		}
	}
	require.Len(t, autos, 1, spew.Sdump(doc.Groups))
	auto := autos[0]
	assert.Equal(t, "LOCATION (DOM2 - AUTO)", auto.Name)
	assert.Equal(t, "DOM2", auto.DomainName)
	assert.Equal(t, "DOM2", auto.Domain)
	assert.Equal(t, "LOCATION", auto.OTMTable)
	assert.False(t, bool(auto.DeploymentTypeUserDefined))
	assert.Equal(t, models.DeploymentMigrationProject, auto.DeploymentType)
	assert.Equal(t, models.StatusPending, auto.Status.MigrationProject)
	assert.Equal(t, "MIGRATION_ITEM.SEM_GRUPO.LOCATION.LOCATION_DOM2_AUTO.1", auto.ID)

	// saving again adds nothing
	require.NoError(t, s.Save(doc))
	assert.Len(t, doc.Group(models.GroupUnassigned).Objects, 1)
}

func TestNormalize_CoverageRespectsIgnores(t *testing.T) {
	st := fixedStats{"LOCATION": {"DOM1", "DOM2"}, "AUDIT_LOG": {"DOM1"}}
	doc := decode(t, `{`+projectHeader+`,
	  "groups": [
	    {"group_id": "G1", "label": "Cadastros", "sequence": 1, "objects": [
	      {"name": "Locations", "object_type": "LOCATION", "domainName": "DOM1"},
	      {"name": "Loc DOM2", "object_type": "LOCATION", "domainName": "DOM2", "ignore_table": "Y"},
	      {"name": "Audit", "object_type": "AUDIT_LOG", "ignore_table": true}
	    ]}
	  ]}`)
	n := &Normalizer{Stats: st, Policy: testPolicy}
	require.NoError(t, n.Normalize(doc))

	assert.Empty(t, doc.Group(models.GroupUnassigned).Objects, spew.Sdump(doc.Groups))
	assert.Len(t, doc.Group(models.GroupIgnored).Objects, 2)
	assert.Len(t, doc.Group("G1").Objects, 1)
}

func TestSave_SubtableExclusivityViolation(t *testing.T) {
	sql := "SELECT * FROM SHIPMENT s JOIN SHIPMENT_STOP ss ON s.SHIPMENT_GID = ss.SHIPMENT_GID"
	doc := decode(t, `{`+projectHeader+`,
	  "groups": [
	    {"group_id": "G1", "label": "Um", "sequence": 1, "objects": [
	      {"name": "Shipments A", "object_type": "SHIPMENT", "domainName": "DOM1",
	       "object_extraction_query": {"content": "`+sql+`"}, "otm_subtables": ["SHIPMENT_STOP"]}
	    ]},
	    {"group_id": "G2", "label": "Dois", "sequence": 2, "objects": [
	      {"name": "Shipments B", "object_type": "SHIPMENT", "domain": "DOM1",
	       "object_extraction_query": {"content": "`+sql+`"}, "otm_subtables": ["SHIPMENT_STOP"]}
	    ]}
	  ]}`)
	s := newStore(t, nil, "")

	err := s.Save(doc)
	msgs, ok := errs.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)

	var found string
	for _, m := range msgs {
		if strings.Contains(m, "SHIPMENT_STOP") {
			found = m
		}
	}
	require.NotEmpty(t, found, spew.Sdump(msgs))
	assert.Contains(t, found, `"Shipments A" (group G1)`)
	assert.Contains(t, found, `"Shipments B" (group G2)`)

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr), "a rejected save must not write")
}

func TestSave_DenseRenumbering(t *testing.T) {
	item := func(name string) string {
		return `{"name": "` + name + `", "object_type": "LOCATION"}`
	}
	doc := decode(t, `{`+projectHeader+`,
	  "groups": [
	    {"group_id": "A", "label": "A", "sequence": 5, "objects": [`+item("a")+`]},
	    {"group_id": "B", "label": "B", "sequence": 2, "objects": [`+item("b")+`]},
	    {"group_id": "C", "label": "C", "sequence": "9", "objects": [`+item("c")+`]}
	  ]}`)
	s := newStore(t, nil, "")

	require.NoError(t, s.Save(doc))

	var ids []string
	var seqs []int
	for _, g := range doc.Groups {
		ids = append(ids, g.GroupID)
		seqs = append(seqs, int(g.Sequence))
	}
	assert.Equal(t, []string{"SEM_GRUPO", "B", "A", "C", "IGNORADOS"}, ids)
	assert.Equal(t, []int{0, 1, 2, 3, 999}, seqs)
}

func TestNormalize_RenumberingIsStable(t *testing.T) {
	doc := &models.Document{Groups: []*models.Group{
		{GroupID: "X", Sequence: 3},
		{GroupID: "Y", Sequence: 3},
		{GroupID: "Z"},
		{GroupID: "W", Sequence: 1},
	}}
	require.NoError(t, (&Normalizer{}).Normalize(doc))

	var ids []string
	for _, g := range doc.Groups {
		ids = append(ids, g.GroupID)
	}
	assert.Equal(t, []string{"SEM_GRUPO", "W", "X", "Y", "Z", "IGNORADOS"}, ids)
}

const legacyDoc = `{
  "project": {"code": "P1", "version": "1", "source_environment": "a", "target_environment": "b", "custom": 7},
  "project_metadata": {"objective": "migrar", "change_history": [{"when": "ontem"}]},
  "objects": [
    {"name": "Stray", "object_type": "shipment"}
  ],
  "groups": [
    {"group_id": "GROUP_0", "label": "antigo", "objects": [
      {"name": "RATE_GEO (AUTO)", "object_type": "RATE_GEO", "auto_generated": true},
      {"name": "RATE_GEO (D1 - AUTO)", "object_type": "RATE_GEO", "auto_generated": true},
      {"name": "RATE_GEO (D1 - AUTO)", "object_type": "RATE_GEO", "auto_generated": true, "domainName": "D1"}
    ]},
    {"label": "sem id", "objects": [
      {"name": "Orphan", "object_type": "ITEM", "saved_query": {"sql": "SELECT * FROM ITEM i, ITEM_REMARK r WHERE 1=1"}}
    ]},
    {"group_id": "cadastros básicos", "label": "Cadastros", "sequence": 4, "ui_color": "blue", "objects": [
      {"name": "Ignored here", "object_type": "X_TABLE", "ignore_table": "true"},
      {"name": "Loc", "object_type": "location", "otm_table": "wrong", "status": {"documentation": "done"},
       "technical_content": "  notas  ", "sequence": "3", "future_field": {"a": 1}}
    ]},
    {"group_id": "IGNORADOS", "objects": [
      {"name": "Not ignored", "object_type": "Y_TABLE", "ignore_table": false}
    ]},
    {"group_id": "SEM_GRUPO", "objects": [
      {"name": "Saved", "object_type": "saved_query", "otm_table": "", "object_extraction_query": "SELECT 1 FROM DUAL"}
    ]}
  ],
  "active_group_id": "group_0"
}`

func TestNormalize_LegacyRepairs(t *testing.T) {
	st := fixedStats{"RATE_GEO": {"D1", "D2"}, "ITEM": {"SOLO"}}
	doc := decode(t, legacyDoc)
	n := &Normalizer{Stats: st, Policy: testPolicy}
	require.NoError(t, n.Normalize(doc))
	dump := spew.Sdump(doc)

	var ids []string
	for _, g := range doc.Groups {
		ids = append(ids, g.GroupID)
	}
	assert.Equal(t, []string{"SEM_GRUPO", "CADASTROS_BASICOS", "IGNORADOS"}, ids, dump)
	assert.Equal(t, "SEM_GRUPO", doc.ActiveGroupID)
	assert.Nil(t, doc.Objects)

	sem := doc.Group(models.GroupUnassigned)
	assert.Equal(t, models.UnassignedLabel, sem.Label)
	var names []string
	for _, it := range sem.Objects {
		names = append(names, it.Name)
	}
	// generic RATE_GEO (AUTO) dropped once D1 and D2 are covered, the
	// duplicate D1 auto dropped, D2 placeholder appended
	assert.Equal(t, []string{"RATE_GEO (D1 - AUTO)", "Saved", "Orphan", "Stray", "Not ignored", "RATE_GEO (D2 - AUTO)"}, names, dump)

	saved := sem.Objects[1]
	assert.Equal(t, "SAVED_QUERY", saved.ObjectType)
	assert.Equal(t, "", saved.OTMTable)
	assert.Equal(t, "SELECT 1 FROM DUAL", saved.SQL())
	assert.Equal(t, "", saved.Identifiers["SAVED_QUERY_GID"])

	rate := sem.Objects[0]
	assert.Equal(t, "D1", rate.DomainKey(), "domain inferred from the AUTO name")

	orphan := sem.Objects[2]
	assert.Equal(t, "SELECT * FROM ITEM i, ITEM_REMARK r WHERE 1=1", orphan.SQL())
	assert.Equal(t, []string{"ITEM_REMARK"}, orphan.RelatedTables)
	assert.Equal(t, "SOLO", orphan.DomainKey(), "single-domain table fills the domain")

	assert.Equal(t, "SHIPMENT", sem.Objects[3].ObjectType)

	cad := doc.Group("CADASTROS_BASICOS")
	require.Len(t, cad.Objects, 1)
	loc := cad.Objects[0]
	assert.Equal(t, models.Seq(1), cad.Sequence)
	assert.Equal(t, "LOCATION", loc.OTMTable)
	assert.Equal(t, models.StatusDone, loc.Status.Documentation)
	assert.Equal(t, models.StatusPending, loc.Status.Validation)
	assert.Equal(t, models.TechnicalContent{Type: "NONE", Content: "notas"}, loc.TechnicalContent)
	assert.Equal(t, "MIGRATION_ITEM.CADASTROS_BASICOS.LOCATION.LOC.3", loc.ID)

	ign := doc.Group(models.GroupIgnored)
	require.Len(t, ign.Objects, 1)
	assert.Equal(t, "Ignored here", ign.Objects[0].Name)

	out, err := Encode(doc)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, `"ui_color": "blue"`)
	assert.Contains(t, text, `"future_field": {`)
	assert.Contains(t, text, `"custom": 7`)
	assert.Contains(t, text, `"when": "ontem"`)
	assert.NotContains(t, text, "GROUP_0")
}

func TestNormalize_Idempotent(t *testing.T) {
	st := fixedStats{"RATE_GEO": {"D1", "D2"}, "ITEM": {"SOLO"}, "LOCATION": {"DOM1", "DOM2"}}
	doc := decode(t, legacyDoc)
	n := &Normalizer{Stats: st, Policy: testPolicy}

	require.NoError(t, n.Normalize(doc))
	first, err := Canonical(doc)
	require.NoError(t, err)

	// through bytes, as the next load would see it
	encoded, err := Encode(doc)
	require.NoError(t, err)
	again := decode(t, string(encoded))
	require.NoError(t, n.Normalize(again))
	second, err := Canonical(again)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestLoad_RewritesOnlyWhenChanged(t *testing.T) {
	s := newStore(t, nil, legacyDoc)

	doc, rewritten, err := s.Sync()
	require.NoError(t, err)
	assert.True(t, rewritten)
	assert.NotNil(t, doc.Group(models.GroupUnassigned))

	info1, err := os.Stat(s.Path())
	require.NoError(t, err)

	_, rewritten, err = s.Sync()
	require.NoError(t, err)
	assert.False(t, rewritten)

	info2, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}

func TestSave_PlaceholderForDeclaredSubtableIsStable(t *testing.T) {
	st := fixedStats{"ORDER_RELEASE": {"DOM1"}, "ORDER_RELEASE_LINE": {"DOM1"}}
	s := newStore(t, st, "")
	doc := decode(t, `{`+projectHeader+`,
	  "groups": [
	    {"group_id": "G1", "label": "Pedidos", "sequence": 1, "objects": [
	      {"name": "Order Release", "object_type": "ORDER_RELEASE", "domainName": "DOM1",
	       "object_extraction_query": {"language": "SQL",
	         "content": "SELECT * FROM ORDER_RELEASE a, ORDER_RELEASE_LINE b WHERE a.ORDER_RELEASE_GID = b.ORDER_RELEASE_GID"},
	       "otm_subtables": ["ORDER_RELEASE_LINE"]}
	    ]}
	  ]
	}`)

	require.NoError(t, s.Save(doc))

	g1 := doc.Group("G1")
	require.Len(t, g1.Objects, 2)
	child := g1.Objects[1]
	assert.Equal(t, "ORDER_RELEASE_LINE", child.Table())
	assert.Equal(t, "ORDER_RELEASE", child.SubtableParent)
	assert.True(t, bool(child.InheritsFromParent))
	assert.Empty(t, doc.Group(models.GroupUnassigned).Objects)

	again, rewritten, err := s.Sync()
	require.NoError(t, err)
	assert.False(t, rewritten, "the saved document is already canonical")
	assert.Len(t, again.Group("G1").Objects, 2)

	first, err := Canonical(doc)
	require.NoError(t, err)
	second, err := Canonical(again)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestLoad_Errors(t *testing.T) {
	s := newStore(t, nil, "")
	_, err := s.Load()
	assert.True(t, errs.IsNotFound(err))

	bad := newStore(t, nil, "{ not json")
	_, err = bad.Load()
	assert.True(t, errs.IsParse(err))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := fixedStats{"LOCATION": {"DOM1"}}
	doc := decode(t, `{`+projectHeader+`,
	  "groups": [
	    {"group_id": "g1", "label": "Um", "sequence": 1, "objects": [
	      {"name": "Loc", "object_type": "LOCATION", "data": {"LAT": "1.5"},
	       "object_extraction_query": {"content": "SELECT * FROM LOCATION l WHERE l.LAT > 0"}}
	    ]}
	  ]}`)
	s := newStore(t, st, "")
	require.NoError(t, s.Save(doc))

	want, err := Canonical(doc)
	require.NoError(t, err)

	loaded, err := s.Load()
	require.NoError(t, err)
	got, err := Canonical(loaded)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "l.LAT > 0", "SQL is written without HTML escaping")
}

func TestRecordChange(t *testing.T) {
	doc := &models.Document{}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	entry := RecordChange(doc, " ana ", "moved LOCATION", at)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "2026-03-01T15:00:00Z", entry.At)
	assert.Equal(t, "ana", entry.Author)

	require.Len(t, doc.ProjectMetadata.ChangeHistory, 1)
	var stored models.ChangeEntry
	require.NoError(t, json.Unmarshal(doc.ProjectMetadata.ChangeHistory[0], &stored))
	assert.Equal(t, entry, stored)
}

func TestItemIDCollision(t *testing.T) {
	doc := &models.Document{Groups: []*models.Group{{GroupID: "G", Label: "G", Sequence: 1, Objects: []*models.Item{
		{ID: "MIGRATION_ITEM.G.T.A.1"},
		{Name: "a", ObjectType: "T", Sequence: 1},
	}}}}
	require.NoError(t, (&Normalizer{}).Normalize(doc))

	items := doc.Group("G").Objects
	assert.Equal(t, "MIGRATION_ITEM.G.T.A.1", items[0].ID)
	assert.Equal(t, "MIGRATION_ITEM.G.T.A.1_2", items[1].ID)
}
