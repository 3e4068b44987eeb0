package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegofalves/ominideck/internal/store"
)

const testProject = `{
  "project": {"code": "P1", "name": "Projeto", "version": "1",
    "source_environment": "dev", "target_environment": "prd"},
  "groups": [
    {"group_id": "G1", "label": "Locais", "sequence": 1, "objects": [
      {"name": "Locations", "object_type": "LOCATION", "domainName": "DOM1", "sequence": 1,
       "status": {"documentation": "DONE"}},
      {"name": "Shipments", "object_type": "SHIPMENT", "sequence": 2}
    ]}
  ]
}`

type workspace struct {
	dir         string
	projectFile string
	statsFile   string
}

func setup(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:         dir,
		projectFile: filepath.Join(dir, "data", "migration_project.json"),
		statsFile:   filepath.Join(dir, "domain_table_statistics.json"),
	}
	schemaDir := filepath.Join(dir, "tables")
	eligibility := filepath.Join(dir, "eligibility.json")

	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write(ws.projectFile, testProject)
	write(ws.statsFile, `{"metadataType": "OTM_DOMAIN_TABLE_STATISTICS",
	  "tables": [{"tableName": "LOCATION", "parsedCounts": {"DOM1": 3, "DOM2": 1}}]}`)
	write(eligibility, `{"metadataType": "OTM_MIGRATION_PROJECT_ELIGIBILITY", "defaultDeploymentType": "MANUAL",
	  "tables": [{"tableName": "LOCATION", "deploymentType": "MIGRATION_PROJECT"}]}`)
	write(filepath.Join(schemaDir, "LOCATION.json"), `{"table": {"name": "LOCATION"},
	  "columns": [{"name": "LOCATION_GID", "dataType": "VARCHAR2", "nullable": "N"},
	              {"name": "LAT", "dataType": "NUMBER", "nullable": "Y"}],
	  "primaryKey": ["LOCATION_GID"], "foreignKeys": []}`)

	t.Setenv("OMINIDECK_CONFIG", "")
	t.Setenv("OMINIDECK_PROJECT_FILE", ws.projectFile)
	t.Setenv("OMINIDECK_SCHEMA_DIR", schemaDir)
	t.Setenv("OMINIDECK_ELIGIBILITY_FILE", eligibility)
	t.Setenv("OMINIDECK_DOMAIN_STATS_FILE", ws.statsFile)
	t.Setenv("OMINIDECK_AUTHOR", "tester")
	t.Setenv("SQL_CONNECTION_STRING", "")
	t.Setenv("MONGO_CONNECTION_STRING", "")
	return ws
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func readProject(t *testing.T, ws *workspace) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(ws.projectFile)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestNormalize(t *testing.T) {
	ws := setup(t)

	out, err := run(t, "", "normalize")
	require.NoError(t, err)
	assert.Contains(t, out, "(3 groups, 3 items)")

	out, err = run(t, "", "normalize")
	require.NoError(t, err)
	assert.Contains(t, out, "is already canonical")

	groups := readProject(t, ws)["groups"].([]interface{})
	sem := groups[0].(map[string]interface{})
	assert.Equal(t, "SEM_GRUPO", sem["group_id"])
	auto := sem["objects"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "LOCATION (DOM2 - AUTO)", auto["name"])
	assert.Equal(t, "MIGRATION_PROJECT", auto["deployment_type"])
}

func TestValidate(t *testing.T) {
	ws := setup(t)

	out, err := run(t, "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migration project is valid.")

	broken := strings.Replace(testProject, `"code": "P1", `, "", 1)
	require.NoError(t, os.WriteFile(ws.projectFile, []byte(broken), 0o644))

	out, err = run(t, "", "validate")
	require.Error(t, err)
	assert.Contains(t, out, " - project code is required")

	// validate never writes
	data, err := os.ReadFile(ws.projectFile)
	require.NoError(t, err)
	assert.Equal(t, broken, string(data))
}

func TestDashboard(t *testing.T) {
	setup(t)

	out, err := run(t, "", "dashboard", "--json")
	require.NoError(t, err)
	var rep map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.EqualValues(t, 3, rep["total_items"])
	assert.EqualValues(t, 11.1, rep["overall_pct"])

	out, err = run(t, "", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Projeto (P1)")
	assert.Contains(t, out, "Overall: 11.1%")
}

func TestSQLTables(t *testing.T) {
	setup(t)

	out, err := run(t, "SELECT * FROM shipment s, shipment_stop ss", "sql-tables", "-")
	require.NoError(t, err)
	assert.Equal(t, "SHIPMENT\nSHIPMENT_STOP\n", out)

	out, err = run(t, "", "sql-tables", "select 1 from dual")
	require.NoError(t, err)
	assert.Equal(t, "DUAL\n", out)
}

func TestTablesAndFields(t *testing.T) {
	setup(t)

	out, err := run(t, "", "tables")
	require.NoError(t, err)
	assert.Equal(t, "LOCATION\n", out)

	out, err = run(t, "", "fields", "location")
	require.NoError(t, err)
	assert.Contains(t, out, "LOCATION_GID")
	assert.Contains(t, out, "number")

	_, err = run(t, "", "fields", "NOPE")
	assert.Error(t, err)
}

func TestItemIgnore(t *testing.T) {
	ws := setup(t)

	out, err := run(t, "", "item", "ignore", "--group", "g1", "--index", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Item "Shipments" is now IGNORADOS[0].`)

	doc, err := store.Decode(mustRead(t, ws.projectFile), ws.projectFile)
	require.NoError(t, err)
	require.Len(t, doc.ProjectMetadata.ChangeHistory, 1)
	var entry map[string]string
	require.NoError(t, json.Unmarshal(doc.ProjectMetadata.ChangeHistory[0], &entry))
	assert.Equal(t, "tester", entry["author"])
	assert.Equal(t, `item "Shipments" ignored`, entry["summary"])

	out, err = run(t, "", "item", "ignore", "--group", "IGNORADOS", "--index", "0", "--undo")
	require.NoError(t, err)
	assert.Contains(t, out, `Item "Shipments" is now SEM_GRUPO[`)

	_, err = run(t, "", "item", "ignore", "--group", "G1", "--index", "7")
	assert.Error(t, err)
}

func TestStatsCollect(t *testing.T) {
	ws := setup(t)

	dbPath := filepath.Join(ws.dir, "staging.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE LOCATION (LOCATION_GID TEXT, DOMAIN_NAME TEXT);
	  INSERT INTO LOCATION VALUES ('A', 'DOM1'), ('B', 'DOM1'), ('C', 'DOM3');`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = run(t, "", "stats", "collect")
	assert.EqualError(t, err, "SQL_CONNECTION_STRING environment variable not set")

	t.Setenv("OMINIDECK_SQL_DRIVER", "sqlite3")
	t.Setenv("SQL_CONNECTION_STRING", dbPath)
	out, err := run(t, "", "stats", "collect", "--tables", "location")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote statistics for 1 of 1 tables")

	var cat map[string]interface{}
	require.NoError(t, json.Unmarshal(mustRead(t, ws.statsFile), &cat))
	table := cat["tables"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "LOCATION", table["tableName"])
	assert.Equal(t, map[string]interface{}{"DOM1": 2.0, "DOM3": 1.0}, table["parsedCounts"])
}

func TestPublish(t *testing.T) {
	setup(t)

	out, err := run(t, "", "publish", "--dry-run", "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "[DRY RUN] 3 items ready to publish.")

	_, err = run(t, "", "publish")
	assert.EqualError(t, err, "MONGO_CONNECTION_STRING environment variable not set")
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
