package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemKeepsUnknownMembers(t *testing.T) {
	raw := `{"name":"Orders","object_type":"ORDER_RELEASE","custom_flag":{"a":1},"ZZ":"last"}`

	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	assert.Equal(t, "Orders", it.Name)
	require.Len(t, it.Extra, 2)

	out, err := json.Marshal(it)
	require.NoError(t, err)

	var back map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, back["custom_flag"])
	assert.Equal(t, "last", back["ZZ"])
	assert.Equal(t, "ORDER_RELEASE", back["object_type"])
}

func TestKnownKeysMatchCaseInsensitively(t *testing.T) {
	var it Item
	require.NoError(t, json.Unmarshal([]byte(`{"Name":"x"}`), &it))
	assert.Equal(t, "x", it.Name)
	assert.Empty(t, it.Extra)
}

func TestLenientScalars(t *testing.T) {
	raw := `{"ignore_table":"Y","auto_generated":1,"deployment_type_user_defined":"false","sequence":"7"}`

	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	assert.True(t, it.Ignored())
	assert.True(t, it.Auto())
	assert.False(t, bool(it.DeploymentTypeUserDefined))
	assert.Equal(t, Seq(7), it.Sequence)
}

func TestTechnicalContentAcceptsBareString(t *testing.T) {
	var it Item
	require.NoError(t, json.Unmarshal([]byte(`{"technical_content":"  select 1  "}`), &it))
	assert.Equal(t, "", it.TechnicalContent.Type)
	assert.Equal(t, "  select 1  ", it.TechnicalContent.Content)
}

func TestLegacySQL(t *testing.T) {
	var it Item
	require.NoError(t, json.Unmarshal([]byte(`{"saved_query":{"sql":" SELECT 1 FROM DUAL "}}`), &it))
	assert.Equal(t, "SELECT 1 FROM DUAL", it.LegacySQL())
	assert.Equal(t, "", it.SQL())
}

func TestItemTableAndDomain(t *testing.T) {
	it := &Item{ObjectType: "saved_query", Domain: "dom1"}
	assert.Equal(t, "SAVED_QUERY", it.Table())
	assert.Equal(t, "DOM1", it.DomainKey())
	assert.True(t, it.IsLogical())

	it.OTMTable = "location"
	assert.Equal(t, "LOCATION", it.Table())
}

func TestDomainsOverlap(t *testing.T) {
	assert.True(t, DomainsOverlap("DOM1", "dom1"))
	assert.True(t, DomainsOverlap("", "DOM2"))
	assert.False(t, DomainsOverlap("DOM1", "DOM2"))
}

func TestGroupKind(t *testing.T) {
	assert.Equal(t, GroupKindUnassigned, (&Group{GroupID: GroupUnassigned}).Kind())
	assert.Equal(t, GroupKindIgnored, (&Group{GroupID: GroupIgnored}).Kind())
	assert.True(t, (&Group{GroupID: "G1"}).IsManual())
}

func TestStatusPhaseAccess(t *testing.T) {
	var s Status
	s.SetPhase(PhaseMigrationProject, StatusDone)
	s.SetPhase("unknown", StatusDone)
	assert.Equal(t, StatusDone, s.MigrationProject)
	assert.Equal(t, StatusDone, s.Phase(PhaseMigrationProject))
	assert.Equal(t, "", s.Phase("unknown"))
}
