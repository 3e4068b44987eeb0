package dashboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diegofalves/ominideck/pkg/models"
)

func status(doc, deploy, mp string) models.Status {
	return models.Status{Documentation: doc, Deployment: deploy, MigrationProject: mp,
		Export: models.StatusPending, Validation: models.StatusPending}
}

func TestBuild_PhaseMath(t *testing.T) {
	const done, pending = models.StatusDone, models.StatusPending
	var items []*models.Item
	for i := 0; i < 10; i++ {
		st := status(pending, pending, pending)
		if i < 4 {
			st.Documentation = done
		}
		if i < 2 {
			st.Deployment = done
		}
		if i < 1 {
			st.MigrationProject = done
		}
		items = append(items, &models.Item{Name: fmt.Sprintf("item %d", i), ObjectType: "T", Sequence: models.Seq(i + 1), Status: st})
	}
	doc := &models.Document{
		Project: models.Project{Name: "Projeto", Code: "P1"},
		Groups: []*models.Group{
			{GroupID: models.GroupUnassigned},
			{GroupID: "G1", Label: "Um", Sequence: 1, Objects: items},
			{GroupID: models.GroupIgnored, Objects: []*models.Item{{Name: "ign", Status: status(done, done, done)}}},
		},
	}

	r := Build(doc)
	assert.Equal(t, "Projeto", r.ProjectName)
	assert.Equal(t, 10, r.TotalItems)
	assert.Equal(t, 1, r.IgnoredItems)
	assert.Equal(t, 1, r.TotalGroups)
	assert.Equal(t, PhaseProgress{Done: 4, Total: 10, Pct: 40.0}, r.Phases[models.PhaseDocumentation])
	assert.Equal(t, PhaseProgress{Done: 2, Total: 10, Pct: 20.0}, r.Phases[models.PhaseDeployment])
	assert.Equal(t, PhaseProgress{Done: 1, Total: 10, Pct: 10.0}, r.Phases[models.PhaseMigrationProject])
	assert.Equal(t, 23.3, r.OverallPct)

	require.Len(t, r.Groups, 1)
	assert.Equal(t, 23.3, r.Groups[0].Progress)
	assert.Equal(t, 4, r.Groups[0].Done[models.PhaseDocumentation])

	// 9 items have a pending phase; items 4..9 have all three pending
	require.Len(t, r.CriticalItems, 9)
	assert.Equal(t, 3, r.CriticalItems[0].PendingCount)
	assert.Equal(t, "item 4", r.CriticalItems[0].Name)
	last := r.CriticalItems[len(r.CriticalItems)-1]
	assert.Equal(t, "item 1", last.Name)
	assert.Equal(t, []string{models.PhaseMigrationProject}, last.PendingPhases)

	require.Len(t, r.DeploymentTypes, 1)
	assert.Equal(t, DeploymentShare{Type: UndefinedDeployment, Count: 10, Pct: 100}, r.DeploymentTypes[0])
}

func TestBuild_EmptyDocument(t *testing.T) {
	r := Build(&models.Document{})
	assert.Equal(t, 0.0, r.OverallPct)
	assert.Equal(t, 0, r.TotalItems)
	assert.Empty(t, r.Groups)
	assert.Empty(t, r.CriticalItems)
	assert.Equal(t, 0.0, r.Phases[models.PhaseDeployment].Pct)
}

func TestBuild_GroupOrderAndCriticalOrder(t *testing.T) {
	const done, pending = models.StatusDone, models.StatusPending
	doc := &models.Document{Groups: []*models.Group{
		{GroupID: models.GroupUnassigned, Label: "Sem Grupo", Objects: []*models.Item{
			{Name: "auto", DeploymentType: "MANUAL", Status: status(pending, done, pending)},
		}},
		{GroupID: "A", Label: "Alpha", Sequence: 1, Objects: []*models.Item{
			{Name: "a1", Sequence: 1, DeploymentType: "CSV", Status: status(done, done, done)},
		}},
		{GroupID: "B", Label: "Beta", Sequence: 2, Objects: []*models.Item{
			{Name: "b2", Sequence: 2, DeploymentType: "CSV", Status: status(done, pending, done)},
			{Name: "b1", Sequence: 1, DeploymentType: "CSV", Status: status(pending, done, done)},
		}},
	}}

	r := Build(doc)

	var order []string
	for _, g := range r.Groups {
		order = append(order, g.GroupID)
	}
	assert.Equal(t, []string{"A", "B", "SEM_GRUPO"}, order)
	assert.Equal(t, 100.0, r.Groups[0].Progress)
	assert.Equal(t, 66.7, r.Groups[1].Progress)

	var critical []string
	for _, c := range r.CriticalItems {
		critical = append(critical, c.Name)
	}
	// auto has two pending phases; b1/b2 one each, ordered by sequence
	assert.Equal(t, []string{"auto", "b1", "b2"}, critical)

	assert.Equal(t, []DeploymentShare{
		{Type: "CSV", Count: 3, Pct: 75},
		{Type: "MANUAL", Count: 1, Pct: 25},
	}, r.DeploymentTypes)
}
