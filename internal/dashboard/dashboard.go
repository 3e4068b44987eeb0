// Package dashboard reduces a migration-project document to progress
// figures: per phase, per group, the most pending items and the deployment
// type mix.
package dashboard

import (
	"math"
	"sort"

	"github.com/diegofalves/ominideck/pkg/models"
)

// Phases tracked by the dashboard, in display order.
var Phases = []string{models.PhaseDocumentation, models.PhaseDeployment, models.PhaseMigrationProject}

// MaxCriticalItems caps the critical item list.
const MaxCriticalItems = 20

// UndefinedDeployment labels items without a deployment type.
const UndefinedDeployment = "UNDEFINED"

// PhaseProgress counts the items done in one status phase.
type PhaseProgress struct {
	Done  int     `json:"done"`
	Total int     `json:"total"`
	Pct   float64 `json:"pct"`
}

// GroupProgress is the per-phase completion of one group.
type GroupProgress struct {
	GroupID  string         `json:"group_id"`
	Label    string         `json:"label"`
	Sequence int            `json:"sequence"`
	Items    int            `json:"items"`
	Done     map[string]int `json:"done"`
	Progress float64        `json:"progress"`
}

// CriticalItem is an item with pending phases, ranked by how many remain.
type CriticalItem struct {
	ID                      string   `json:"migration_item_id"`
	Name                    string   `json:"name"`
	Table                   string   `json:"table"`
	Domain                  string   `json:"domain"`
	GroupID                 string   `json:"group_id"`
	GroupLabel              string   `json:"group_label"`
	Sequence                int      `json:"sequence"`
	PendingCount            int      `json:"pending_count"`
	PendingPhases           []string `json:"pending_phases"`
	MigrationProjectPending bool     `json:"migration_project_pending"`
}

// DeploymentShare is the item count and share of one deployment type.
type DeploymentShare struct {
	Type  string  `json:"deployment_type"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// Report is the dashboard of one document.
type Report struct {
	ProjectName     string                   `json:"project_name"`
	ProjectCode     string                   `json:"project_code"`
	TotalGroups     int                      `json:"total_groups"`
	TotalItems      int                      `json:"total_items"`
	IgnoredItems    int                      `json:"ignored_items"`
	Phases          map[string]PhaseProgress `json:"phases"`
	OverallPct      float64                  `json:"overall_pct"`
	Groups          []GroupProgress          `json:"groups"`
	CriticalItems   []CriticalItem           `json:"critical_items"`
	DeploymentTypes []DeploymentShare        `json:"deployment_types"`
}

// Build computes the report. IGNORADOS items only count as ignored;
// SEM_GRUPO is listed among the groups only when it holds items.
func Build(doc *models.Document) *Report {
	r := &Report{
		ProjectName:     doc.Project.Name,
		ProjectCode:     doc.Project.Code,
		Phases:          make(map[string]PhaseProgress, len(Phases)),
		Groups:          []GroupProgress{},
		CriticalItems:   []CriticalItem{},
		DeploymentTypes: []DeploymentShare{},
	}

	done := make(map[string]int, len(Phases))
	deployments := make(map[string]int)
	var critical []CriticalItem

	for _, g := range doc.Groups {
		if g.Kind() == models.GroupKindIgnored {
			r.IgnoredItems += len(g.Objects)
			continue
		}
		if g.Kind() == models.GroupKindUnassigned && len(g.Objects) == 0 {
			continue
		}

		gp := GroupProgress{
			GroupID:  g.GroupID,
			Label:    g.Label,
			Sequence: int(g.Sequence),
			Items:    len(g.Objects),
			Done:     make(map[string]int, len(Phases)),
		}
		for _, it := range g.Objects {
			var pending []string
			for _, phase := range Phases {
				if it.Status.Phase(phase) == models.StatusDone {
					gp.Done[phase]++
					done[phase]++
				} else {
					pending = append(pending, phase)
				}
			}

			dt := it.DeploymentType
			if dt == "" {
				dt = UndefinedDeployment
			}
			deployments[dt]++

			if len(pending) > 0 {
				critical = append(critical, CriticalItem{
					ID:                      it.ID,
					Name:                    it.Name,
					Table:                   it.Table(),
					Domain:                  it.DomainKey(),
					GroupID:                 g.GroupID,
					GroupLabel:              g.Label,
					Sequence:                int(it.Sequence),
					PendingCount:            len(pending),
					PendingPhases:           pending,
					MigrationProjectPending: it.Status.MigrationProject != models.StatusDone,
				})
			}
		}

		var sum float64
		for _, phase := range Phases {
			sum += percent(gp.Done[phase], gp.Items)
		}
		gp.Progress = round1(sum / float64(len(Phases)))

		r.Groups = append(r.Groups, gp)
		r.TotalItems += gp.Items
	}
	r.TotalGroups = len(r.Groups)

	// Phases and overall
	var sum float64
	for _, phase := range Phases {
		p := percent(done[phase], r.TotalItems)
		r.Phases[phase] = PhaseProgress{Done: done[phase], Total: r.TotalItems, Pct: round1(p)}
		sum += p
	}
	r.OverallPct = round1(sum / float64(len(Phases)))

	sort.SliceStable(r.Groups, func(i, j int) bool {
		return 100-r.Groups[i].Progress < 100-r.Groups[j].Progress
	})

	sortCritical(critical)
	if len(critical) > MaxCriticalItems {
		critical = critical[:MaxCriticalItems]
	}
	if critical != nil {
		r.CriticalItems = critical
	}

	for dt, n := range deployments {
		r.DeploymentTypes = append(r.DeploymentTypes, DeploymentShare{Type: dt, Count: n, Pct: round1(percent(n, r.TotalItems))})
	}
	sort.Slice(r.DeploymentTypes, func(i, j int) bool {
		a, b := r.DeploymentTypes[i], r.DeploymentTypes[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Type < b.Type
	})
	return r
}

func sortCritical(items []CriticalItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.PendingCount != b.PendingCount {
			return a.PendingCount > b.PendingCount
		}
		if a.MigrationProjectPending != b.MigrationProjectPending {
			return a.MigrationProjectPending
		}
		if a.GroupLabel != b.GroupLabel {
			return a.GroupLabel < b.GroupLabel
		}
		if a.Sequence != b.Sequence {
			return a.Sequence < b.Sequence
		}
		return a.Name < b.Name
	})
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
