package store

import (
	"fmt"

	"github.com/diegofalves/ominideck/internal/stats"
	"github.com/diegofalves/ominideck/pkg/logger"
	"github.com/diegofalves/ominideck/pkg/models"
)

// AutoDescription is written into every coverage placeholder.
const AutoDescription = "Gerado automaticamente para cobertura de domínio."

// AutoName is the deterministic name of the placeholder for (table, domain).
func AutoName(table, domain string) string {
	return fmt.Sprintf("%s (%s - AUTO)", table, domain)
}

func legacyGenericName(table string) string {
	return table + " (AUTO)"
}

// NewPlaceholder builds the auto-generated item covering (table, domain).
func NewPlaceholder(table, domain string) *models.Item {
	it := &models.Item{
		Name:                      AutoName(table, domain),
		Description:               AutoDescription,
		ObjectType:                table,
		OTMTable:                  table,
		DomainName:                domain,
		Domain:                    domain,
		DeploymentTypeUserDefined: false,
		Identifiers:               map[string]interface{}{},
		Data:                      map[string]interface{}{},
		TechnicalContent:          models.TechnicalContent{Type: models.TechnicalContentNone},
		ExtractionQuery:           &models.ExtractionQuery{Language: models.QueryLanguageSQL},
		RelatedTables:             []string{},
		Subtables:                 []string{},
		AutoGenerated:             true,
	}
	for _, phase := range models.StatusPhases {
		it.Status.SetPhase(phase, models.StatusPending)
	}
	for _, key := range models.LogicalTypeIdentifiers[table] {
		it.Identifiers[key] = ""
	}
	return it
}

// fillCoverage appends a placeholder to SEM_GRUPO for every (table, domain)
// in the statistics that no non-ignored item covers. An empty map disables
// it.
func fillCoverage(doc *models.Document, tdm *stats.TableDomainMap) {
	if tdm.Empty() {
		return
	}
	covered := stats.ObjectDomainMap(doc.Groups)
	ignored := stats.IgnoredCoverage(doc.Groups)
	unassigned := doc.Group(models.GroupUnassigned)

	added := 0
	for _, table := range tdm.Tables {
		for _, domain := range tdm.Domains[table] {
			if covered[table][domain] || ignored.Skips(table, domain) {
				continue
			}
			unassigned.Objects = append(unassigned.Objects, NewPlaceholder(table, domain))
			added++
		}
	}
	if added > 0 {
		logger.Infow("added coverage placeholders", "count", added, "group", models.GroupUnassigned)
	}
}

// refreshAutoDeployment recomputes the deployment type of auto items the
// user has not pinned. Items inheriting from a principal keep its type.
func (n *Normalizer) refreshAutoDeployment(doc *models.Document) error {
	if n == nil || n.Policy == nil {
		return nil
	}
	for _, ref := range doc.Items() {
		it := ref.Item
		if !it.Auto() || bool(it.DeploymentTypeUserDefined) || bool(it.InheritsFromParent) {
			continue
		}
		dt, err := n.Policy.DeploymentType(it.Table(), it.DomainKey())
		if err != nil {
			return err
		}
		if dt != "" {
			it.DeploymentType = dt
		}
	}
	return nil
}

// dedupeAutos keeps the first auto item per (table, domain) in SEM_GRUPO.
func dedupeAutos(doc *models.Document) {
	g := doc.Group(models.GroupUnassigned)
	seen := make(map[string]bool)
	kept := g.Objects[:0]
	for _, it := range g.Objects {
		if it.Auto() {
			key := it.Table() + "|" + it.DomainKey()
			if seen[key] {
				logger.Debugf("Dropping duplicate auto item %q", it.Name)
				continue
			}
			seen[key] = true
		}
		kept = append(kept, it)
	}
	g.Objects = kept
}

// dropLegacyGeneric removes "<TABLE> (AUTO)" items once every domain of a
// multi-domain table is covered.
func dropLegacyGeneric(doc *models.Document, tdm *stats.TableDomainMap) {
	if tdm.Empty() {
		return
	}
	covered := stats.ObjectDomainMap(doc.Groups)
	fullyCovered := func(table string) bool {
		domains := tdm.DomainsOf(table)
		if len(domains) < 2 {
			return false
		}
		for _, d := range domains {
			if !covered[table][d] {
				return false
			}
		}
		return true
	}

	g := doc.Group(models.GroupUnassigned)
	kept := g.Objects[:0]
	for _, it := range g.Objects {
		if it.Auto() && it.DomainKey() == "" && it.Name == legacyGenericName(it.Table()) && fullyCovered(it.Table()) {
			logger.Debugf("Dropping legacy generic auto item %q", it.Name)
			continue
		}
		kept = append(kept, it)
	}
	g.Objects = kept
}
