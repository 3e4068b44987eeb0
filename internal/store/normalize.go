package store

import (
	"github.com/diegofalves/ominideck/internal/stats"
	"github.com/diegofalves/ominideck/pkg/models"
)

// DomainSource supplies the table -> domains map that drives coverage.
type DomainSource interface {
	TableDomainMap() (*stats.TableDomainMap, error)
}

// DeploymentResolver resolves the deployment type of a (table, domain) pair.
// An empty result means no policy applies.
type DeploymentResolver interface {
	DeploymentType(table, domain string) (string, error)
}

// Normalizer runs the normalization pipeline. Both catalogs are optional:
// without Stats coverage is skipped, without Policy auto deployment types
// are left as they are.
type Normalizer struct {
	Stats  DomainSource
	Policy DeploymentResolver
}

// Normalize rewrites doc in place into its canonical shape. It repairs what
// it can and only fails when a catalog cannot be loaded.
func (n *Normalizer) Normalize(doc *models.Document) error {
	tdm, err := n.tableDomainMap()
	if err != nil {
		return err
	}

	// 1-3. Group structure
	normalizeGroups(doc)
	for _, ref := range doc.Items() {
		normalizeItemShape(ref.Item)
	}
	splitIgnored(doc)
	renumberGroups(doc)

	for _, ref := range doc.Items() {
		it := ref.Item
		resolveExtractionQuery(it) // 4
		deriveHierarchy(it)        // 5
		normalizeTechnicalContent(it)
		resolveDomain(it, tdm) // 7
	}

	// 8. Subtables
	relocateSubtables(doc)

	// 9-12. Coverage and autos. New placeholders may be declared subtables.
	fillCoverage(doc, tdm)
	relocateSubtables(doc)
	if err := n.refreshAutoDeployment(doc); err != nil {
		return err
	}
	dedupeAutos(doc)
	dropLegacyGeneric(doc, tdm)

	// 13-14. Identity
	assignItemSequences(doc)
	assignItemIDs(doc)
	resolveActiveGroup(doc)
	return nil
}

func (n *Normalizer) tableDomainMap() (*stats.TableDomainMap, error) {
	if n == nil || n.Stats == nil {
		return stats.NewTableDomainMap(nil), nil
	}
	return n.Stats.TableDomainMap()
}
