package store

import (
	"github.com/diegofalves/ominideck/pkg/logger"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

// Inherit copies the principal's shared attributes into a subtable item.
// Notes and technical content only flow when the child was generated or
// has none of its own.
func Inherit(child, principal *models.Item) {
	fillSoft := child.Auto()

	domain := principal.DomainKey()
	child.DomainName = domain
	child.Domain = domain

	if principal.ExtractionQuery != nil {
		q := *principal.ExtractionQuery
		child.ExtractionQuery = &q
	} else {
		child.ExtractionQuery = nil
	}
	child.DeploymentType = principal.DeploymentType
	child.DeploymentTypeUserDefined = principal.DeploymentTypeUserDefined
	child.Responsible = principal.Responsible
	child.Identifiers = utils.CopyMap(principal.Identifiers)
	child.RelatedTables = append([]string{}, principal.RelatedTables...)
	child.Status = principal.Status
	child.Subtables = []string{}

	if fillSoft || child.Notes == "" {
		child.Notes = principal.Notes
	}
	if fillSoft || child.TechnicalContent.Content == "" {
		child.TechnicalContent = principal.TechnicalContent
	}

	child.SubtableParent = principal.Table()
	child.InheritsFromParent = true
}

// relocateSubtables moves, for every subtable a manual item declares, the
// first matching candidate waiting in SEM_GRUPO into the principal's group,
// right after the principal. Children already placed keep following their
// principal.
func relocateSubtables(doc *models.Document) {
	unassigned := doc.Group(models.GroupUnassigned)

	for _, g := range doc.Groups {
		if !g.IsManual() {
			continue
		}
		for i := 0; i < len(g.Objects); i++ {
			principal := g.Objects[i]
			if len(principal.Subtables) == 0 {
				continue
			}
			insertAt := i + 1
			for _, sub := range principal.Subtables {
				if child := findChild(g, principal, sub); child != nil {
					Inherit(child, principal)
					continue
				}
				idx := findCandidate(unassigned, sub, principal.DomainKey())
				if idx < 0 {
					continue
				}
				child := unassigned.Objects[idx]
				unassigned.Objects = append(unassigned.Objects[:idx], unassigned.Objects[idx+1:]...)

				Inherit(child, principal)
				g.Objects = insertItem(g.Objects, insertAt, child)
				insertAt++
				logger.Infow("relocated subtable item", "item", child.Name, "table", sub, "group", g.GroupID, "principal", principal.Name)
			}
		}
	}
}

// findChild returns the item of g already inheriting sub from principal.
func findChild(g *models.Group, principal *models.Item, sub string) *models.Item {
	for _, it := range g.Objects {
		if it == principal || !bool(it.InheritsFromParent) {
			continue
		}
		if it.Table() == sub && it.SubtableParent == principal.Table() && models.DomainsOverlap(it.DomainKey(), principal.DomainKey()) {
			return it
		}
	}
	return nil
}

// findCandidate prefers an exact domain match over an overlapping one.
func findCandidate(g *models.Group, table, domain string) int {
	overlap := -1
	for i, it := range g.Objects {
		if it.Table() != table {
			continue
		}
		if it.DomainKey() == domain {
			return i
		}
		if overlap < 0 && models.DomainsOverlap(it.DomainKey(), domain) {
			overlap = i
		}
	}
	return overlap
}

func insertItem(items []*models.Item, at int, it *models.Item) []*models.Item {
	items = append(items, nil)
	copy(items[at+1:], items[at:])
	items[at] = it
	return items
}
