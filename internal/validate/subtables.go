package validate

import (
	"fmt"

	"github.com/diegofalves/ominideck/internal/errs"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

type conflict struct {
	items   []*models.Item
	message string
}

func (c conflict) involves(it *models.Item) bool {
	for _, x := range c.items {
		if x == it {
			return true
		}
	}
	return false
}

// subtableConflicts finds, across the whole document: self-subtables,
// subtables owned twice within overlapping domains, and items that are both
// a parent and another item's subtable. Ignored items take no part.
func subtableConflicts(refs []models.ItemRef) []conflict {
	var active []models.ItemRef
	for _, ref := range refs {
		if !ref.Item.Ignored() {
			active = append(active, ref)
		}
	}

	var out []conflict
	for _, ref := range active {
		for _, sub := range ref.Item.Subtables {
			if utils.NormalizeToken(sub) == ref.Item.Table() {
				out = append(out, conflict{
					items:   []*models.Item{ref.Item},
					message: fmt.Sprintf("%s lists its own table %s as a subtable", describe(ref), ref.Item.Table()),
				})
			}
		}
	}

	for i, a := range active {
		for _, b := range active[i+1:] {
			if !models.DomainsOverlap(a.Item.DomainKey(), b.Item.DomainKey()) {
				continue
			}
			for _, sub := range a.Item.Subtables {
				if utils.ContainsToken(b.Item.Subtables, sub) {
					out = append(out, conflict{
						items: []*models.Item{a.Item, b.Item},
						message: fmt.Sprintf("subtable %s is claimed by both %s and %s in overlapping domains",
							utils.NormalizeToken(sub), describe(a), describe(b)),
					})
				}
			}
		}
	}

	for _, child := range active {
		if len(child.Item.Subtables) == 0 {
			continue
		}
		for _, parent := range active {
			if parent.Item == child.Item || !models.DomainsOverlap(parent.Item.DomainKey(), child.Item.DomainKey()) {
				continue
			}
			if utils.ContainsToken(parent.Item.Subtables, child.Item.Table()) {
				out = append(out, conflict{
					items: []*models.Item{child.Item, parent.Item},
					message: fmt.Sprintf("%s declares subtables but is itself a subtable of %s",
						describe(child), describe(parent)),
				})
			}
		}
	}
	return out
}

// SubtableConstraintsForObject runs the subtable checks for the item at
// index of group against the rest of the document, reporting only conflicts
// that involve that item.
func SubtableConstraintsForObject(doc *models.Document, groupID string, index int) error {
	g := doc.Group(utils.NormalizeToken(groupID))
	if g == nil {
		return errs.NotFound("group", groupID)
	}
	if index < 0 || index >= len(g.Objects) {
		return errs.NotFound("item", fmt.Sprintf("%s[%d]", g.GroupID, index))
	}
	target := g.Objects[index]

	var msgs []string
	for _, c := range subtableConflicts(doc.Items()) {
		if c.involves(target) {
			msgs = append(msgs, c.message)
		}
	}
	return errs.Validation(msgs)
}
