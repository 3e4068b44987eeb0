package store

import (
	"sort"

	"github.com/diegofalves/ominideck/pkg/logger"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

// canonicalGroupID maps a stored id to its normalized form. GROUP_0 is the
// legacy name of SEM_GRUPO.
func canonicalGroupID(id string) string {
	slug := utils.Slug(id)
	if slug == models.LegacyGroupUnassigned {
		return models.GroupUnassigned
	}
	return slug
}

// normalizeGroups enforces one group per id, the two reserved groups, and
// folds id-less groups and stray objects into SEM_GRUPO.
func normalizeGroups(doc *models.Document) {
	var (
		ordered  []*models.Group
		byID     = make(map[string]*models.Group)
		orphaned []*models.Item
	)

	for _, g := range doc.Groups {
		if g == nil {
			continue
		}
		id := canonicalGroupID(g.GroupID)
		if id == "" {
			logger.Debugf("Dissolving group without id (%q) into %s", g.Label, models.GroupUnassigned)
			orphaned = append(orphaned, g.Objects...)
			continue
		}
		if existing, ok := byID[id]; ok {
			logger.Debugf("Merging duplicate group %s", id)
			existing.Objects = append(existing.Objects, g.Objects...)
			continue
		}
		g.GroupID = id
		byID[id] = g
		ordered = append(ordered, g)
	}

	unassigned := byID[models.GroupUnassigned]
	if unassigned == nil {
		unassigned = &models.Group{GroupID: models.GroupUnassigned}
		ordered = append(ordered, unassigned)
	}
	if byID[models.GroupIgnored] == nil {
		ordered = append(ordered, &models.Group{GroupID: models.GroupIgnored})
	}

	unassigned.Objects = append(unassigned.Objects, orphaned...)
	if len(doc.Objects) > 0 {
		logger.Debugf("Moving %d top-level objects into %s", len(doc.Objects), models.GroupUnassigned)
		unassigned.Objects = append(unassigned.Objects, doc.Objects...)
		doc.Objects = nil
	}

	for _, g := range ordered {
		g.Objects = compactItems(g.Objects)
		switch g.Kind() {
		case models.GroupKindUnassigned:
			g.Label = models.UnassignedLabel
			g.Description = models.UnassignedDescription
			g.Sequence = models.UnassignedSequence
		case models.GroupKindIgnored:
			g.Label = models.IgnoredLabel
			g.Description = models.IgnoredDescription
			g.Sequence = models.IgnoredSequence
		}
	}
	doc.Groups = ordered
}

func compactItems(items []*models.Item) []*models.Item {
	out := make([]*models.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

// splitIgnored moves ignored items into IGNORADOS and everything else out
// of it.
func splitIgnored(doc *models.Document) {
	unassigned := doc.Group(models.GroupUnassigned)
	ignored := doc.Group(models.GroupIgnored)

	var back []*models.Item
	keep := ignored.Objects[:0]
	for _, it := range ignored.Objects {
		if it.Ignored() {
			keep = append(keep, it)
		} else {
			back = append(back, it)
		}
	}
	ignored.Objects = keep

	for _, g := range doc.Groups {
		if g == ignored {
			continue
		}
		rest := g.Objects[:0]
		for _, it := range g.Objects {
			if it.Ignored() {
				logger.Debugf("Moving ignored item %q from %s to %s", it.Name, g.GroupID, models.GroupIgnored)
				ignored.Objects = append(ignored.Objects, it)
				continue
			}
			rest = append(rest, it)
		}
		g.Objects = rest
	}

	if len(back) > 0 {
		logger.Debugf("Moving %d non-ignored items back to %s", len(back), models.GroupUnassigned)
		unassigned.Objects = append(unassigned.Objects, back...)
	}
}

// renumberGroups orders groups as SEM_GRUPO, manual groups by stored
// sequence, IGNORADOS, and renumbers manual groups 1..N. Manual groups with
// no positive sequence keep their relative order after the numbered ones.
func renumberGroups(doc *models.Document) {
	var manual []*models.Group
	for _, g := range doc.Groups {
		if g.IsManual() {
			manual = append(manual, g)
		}
	}
	sort.SliceStable(manual, func(i, j int) bool {
		return sortKey(manual[i]) < sortKey(manual[j])
	})

	groups := make([]*models.Group, 0, len(doc.Groups))
	groups = append(groups, doc.Group(models.GroupUnassigned))
	for i, g := range manual {
		g.Sequence = models.Seq(i + 1)
		groups = append(groups, g)
	}
	groups = append(groups, doc.Group(models.GroupIgnored))
	doc.Groups = groups
}

func sortKey(g *models.Group) int {
	if g.Sequence <= 0 {
		return int(^uint(0) >> 1)
	}
	return int(g.Sequence)
}
