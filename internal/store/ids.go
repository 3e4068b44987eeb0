package store

import (
	"fmt"
	"strings"

	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

const itemIDPrefix = "MIGRATION_ITEM"

// assignItemSequences gives every item without a positive sequence its
// 1-based position in the group.
func assignItemSequences(doc *models.Document) {
	for _, g := range doc.Groups {
		for i, it := range g.Objects {
			if it.Sequence <= 0 {
				it.Sequence = models.Seq(i + 1)
			}
		}
	}
}

// ItemID builds the deterministic id of an item placed in group.
func ItemID(groupID string, it *models.Item) string {
	return strings.Join([]string{
		itemIDPrefix,
		slugOr(groupID, "GROUP"),
		slugOr(it.Table(), "TABLE"),
		slugOr(it.Name, "ITEM"),
		fmt.Sprint(int(it.Sequence)),
	}, ".")
}

func slugOr(s, fallback string) string {
	if slug := utils.Slug(s); slug != "" {
		return slug
	}
	return fallback
}

// assignItemIDs fills missing migration_item_id values. Existing ids are
// never changed; a generated id that is already taken gets a numeric suffix.
func assignItemIDs(doc *models.Document) {
	taken := make(map[string]bool)
	for _, ref := range doc.Items() {
		if id := strings.TrimSpace(ref.Item.ID); id != "" {
			ref.Item.ID = id
			taken[id] = true
		}
	}
	for _, ref := range doc.Items() {
		if ref.Item.ID != "" {
			continue
		}
		base := ItemID(ref.Group.GroupID, ref.Item)
		id := base
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		taken[id] = true
		ref.Item.ID = id
	}
}

func resolveActiveGroup(doc *models.Document) {
	id := canonicalGroupID(doc.ActiveGroupID)
	if id != "" && doc.Group(id) != nil {
		doc.ActiveGroupID = id
		return
	}
	if doc.Group(models.GroupUnassigned) != nil {
		doc.ActiveGroupID = models.GroupUnassigned
		return
	}
	if len(doc.Groups) > 0 {
		doc.ActiveGroupID = doc.Groups[0].GroupID
	}
}
