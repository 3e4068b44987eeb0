package store

import (
	"regexp"
	"strings"

	"github.com/diegofalves/ominideck/internal/sqlparse"
	"github.com/diegofalves/ominideck/internal/stats"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

var autoDomainName = regexp.MustCompile(`\(\s*([^()]+?)\s*-\s*AUTO\s*\)\s*$`)

// normalizeItemShape uppercases identifiers, binds otm_table to object_type
// and replaces absent collections with empty ones.
func normalizeItemShape(it *models.Item) {
	it.ObjectType = utils.NormalizeToken(it.ObjectType)
	it.OTMTable = utils.NormalizeToken(it.OTMTable)
	if !it.IsLogical() {
		if it.ObjectType == "" {
			it.ObjectType = it.OTMTable
		}
		it.OTMTable = it.ObjectType
	}
	it.DeploymentType = utils.NormalizeToken(it.DeploymentType)
	it.SubtableParent = utils.NormalizeToken(it.SubtableParent)

	for _, phase := range models.StatusPhases {
		v := utils.NormalizeToken(it.Status.Phase(phase))
		if v == "" {
			v = models.StatusPending
		}
		it.Status.SetPhase(phase, v)
	}

	if it.Identifiers == nil {
		it.Identifiers = map[string]interface{}{}
	}
	for _, key := range models.LogicalTypeIdentifiers[it.ObjectType] {
		if _, ok := it.Identifiers[key]; !ok {
			it.Identifiers[key] = ""
		}
	}
	if it.Data == nil {
		it.Data = map[string]interface{}{}
	}
	if it.RelatedTables == nil {
		it.RelatedTables = []string{}
	}
	if it.Subtables == nil {
		it.Subtables = []string{}
	}
}

// resolveExtractionQuery makes object_extraction_query authoritative,
// promoting the legacy saved_query.sql when it is the only SQL present.
func resolveExtractionQuery(it *models.Item) {
	if it.ExtractionQuery == nil {
		it.ExtractionQuery = &models.ExtractionQuery{}
	}
	q := it.ExtractionQuery
	q.Content = strings.TrimSpace(q.Content)
	if q.Content == "" {
		q.Content = it.LegacySQL()
	}
	q.Language = utils.NormalizeToken(q.Language)
	if q.Language == "" {
		q.Language = models.QueryLanguageSQL
	}
}

// deriveHierarchy recomputes otm_related_tables from the SQL and trims
// otm_subtables to it. SQL that yields no table keeps the stored list.
func deriveHierarchy(it *models.Item) {
	own := it.Table()

	var related []string
	if sql := it.SQL(); sql != "" {
		related = utils.UniqueTokens(utils.WithoutToken(sqlparse.ExtractTables(sql), own))
	}
	if len(related) == 0 {
		related = utils.UniqueTokens(utils.WithoutToken(it.RelatedTables, own))
	}
	it.RelatedTables = related

	subtables := make([]string, 0, len(it.Subtables))
	for _, sub := range utils.UniqueTokens(it.Subtables) {
		if sub != own && utils.ContainsToken(related, sub) {
			subtables = append(subtables, sub)
		}
	}
	it.Subtables = subtables
}

func normalizeTechnicalContent(it *models.Item) {
	tc := &it.TechnicalContent
	tc.Type = utils.NormalizeToken(tc.Type)
	if tc.Type == "" {
		tc.Type = models.TechnicalContentNone
	}
	tc.Content = strings.TrimSpace(tc.Content)
}

// resolveDomain unifies domain and domainName. An empty domain is inferred
// from a legacy "(<DOMAIN> - AUTO)" name, then from a table listed with a
// single domain.
func resolveDomain(it *models.Item, tdm *stats.TableDomainMap) {
	d := it.DomainKey()
	if d == "" && it.Auto() {
		if m := autoDomainName.FindStringSubmatch(it.Name); m != nil {
			d = utils.NormalizeToken(m[1])
		}
	}
	if d == "" {
		if domains := tdm.DomainsOf(it.Table()); len(domains) == 1 {
			d = domains[0]
		}
	}
	it.DomainName = d
	it.Domain = d
}
