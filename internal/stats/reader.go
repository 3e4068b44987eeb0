// Package stats reads (and collects) the catalog of which domains hold rows
// in which OTM tables. Normalization uses it to decide domain coverage.
package stats

import (
	"fmt"
	"sort"
	"sync"

	"github.com/diegofalves/ominideck/internal/config"
	"github.com/diegofalves/ominideck/internal/errs"
	"github.com/diegofalves/ominideck/pkg/logger"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

// TableDomainMap lists, per table, the domains that hold rows in it.
type TableDomainMap struct {
	// Tables keeps catalog order.
	Tables  []string
	Domains map[string][]string
}

// NewTableDomainMap builds the map from a catalog. Table and domain names are
// normalized, domains with a zero count are skipped, and each table's
// domains are sorted.
func NewTableDomainMap(cat *models.DomainStatisticsCatalog) *TableDomainMap {
	m := &TableDomainMap{Domains: make(map[string][]string)}
	if cat == nil {
		return m
	}
	for _, ts := range cat.Tables {
		table := utils.NormalizeToken(ts.TableName)
		if table == "" {
			continue
		}
		var domains []string
		for d, n := range ts.ParsedCounts {
			if n > 0 {
				domains = append(domains, d)
			}
		}
		if existing, ok := m.Domains[table]; ok {
			domains = append(existing, domains...)
		}
		domains = utils.UniqueTokens(domains)
		if len(domains) == 0 {
			continue
		}
		sort.Strings(domains)
		if _, ok := m.Domains[table]; !ok {
			m.Tables = append(m.Tables, table)
		}
		m.Domains[table] = domains
	}
	return m
}

// Empty reports whether no table is listed. An empty map disables coverage.
func (m *TableDomainMap) Empty() bool {
	return m == nil || len(m.Tables) == 0
}

// DomainsOf returns the domains of table, nil when unlisted.
func (m *TableDomainMap) DomainsOf(table string) []string {
	if m == nil {
		return nil
	}
	return m.Domains[utils.NormalizeToken(table)]
}

// UniqueDomainNames returns the sorted union of all domains.
func (m *TableDomainMap) UniqueDomainNames() []string {
	if m == nil {
		return []string{}
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, table := range m.Tables {
		for _, d := range m.Domains[table] {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Reader loads the domain statistics catalog once and caches it.
type Reader struct {
	path string

	mu  sync.Mutex
	tdm *TableDomainMap
}

// NewReader creates a Reader over the catalog file at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// TableDomainMap returns the cached map, loading it on first use. A missing
// catalog is logged and read as empty; a malformed one is an error.
func (r *Reader) TableDomainMap() (*TableDomainMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tdm != nil {
		return r.tdm, nil
	}

	var cat models.DomainStatisticsCatalog
	err := config.LoadJSON(r.path, "domain statistics catalog", &cat)
	switch {
	case errs.IsNotFound(err):
		logger.Warnw("domain statistics catalog missing, coverage disabled", "path", r.path)
		r.tdm = NewTableDomainMap(nil)
		return r.tdm, nil
	case err != nil:
		return nil, err
	}
	if cat.MetadataType != "" && cat.MetadataType != models.MetadataTypeDomainStatistics {
		return nil, errs.Parse(r.path, fmt.Errorf("unexpected metadataType %q", cat.MetadataType))
	}

	r.tdm = NewTableDomainMap(&cat)
	return r.tdm, nil
}

// UniqueDomainNames returns the sorted union of every listed domain.
func (r *Reader) UniqueDomainNames() ([]string, error) {
	m, err := r.TableDomainMap()
	if err != nil {
		return nil, err
	}
	return m.UniqueDomainNames(), nil
}

// Invalidate drops the cached catalog.
func (r *Reader) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tdm = nil
}

// ObjectDomainMap returns, per table, the domains already covered by the
// document's non-ignored items. Items without a domain register the table
// with no domain.
func ObjectDomainMap(groups []*models.Group) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, g := range groups {
		for _, it := range g.Objects {
			if it == nil || it.Ignored() {
				continue
			}
			table := it.Table()
			if table == "" {
				continue
			}
			if out[table] == nil {
				out[table] = make(map[string]bool)
			}
			if d := it.DomainKey(); d != "" {
				out[table][d] = true
			}
		}
	}
	return out
}

// IgnoreSet records what ignored items exclude from coverage: an ignored
// item without a domain excludes its whole table, one with a domain only
// that pair.
type IgnoreSet struct {
	tables map[string]bool
	pairs  map[string]map[string]bool
}

// IgnoredCoverage collects the ignore set of the document's groups.
func IgnoredCoverage(groups []*models.Group) *IgnoreSet {
	s := &IgnoreSet{tables: make(map[string]bool), pairs: make(map[string]map[string]bool)}
	for _, g := range groups {
		for _, it := range g.Objects {
			if it == nil || !it.Ignored() {
				continue
			}
			table := it.Table()
			if table == "" {
				continue
			}
			d := it.DomainKey()
			if d == "" {
				s.tables[table] = true
				continue
			}
			if s.pairs[table] == nil {
				s.pairs[table] = make(map[string]bool)
			}
			s.pairs[table][d] = true
		}
	}
	return s
}

// TableIgnored reports whether the whole table is ignored.
func (s *IgnoreSet) TableIgnored(table string) bool {
	return s.tables[utils.NormalizeToken(table)]
}

// Skips reports whether coverage of (table, domain) is waived.
func (s *IgnoreSet) Skips(table, domain string) bool {
	table = utils.NormalizeToken(table)
	return s.tables[table] || s.pairs[table][utils.NormalizeToken(domain)]
}
