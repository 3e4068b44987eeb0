package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/google/renameio/v2"

	"github.com/diegofalves/ominideck/pkg/logger"
	"github.com/diegofalves/ominideck/pkg/models"
	"github.com/diegofalves/ominideck/pkg/utils"
)

var safeIdentifier = regexp.MustCompile(`^[A-Z][A-Z0-9_$#]*$`)

// Collector counts rows per DOMAIN_NAME in a database that mirrors the OTM
// tables (a staging replica).
type Collector struct {
	DB *sql.DB

	// Now stamps the catalog; defaults to time.Now.
	Now func() time.Time
}

// Collect runs one GROUP BY DOMAIN_NAME count per table. Tables whose name
// is not a plain identifier, or whose query fails, are skipped with a
// warning. Only tables with at least one counted domain are listed.
func (c *Collector) Collect(ctx context.Context, tables []string) (*models.DomainStatisticsCatalog, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	cat := &models.DomainStatisticsCatalog{
		MetadataType: models.MetadataTypeDomainStatistics,
		GeneratedAt:  now().UTC().Format(time.RFC3339),
		Tables:       []models.TableStatistics{},
	}

	for _, table := range utils.UniqueTokens(tables) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !safeIdentifier.MatchString(table) {
			logger.Warnf("Skipping table with unsafe name %q", table)
			continue
		}

		counts, err := c.countTable(ctx, table)
		if err != nil {
			logger.Warnf("Skipping table %s: %v", table, err)
			continue
		}
		if len(counts) == 0 {
			continue
		}
		cat.Tables = append(cat.Tables, models.TableStatistics{TableName: table, ParsedCounts: counts})
		logger.Debugf("Collected %d domains for %s", len(counts), table)
	}

	logger.Infof("Collected domain statistics for %d of %d tables", len(cat.Tables), len(tables))
	return cat, nil
}

func (c *Collector) countTable(ctx context.Context, table string) (map[string]int, error) {
	query := fmt.Sprintf("SELECT DOMAIN_NAME, COUNT(*) FROM %s GROUP BY DOMAIN_NAME", table)
	rows, err := c.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var domain sql.NullString
		var n int64
		if err := rows.Scan(&domain, &n); err != nil {
			return nil, err
		}
		d := utils.NormalizeToken(domain.String)
		if !domain.Valid || d == "" || n <= 0 {
			continue
		}
		counts[d] += int(n)
	}
	return counts, rows.Err()
}

// WriteCatalog writes the catalog to path with write-then-rename, so readers
// never see a partial file.
func WriteCatalog(path string, cat *models.DomainStatisticsCatalog) error {
	sort.SliceStable(cat.Tables, func(i, j int) bool {
		return cat.Tables[i].TableName < cat.Tables[j].TableName
	})
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode domain statistics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", path, err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write domain statistics '%s': %w", path, err)
	}
	return nil
}
