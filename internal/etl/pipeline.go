package etl

import (
	"context"
	"time"

	"github.com/diegofalves/ominideck/pkg/logger"
)

// DefaultBatchSize is used when a pipeline is built with a non-positive size.
const DefaultBatchSize = 100

type Pipeline struct {
	Extractor Extractor
	Loader    Loader
	BatchSize int
	DryRun    bool
}

func NewPipeline(ext Extractor, loader Loader, batchSize int, dryRun bool) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		Extractor: ext,
		Loader:    loader,
		BatchSize: batchSize,
		DryRun:    dryRun,
	}
}

// Run drains the extractor into the loader and returns how many records
// went through. In dry-run mode nothing is loaded.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	logger.Infof("Starting publish pipeline. Batch Size: %d, DryRun: %v", p.BatchSize, p.DryRun)

	offset := 0
	total := 0
	startTime := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		// 1. Extract
		records, next, err := p.Extractor.Extract(ctx, p.BatchSize, offset)
		if err != nil {
			logger.Errorf("Extraction failed at offset %d: %v", offset, err)
			return total, err
		}
		if next == offset {
			break
		}

		// 2. Load
		count := len(records)
		if count > 0 {
			if p.DryRun {
				logger.Infof("[DRY RUN] Would load %d records", count)
			} else if err := p.Loader.Load(ctx, records); err != nil {
				logger.Errorf("Loading failed at offset %d: %v", offset, err)
				return total, err
			}
		}

		// 3. Stats
		total += count
		offset = next

		rate := 0.0
		if secs := time.Since(startTime).Seconds(); secs > 0 {
			rate = float64(total) / secs
		}
		logger.Infof("Batch done. Total: %d. Rate: %.2f records/sec. Next offset: %d", total, rate, offset)
	}

	logger.Infof("Publish pipeline finished. %d records.", total)
	return total, nil
}
