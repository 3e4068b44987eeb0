package etl

import "context"

// Record is one flat document handed from an Extractor to a Loader.
type Record = map[string]interface{}

// Extractor returns the next batch starting at offset and the offset of the
// batch after it. An unchanged offset means the source is exhausted.
type Extractor interface {
	Extract(ctx context.Context, batchSize int, offset int) ([]Record, int, error)
}

type Loader interface {
	Load(ctx context.Context, records []Record) error
}
