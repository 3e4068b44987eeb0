package etl

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/diegofalves/ominideck/pkg/logger"
)

// MongoLoader upserts catalog records keyed by _id.
type MongoLoader struct {
	Collection *mongo.Collection
	Timeout    time.Duration
}

func NewMongoLoader(client *mongo.Client, database, collection string) *MongoLoader {
	return &MongoLoader{
		Collection: client.Database(database).Collection(collection),
		Timeout:    30 * time.Second,
	}
}

// UpsertModels builds one upsert per record. Records without _id are
// skipped.
func UpsertModels(records []Record) []mongo.WriteModel {
	var writes []mongo.WriteModel
	for _, rec := range records {
		idVal, ok := rec["_id"]
		if !ok || idVal == nil || idVal == "" {
			logger.Errorf("Missing _id for record %v", rec["name"])
			continue
		}

		set := bson.M{}
		for k, v := range rec {
			if k != "_id" {
				set[k] = v
			}
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": idVal}).
			SetUpdate(bson.M{"$set": set}).
			SetUpsert(true))
	}
	return writes
}

func (m *MongoLoader) Load(ctx context.Context, records []Record) error {
	writes := UpsertModels(records)
	if len(writes) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()
	res, err := m.Collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to upsert %d records into '%s': %w", len(writes), m.Collection.Name(), err)
	}
	logger.Infof("Mongo BulkWrite: Match %d, Mod %d, Upsert %d", res.MatchedCount, res.ModifiedCount, res.UpsertedCount)
	return nil
}
