package etl

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/diegofalves/ominideck/pkg/database"
)

// Runs against a live MongoDB when MONGO_CONNECTION_STRING is set.
func TestMongoLoader_Publish(t *testing.T) {
	uri := os.Getenv("MONGO_CONNECTION_STRING")
	if uri == "" {
		t.Skip("MONGO_CONNECTION_STRING not set")
	}

	// 1. Connect
	client, err := database.ConnectMongo(uri)
	require.NoError(t, err)
	defer database.DisconnectMongo(client)

	collection := "migration_items_test_" + uuid.NewString()[:8]
	loader := NewMongoLoader(client, "ominideck_test", collection)
	defer loader.Collection.Drop(context.Background())

	// 2. Publish twice; the second run must only update
	for i := 0; i < 2; i++ {
		n, err := NewPipeline(NewDocumentExtractor(sampleDoc()), loader, 2, false).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	}

	// 3. Verify
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := loader.Collection.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	var result bson.M
	require.NoError(t, loader.Collection.FindOne(ctx, bson.M{"_id": "MIGRATION_ITEM.G1.SHIPMENT.B.1"}).Decode(&result))
	assert.Equal(t, "SHIPMENT", result["table"])
	assert.Equal(t, "P1", result["project_code"])
	assert.Equal(t, false, result["ignored"])
}
