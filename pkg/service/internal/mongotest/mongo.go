// Package mongotest implements support code for testing with MongoDB.
package mongotest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rwool/viewcounter/pkg/service/counterstore"
)

// Connect opens a MongoAdapter against the deployment named by MONGODB_URI.
//
// Each test gets a fresh database, which is dropped on cleanup.
func Connect(t *testing.T) *counterstore.MongoAdapter {
	uri, ok := os.LookupEnv("MONGODB_URI")
	if !ok {
		t.Skip("Missing MongoDB URI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := "viewcounter_test_" + uuid.New().String()[:8]
	m, err := counterstore.OpenMongoDatabase(ctx, uri, dbName, options.Client().
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("unable to open test database %s: %v", dbName, err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = m.Close(ctx)
		dropDatabase(ctx, uri, dbName)
	})
	return m
}

func dropDatabase(ctx context.Context, uri, dbName string) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return
	}
	defer func() { _ = client.Disconnect(ctx) }()
	_ = client.Database(dbName).Drop(ctx)
}
