package counterstore

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultMongoDatabase is used when the connection string names no database.
const DefaultMongoDatabase = "test"

// Ensure MongoAdapter implements the Counter interface.
var _ Counter = (*MongoAdapter)(nil)

// MongoAdapter adapts a MongoDB collection to support the Counter interface.
type MongoAdapter struct {
	coll *mongo.Collection
}

type mongoRecord struct {
	Name  string `bson:"name"`
	Count int64  `bson:"count"`
}

// NewMongoAdapter creates a MongoAdapter over an existing collection.
func NewMongoAdapter(coll *mongo.Collection) *MongoAdapter {
	if coll == nil {
		panic("nil mongo collection")
	}
	return &MongoAdapter{coll: coll}
}

// OpenMongo connects to the MongoDB deployment described by uri, using the
// database named in uri or DefaultMongoDatabase.
func OpenMongo(ctx context.Context, uri string, opts ...*options.ClientOptions) (*MongoAdapter, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, errors.Wrap(err, "invalid MongoDB connection string")
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}
	return OpenMongoDatabase(ctx, uri, dbName, opts...)
}

// OpenMongoDatabase connects to MongoDB and ensures the unique index on the
// counter name exists in dbName.
func OpenMongoDatabase(ctx context.Context, uri, dbName string, opts ...*options.ClientOptions) (*MongoAdapter, error) {
	opts = append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, opts...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, unavailable(err, "unable to connect to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, unavailable(err, "unable to ping MongoDB")
	}

	coll := client.Database(dbName).Collection(CollectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, unavailable(err, "unable to create index on %s.name", CollectionName)
	}
	return NewMongoAdapter(coll), nil
}

// IncrementAndGet increments the counter with the given name.
//
// If the counter does not exist, the upsert creates it with a count of 1.
func (m *MongoAdapter) IncrementAndGet(ctx context.Context, name string) (int64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	filter := bson.M{"name": name}
	update := bson.M{"$inc": bson.M{"count": 1}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var rec mongoRecord
	err := m.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	// Two upserts racing on an absent record can both attempt the insert; the
	// loser hits the unique index and the record now exists, so one more
	// attempt applies a plain increment.
	if mongo.IsDuplicateKeyError(err) {
		err = m.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	}
	if err != nil {
		return 0, unavailable(err, "failed to increment counter %q in MongoDB", name)
	}
	return rec.Count, nil
}

// Get gets the current value of a counter.
func (m *MongoAdapter) Get(ctx context.Context, name string) (int64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	var rec mongoRecord
	err := m.coll.FindOne(ctx, bson.M{"name": name}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, unavailable(err, "failed to get counter %q from MongoDB", name)
	}
	return rec.Count, nil
}

// Close disconnects the MongoDB client.
func (m *MongoAdapter) Close(ctx context.Context) error {
	err := m.coll.Database().Client().Disconnect(ctx)
	return unavailable(err, "failed to disconnect from MongoDB")
}
