package counterstore

import (
	"context"

	"cloud.google.com/go/datastore"
)

// datastoreMaxAttempts bounds the compare-and-retry loop under contention.
const datastoreMaxAttempts = 10

// Ensure DatastoreAdapter implements the Counter interface.
var _ Counter = (*DatastoreAdapter)(nil)

// DatastoreAdapter is a Counter backed by Cloud Datastore.
//
// Datastore has no increment primitive, so the increment runs as a
// get-then-put transaction which Datastore retries on contention.
type DatastoreAdapter struct {
	c *datastore.Client
}

type datastoreRecord struct {
	Name  string `datastore:"name"`
	Count int64  `datastore:"count"`
}

// NewDatastoreAdapter creates a DatastoreAdapter.
func NewDatastoreAdapter(c *datastore.Client) *DatastoreAdapter {
	if c == nil {
		panic("nil datastore client")
	}
	return &DatastoreAdapter{c: c}
}

// OpenDatastore creates a Datastore client for projectID.
//
// DATASTORE_EMULATOR_HOST is honoured by the client library.
func OpenDatastore(ctx context.Context, projectID string) (*DatastoreAdapter, error) {
	c, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, unavailable(err, "unable to create Datastore client for project %q", projectID)
	}
	return NewDatastoreAdapter(c), nil
}

func datastoreKey(name string) *datastore.Key {
	return datastore.NameKey(CollectionName, name, nil)
}

// IncrementAndGet increments the counter with the given name.
func (d *DatastoreAdapter) IncrementAndGet(ctx context.Context, name string) (int64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	key := datastoreKey(name)

	var count int64
	_, err := d.c.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		// The function may run several times; nothing outside the transaction
		// is touched except count, which is overwritten on every attempt.
		var rec datastoreRecord
		if err := tx.Get(key, &rec); err != nil && err != datastore.ErrNoSuchEntity {
			return err
		}
		rec.Name = name
		rec.Count++
		if _, err := tx.Put(key, &rec); err != nil {
			return err
		}
		count = rec.Count
		return nil
	}, datastore.MaxAttempts(datastoreMaxAttempts))
	if err != nil {
		return 0, unavailable(err, "failed to increment counter %q in Datastore", name)
	}
	return count, nil
}

// Get gets the current value of a counter.
func (d *DatastoreAdapter) Get(ctx context.Context, name string) (int64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	var rec datastoreRecord
	err := d.c.Get(ctx, datastoreKey(name), &rec)
	if err != nil {
		if err == datastore.ErrNoSuchEntity {
			return 0, nil
		}
		return 0, unavailable(err, "failed to get counter %q from Datastore", name)
	}
	return rec.Count, nil
}

// Close closes the Datastore client.
func (d *DatastoreAdapter) Close(_ context.Context) error {
	return unavailable(d.c.Close(), "failed to close Datastore client")
}
