// Package storetest implements a behavioural test suite shared by every
// counterstore.Counter backend.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/rwool/viewcounter/pkg/service/counterstore"
)

// Concurrency is the number of concurrent increments issued by the
// no-lost-updates test.
const Concurrency = 50

// uniqueName returns a counter name no other test uses, so suites can share a
// real store.
func uniqueName(t *testing.T) string {
	return t.Name() + "-" + uuid.New().String()
}

// Run runs the full suite against c.
func Run(t *testing.T, c counterstore.Counter) {
	RunN(t, c, Concurrency)
}

// RunN runs the full suite against c with n concurrent increments.
func RunN(t *testing.T, c counterstore.Counter, n int) {
	t.Run("Monotonic", func(t *testing.T) { testMonotonic(t, c) })
	t.Run("Upsert On Absence", func(t *testing.T) { testUpsertOnAbsence(t, c) })
	t.Run("Read Does Not Mutate", func(t *testing.T) { testReadDoesNotMutate(t, c) })
	t.Run("No Lost Updates", func(t *testing.T) { testNoLostUpdates(t, c, n) })
	t.Run("Independent Names", func(t *testing.T) { testIndependentNames(t, c) })
	t.Run("Invalid Name", func(t *testing.T) { testInvalidName(t, c) })
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func testMonotonic(t *testing.T, c counterstore.Counter) {
	ctx := testContext(t)
	name := uniqueName(t)

	for want := int64(1); want <= 10; want++ {
		got, err := c.IncrementAndGet(ctx, name)
		require.NoError(t, err, "Should increment counter with no error.")
		require.Equal(t, want, got, "Increments should return consecutive values.")
	}
}

func testUpsertOnAbsence(t *testing.T, c counterstore.Counter) {
	ctx := testContext(t)
	name := uniqueName(t)

	v, err := c.Get(ctx, name)
	require.NoError(t, err, "Should get absent counter with no error.")
	assert.Equal(t, int64(0), v, "Absent counter should read as 0.")

	v, err = c.Get(ctx, name)
	require.NoError(t, err, "Should get absent counter with no error.")
	assert.Equal(t, int64(0), v, "Reading an absent counter should not create it.")

	v, err = c.IncrementAndGet(ctx, name)
	require.NoError(t, err, "Should increment counter with no error.")
	assert.Equal(t, int64(1), v, "First increment should create the counter at 1.")

	v, err = c.Get(ctx, name)
	require.NoError(t, err, "Should get counter with no error.")
	assert.Equal(t, int64(1), v, "Read should reflect the first increment.")
}

func testReadDoesNotMutate(t *testing.T, c counterstore.Counter) {
	ctx := testContext(t)
	name := uniqueName(t)

	for i := 0; i < 3; i++ {
		_, err := c.IncrementAndGet(ctx, name)
		require.NoError(t, err, "Should increment counter with no error.")
	}
	for i := 0; i < 5; i++ {
		v, err := c.Get(ctx, name)
		require.NoError(t, err, "Should get counter with no error.")
		require.Equal(t, int64(3), v, "Repeated reads should return the same value.")
	}
}

func testNoLostUpdates(t *testing.T, c counterstore.Counter, n int) {
	ctx := testContext(t)
	name := uniqueName(t)

	const start = 5
	for i := 0; i < start; i++ {
		_, err := c.IncrementAndGet(ctx, name)
		require.NoError(t, err, "Should increment counter with no error.")
	}

	// Wait on a channel to "burst" all requests as fast as possible.
	var ready sync.WaitGroup
	ready.Add(n)
	begin := make(chan struct{})

	var (
		seen   = make(map[int64]int)
		seenMu sync.Mutex
	)
	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		group.Go(func() error {
			ready.Done()
			<-begin
			v, err := c.IncrementAndGet(gctx, name)
			if err != nil {
				return err
			}
			seenMu.Lock()
			seen[v]++
			seenMu.Unlock()
			return nil
		})
	}
	ready.Wait()
	close(begin)
	require.NoError(t, group.Wait(), "Concurrent increments should not error.")

	require.Len(t, seen, n, "Every increment should return a distinct value.")
	for v := int64(start + 1); v <= int64(start+n); v++ {
		require.Equal(t, 1, seen[v], "Value %d should be returned exactly once.", v)
	}

	final, err := c.Get(ctx, name)
	require.NoError(t, err, "Should get counter with no error.")
	assert.Equal(t, int64(start+n), final, "Final count should include every increment.")
}

func testIndependentNames(t *testing.T, c counterstore.Counter) {
	ctx := testContext(t)
	a, b := uniqueName(t), uniqueName(t)

	_, err := c.IncrementAndGet(ctx, a)
	require.NoError(t, err)
	_, err = c.IncrementAndGet(ctx, a)
	require.NoError(t, err)

	v, err := c.Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v, "Counters should not share state.")
}

func testInvalidName(t *testing.T, c counterstore.Counter) {
	ctx := testContext(t)

	_, err := c.IncrementAndGet(ctx, "")
	assert.Equal(t, counterstore.ErrInvalidName, err)
	_, err = c.Get(ctx, "")
	assert.Equal(t, counterstore.ErrInvalidName, err)
}
