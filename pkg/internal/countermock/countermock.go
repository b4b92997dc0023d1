package countermock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rwool/viewcounter/pkg/service/counterstore"
)

// Ensure CounterMock implements the Counter interface.
var _ counterstore.Counter = (*CounterMock)(nil)

// CounterMock is a mock implementation of the counterstore.Counter type.
//
// Intended for testing only.
type CounterMock struct {
	mu       sync.Mutex
	counters map[string]int64
	fail     error
	calls    int64
	closed   bool
}

// New returns a new CounterMock.
func New() *CounterMock {
	return &CounterMock{counters: make(map[string]int64)}
}

// Fail makes every following store call return err wrapped as a store
// failure. A nil err restores normal operation.
func (c *CounterMock) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		err = &failure{err}
	}
	c.fail = err
}

// Calls returns the number of store round-trips made so far.
func (c *CounterMock) Calls() int64 {
	return atomic.LoadInt64(&c.calls)
}

// Closed reports whether Close was called.
func (c *CounterMock) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Count returns the stored value for name without counting as a call.
func (c *CounterMock) Count(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

// IncrementAndGet increments the value of the counter for name.
func (c *CounterMock) IncrementAndGet(ctx context.Context, name string) (int64, error) {
	atomic.AddInt64(&c.calls, 1)
	if name == "" {
		return 0, counterstore.ErrInvalidName
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return 0, c.fail
	}
	if err := ctx.Err(); err != nil {
		return 0, &failure{err}
	}
	c.counters[name]++
	return c.counters[name], nil
}

// Get gets the current value of the counter for name.
func (c *CounterMock) Get(ctx context.Context, name string) (int64, error) {
	atomic.AddInt64(&c.calls, 1)
	if name == "" {
		return 0, counterstore.ErrInvalidName
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return 0, c.fail
	}
	if err := ctx.Err(); err != nil {
		return 0, &failure{err}
	}
	return c.counters[name], nil
}

// Close marks the mock closed.
func (c *CounterMock) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type failure struct{ cause error }

func (f *failure) Error() string        { return "counter store unavailable: " + f.cause.Error() }
func (f *failure) Unwrap() error        { return f.cause }
func (f *failure) Is(target error) bool { return target == counterstore.ErrStoreUnavailable }
