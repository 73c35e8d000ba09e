// Package batch loads a set of keys concurrently, where each new load
// supersedes the one before it.
package batch

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrStale is returned by a load that a newer Load call replaced.
var ErrStale = errors.New("batch: load superseded")

type Result[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

type Loader[K comparable, V any] struct {
	fetch func(ctx context.Context, key K) (V, error)
	limit int

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// New returns a loader running at most limit fetches at once. limit <= 0
// means no limit.
func New[K comparable, V any](limit int, fetch func(ctx context.Context, key K) (V, error)) *Loader[K, V] {
	return &Loader[K, V]{fetch: fetch, limit: limit}
}

// Load fetches every key. Failures are reported per key, so one bad key
// does not hide the others. Results keep the order of keys.
func (l *Loader[K, V]) Load(ctx context.Context, keys []K) ([]Result[K, V], error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.cancel = cancel
	l.mu.Unlock()

	results := make([]Result[K, V], len(keys))
	g := new(errgroup.Group)
	if l.limit > 0 {
		g.SetLimit(l.limit)
	}
	for i, key := range keys {
		g.Go(func() error {
			v, err := l.fetch(ctx, key)
			results[i] = Result[K, V]{Key: key, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		return nil, ErrStale
	}
	l.cancel = nil
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Values collects successful values, keyed.
func Values[K comparable, V any](results []Result[K, V]) map[K]V {
	out := make(map[K]V, len(results))
	for _, r := range results {
		if r.Err == nil {
			out[r.Key] = r.Value
		}
	}
	return out
}
