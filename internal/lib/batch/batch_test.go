package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeepsOrderAndPerKeyErrors(t *testing.T) {
	errOdd := errors.New("odd")
	l := New(2, func(ctx context.Context, k int) (string, error) {
		if k%2 == 1 {
			return "", errOdd
		}
		return fmt.Sprintf("v%d", k), nil
	})
	res, err := l.Load(context.Background(), []int{4, 1, 2})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, 4, res[0].Key)
	assert.Equal(t, "v4", res[0].Value)
	assert.ErrorIs(t, res[1].Err, errOdd)
	assert.Equal(t, map[int]string{4: "v4", 2: "v2"}, Values(res))
}

func TestLoadRespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	l := New(3, func(ctx context.Context, k int) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer running.Add(-1)
		return k, nil
	})
	keys := make([]int, 50)
	for i := range keys {
		keys[i] = i
	}
	res, err := l.Load(context.Background(), keys)
	require.NoError(t, err)
	assert.Len(t, res, 50)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestNewerLoadSupersedes(t *testing.T) {
	started := make(chan struct{})
	l := New(0, func(ctx context.Context, k string) (string, error) {
		if k == "slow" {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		}
		return k, nil
	})

	errc := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), []string{"slow"})
		errc <- err
	}()
	<-started
	res, err := l.Load(context.Background(), []string{"fast"})
	require.NoError(t, err)
	assert.Equal(t, "fast", res[0].Value)
	assert.ErrorIs(t, <-errc, ErrStale)
}

func TestLoadCancelledByCaller(t *testing.T) {
	l := New(1, func(ctx context.Context, k int) (int, error) {
		return k, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Load(ctx, []int{1})
	assert.ErrorIs(t, err, context.Canceled)
}
