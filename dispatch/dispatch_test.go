/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package dispatch_test

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/dispatch"
	"dirpx.dev/vpx/metrics"
)

type view struct{ dc any }

func (v *view) SetDataContext(vm any) { v.dc = vm }
func (v *view) DataContext() any { return v.dc }

// affinityFactory returns a factory recording whether it saw affinity.
func affinityFactory(saw *bool) func(ctx context.Context) (apis.View, error) {
	return func(ctx context.Context) (apis.View, error) {
		*saw = dispatch.HasAffinity(ctx)
		return &view{}, nil
	}
}

func TestHasAffinity(t *testing.T) {
	assert.False(t, dispatch.HasAffinity(context.Background()))
	assert.True(t, dispatch.HasAffinity(dispatch.WithAffinity(context.Background())))
	var none context.Context
	assert.False(t, dispatch.HasAffinity(none))
}

func TestRun_InlineWithAffinity(t *testing.T) {
	loop := dispatch.NewLoop()
	defer loop.Close()
	d := dispatch.New(dispatch.WithExecutor(loop))

	ctx := dispatch.WithAffinity(context.Background())
	var saw bool
	v, err := d.Run(ctx, affinityFactory(&saw))
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.True(t, saw)
}

func TestRun_Executor(t *testing.T) {
	loop := dispatch.NewLoop()
	defer loop.Close()
	d := dispatch.New(dispatch.WithExecutor(loop))

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "caller")

	var saw bool
	var value any
	v, err := d.Run(ctx, func(ctx context.Context) (apis.View, error) {
		saw = dispatch.HasAffinity(ctx)
		value = ctx.Value(ctxKey{})
		return &view{}, nil
	})
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.True(t, saw)
	assert.Equal(t, "caller", value)
}

func TestRun_ExecutorPropagatesFactoryError(t *testing.T) {
	loop := dispatch.NewLoop()
	defer loop.Close()
	d := dispatch.New(dispatch.WithExecutor(loop))

	boom := errors.New("boom")
	_, err := d.Run(context.Background(), func(context.Context) (apis.View, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
}

func TestRun_ClosedExecutorFallsBackToPromoter(t *testing.T) {
	loop := dispatch.NewLoop()
	require.NoError(t, loop.Close())

	promoted := 0
	d := dispatch.New(
		dispatch.WithExecutor(loop),
		dispatch.WithPromoter(dispatch.PromoterFunc(func() bool { promoted++; return true })),
	)

	var saw bool
	_, err := d.Run(context.Background(), affinityFactory(&saw))
	require.NoError(t, err)
	assert.True(t, saw)
	assert.Equal(t, 1, promoted)
}

func TestRun_AffinityRequired(t *testing.T) {
	closed := dispatch.NewLoop()
	require.NoError(t, closed.Close())

	refuse := dispatch.PromoterFunc(func() bool { return false })
	cases := map[string]*dispatch.Dispatcher{
		"no route":          dispatch.New(),
		"closed executor":   dispatch.New(dispatch.WithExecutor(closed)),
		"promotion refused": dispatch.New(dispatch.WithPromoter(refuse)),
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			called := false
			_, err := d.Run(context.Background(), func(context.Context) (apis.View, error) {
				called = true
				return &view{}, nil
			})
			require.ErrorIs(t, err, apis.ErrAffinityRequired)
			assert.False(t, called)
		})
	}
}

func TestLockOSThreadPromoter(t *testing.T) {
	d := dispatch.New(dispatch.WithPromoter(dispatch.LockOSThread))

	done := make(chan error, 1)
	go func() {
		// The goroutine exits pinned, which terminates its thread.
		var saw bool
		_, err := d.Run(context.Background(), affinityFactory(&saw))
		if err == nil && !saw {
			err = errors.New("factory ran without affinity")
		}
		done <- err
	}()
	require.NoError(t, <-done)
}

func TestLoop_FIFO(t *testing.T) {
	loop := dispatch.NewLoop()
	defer loop.Close()

	var (
		mu  sync.Mutex
		got []int
	)
	futures := make([]<-chan error, 0, 100)
	for i := 0; i < 100; i++ {
		futures = append(futures, loop.Go(context.Background(), func(context.Context) {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	for _, f := range futures {
		require.NoError(t, <-f)
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestLoop_ReentrantGo(t *testing.T) {
	loop := dispatch.NewLoop()
	defer loop.Close()

	inner := make(chan (<-chan error), 1)
	require.NoError(t, loop.Submit(context.Background(), func(ctx context.Context) {
		// Queuing from the loop must not block it.
		inner <- loop.Go(ctx, func(context.Context) {})
	}))
	require.NoError(t, <-<-inner)
}

func TestLoop_Close(t *testing.T) {
	loop := dispatch.NewLoop()

	release := make(chan struct{})
	started := make(chan struct{})
	running := loop.Go(context.Background(), func(context.Context) {
		close(started)
		<-release
	})
	<-started
	pending := loop.Go(context.Background(), func(context.Context) {
		t.Error("pending task ran after close")
	})

	require.NoError(t, loop.Close())
	require.NoError(t, loop.Close())
	close(release)

	require.NoError(t, <-running)
	require.ErrorIs(t, <-pending, dispatch.ErrLoopClosed)
	require.ErrorIs(t, loop.Submit(context.Background(), func(context.Context) {}), dispatch.ErrLoopClosed)
	<-loop.Done()
}

// TestLoop_ConcurrentSubmit hammers the loop from many goroutines; every task
// must run exactly once and never concurrently with another.
func TestLoop_ConcurrentSubmit(t *testing.T) {
	loop := dispatch.NewLoop()
	defer loop.Close()
	d := dispatch.New(dispatch.WithExecutor(loop))

	var active, total int
	wg := sync.WaitGroup{}
	workers := runtime.GOMAXPROCS(0) * 4
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_, err := d.Run(context.Background(), func(context.Context) (apis.View, error) {
					// Only the loop goroutine touches these counters.
					active++
					if active != 1 {
						t.Errorf("%d tasks running concurrently", active)
					}
					total++
					active--
					return &view{}, nil
				})
				if err != nil {
					t.Errorf("Run: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, workers*200, total)
}

func TestMetrics(t *testing.T) {
	preg := prometheus.NewRegistry()
	m := metrics.New(preg)

	loop := dispatch.NewLoop()
	defer loop.Close()
	d := dispatch.New(dispatch.WithExecutor(loop), dispatch.WithMetrics(m))
	refuse := dispatch.New(dispatch.WithMetrics(m))

	factory := func(context.Context) (apis.View, error) { return &view{}, nil }
	_, _ = d.Run(context.Background(), factory)
	_, _ = d.Run(dispatch.WithAffinity(context.Background()), factory)
	_, _ = refuse.Run(context.Background(), factory)

	expected := `
# HELP vpx_dispatch_total Total number of view factory dispatches by route
# TYPE vpx_dispatch_total counter
vpx_dispatch_total{route="executor"} 1
vpx_dispatch_total{route="inline"} 1
vpx_dispatch_total{route="refused"} 1
`
	require.NoError(t, testutil.GatherAndCompare(preg, strings.NewReader(expected), "vpx_dispatch_total"))
}
