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

package resolver_test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/config"
	"dirpx.dev/vpx/dispatch"
	"dirpx.dev/vpx/hooks"
	"dirpx.dev/vpx/lookup"
	"dirpx.dev/vpx/metrics"
	"dirpx.dev/vpx/module"
	"dirpx.dev/vpx/resolver"
)

// countingLookup counts Find calls.
type countingLookup struct {
	apis.Lookup
	n atomic.Int32
}

func (c *countingLookup) Find(target string, mods []apis.Module) []apis.Type {
	c.n.Add(1)
	return c.Lookup.Find(target, mods)
}

func TestResolve_SameModule(t *testing.T) {
	h, _ := newApp(t)
	r := resolver.New(h)

	vm := &MainWindowModel{Title: "main"}
	v, err := r.Resolve(affinity(), vm)
	require.NoError(t, err)
	require.IsType(t, &MainWindow{}, v)
	assert.Same(t, vm, v.DataContext())

	v, err = r.Resolve(affinity(), DetailsViewModel{})
	require.NoError(t, err)
	assert.IsType(t, &DetailsView{}, v)
}

func TestResolve_NilViewModel(t *testing.T) {
	h, _ := newApp(t)
	r := resolver.New(h)

	v, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = r.Resolve(context.Background(), (*MainWindowModel)(nil))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestResolve_IdempotentAndCached(t *testing.T) {
	h, _ := newApp(t)
	l := &countingLookup{Lookup: lookup.Qualified()}
	r := resolver.New(h, resolver.WithLookup(l))

	a, err := r.Resolve(affinity(), &MainWindowModel{})
	require.NoError(t, err)
	b, err := r.Resolve(affinity(), &MainWindowModel{})
	require.NoError(t, err)

	assert.IsType(t, a, b)
	assert.NotSame(t, a, b)
	assert.Equal(t, int32(1), l.n.Load())
}

// TestResolve_ConcurrentFirstCallers releases many callers for one
// unresolved view-model at once; the lookup must run exactly once and every
// caller must get a view of the same type.
func TestResolve_ConcurrentFirstCallers(t *testing.T) {
	h, _ := newApp(t)
	l := &countingLookup{Lookup: lookup.Qualified()}
	loop := dispatch.NewLoop()
	defer loop.Close()
	r := resolver.New(h, resolver.WithLookup(l), resolver.WithDispatcher(dispatch.New(dispatch.WithExecutor(loop))))

	start := make(chan struct{})
	wg := sync.WaitGroup{}
	workers := runtime.GOMAXPROCS(0) * 4
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := r.Resolve(context.Background(), &MainWindowModel{})
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			if _, ok := v.(*MainWindow); !ok {
				t.Errorf("Resolve returned %T, want *MainWindow", v)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), l.n.Load())
}

func TestResolve_NamingMismatch(t *testing.T) {
	h, _ := newApp(t)
	r := resolver.New(h)

	// Namespace without the view-model suffix.
	_, err := r.Resolve(affinity(), namedVM{apis.TypeID{Module: appModule, Namespace: "App.Screens", Name: "MainWindowModel"}})
	require.ErrorIs(t, err, apis.ErrNamingMismatch)

	// Name reducing to nothing.
	_, err = r.Resolve(affinity(), namedVM{apis.TypeID{Module: appModule, Namespace: "App.ViewModels", Name: "Model"}})
	require.ErrorIs(t, err, apis.ErrNamingMismatch)

	// A value without a named type cannot be identified.
	_, err = r.Resolve(affinity(), struct{ X int }{})
	require.ErrorIs(t, err, apis.ErrNamingMismatch)
}

func TestResolve_NoModulesFound(t *testing.T) {
	h, _ := newApp(t)
	r := resolver.New(h)

	_, err := r.Resolve(affinity(), namedVM{apis.TypeID{Module: "example.com/missing", Namespace: "App.ViewModels", Name: "MainWindowModel"}})
	require.ErrorIs(t, err, apis.ErrNoModulesFound)
	assert.True(t, apis.IsResolutionError(err))
}

func TestResolve_NoViewFoundIsNotCached(t *testing.T) {
	h, app := newApp(t)
	r := resolver.New(h)
	vm := namedVM{apis.TypeID{Module: appModule, Namespace: "App.ViewModels", Name: "LaterModel"}}

	_, err := r.Resolve(affinity(), vm)
	require.ErrorIs(t, err, apis.ErrNoViewFound)
	assert.Contains(t, err.Error(), `"App.Views.Later"`)

	// A view exported after the failure is found by the next attempt.
	require.NoError(t, app.Export(DetailsView{}, module.InNamespace("App.Views"), module.Named("Later")))
	v, err := r.Resolve(affinity(), vm)
	require.NoError(t, err)
	assert.IsType(t, &DetailsView{}, v)
}

type notAView struct{}
type ValueKind int
type PlainView struct{ baseView }
type ValueView struct{ baseView }
type AbstractView interface{ apis.View }

// newUnbuildable returns a host whose App.Views hold one view type per way
// construction can fail.
func newUnbuildable(t *testing.T) *module.Host {
	t.Helper()
	app := module.New(appModule)
	views := module.InNamespace("App.Views")
	require.NoError(t, app.Export((*AbstractView)(nil), views, module.Named("Abstract")))
	require.NoError(t, app.Export(ValueKind(0), views, module.Named("Value")))
	require.NoError(t, app.Export(notAView{}, views, module.Named("NotView")))
	require.NoError(t, app.ExportConstructor(func(string) *PlainView { return nil }, views, module.Named("NeedsArgs")))
	require.NoError(t, app.ExportConstructor(func() ValueView { return ValueView{} }, views, module.Named("ByValue")))
	h, err := module.NewHost(app)
	require.NoError(t, err)
	return h
}

func TestResolve_NotInstantiable(t *testing.T) {
	r := resolver.New(newUnbuildable(t))

	for _, name := range []string{"Abstract", "Value", "NotView", "NeedsArgs", "ByValue"} {
		t.Run(name, func(t *testing.T) {
			vm := namedVM{apis.TypeID{Module: appModule, Namespace: "App.ViewModels", Name: name + "Model"}}
			v, err := r.Resolve(affinity(), vm)
			require.ErrorIs(t, err, apis.ErrNotInstantiable)
			assert.Nil(t, v)
		})
	}
}

// Types that can never be built are rejected before any affinity route is
// looked for; only a by-value constructor needs to run to be caught.
func TestResolve_NotInstantiableWithoutAffinity(t *testing.T) {
	r := resolver.New(newUnbuildable(t), resolver.WithDispatcher(dispatch.New()))

	for _, name := range []string{"Abstract", "Value", "NotView", "NeedsArgs"} {
		t.Run(name, func(t *testing.T) {
			vm := namedVM{apis.TypeID{Module: appModule, Namespace: "App.ViewModels", Name: name + "Model"}}
			_, err := r.Resolve(context.Background(), vm)
			require.ErrorIs(t, err, apis.ErrNotInstantiable)
			assert.NotErrorIs(t, err, apis.ErrAffinityRequired)
		})
	}

	vm := namedVM{apis.TypeID{Module: appModule, Namespace: "App.ViewModels", Name: "ByValueModel"}}
	_, err := r.Resolve(context.Background(), vm)
	require.ErrorIs(t, err, apis.ErrAffinityRequired)
}

func TestResolve_AffinityRequired(t *testing.T) {
	h, _ := newApp(t)

	_, err := resolver.New(h).Resolve(context.Background(), &MainWindowModel{})
	require.ErrorIs(t, err, apis.ErrAffinityRequired)

	loop := dispatch.NewLoop()
	defer loop.Close()
	r := resolver.New(h, resolver.WithDispatcher(dispatch.New(dispatch.WithExecutor(loop))))
	v, err := r.Resolve(context.Background(), &MainWindowModel{})
	require.NoError(t, err)
	assert.IsType(t, &MainWindow{}, v)
}

func TestResolve_HooksRunInOrder(t *testing.T) {
	h, _ := newApp(t)

	var trace []string
	r := resolver.New(h, resolver.WithSetup(
		func(vm any, view apis.View) error {
			trace = append(trace, "setup1")
			assert.Same(t, vm, view.DataContext())
			return nil
		},
		func(any, apis.View) error { trace = append(trace, "setup2"); return nil },
	))
	unsubscribe := r.Subscribe(func(e hooks.Event) {
		trace = append(trace, "event")
		assert.Same(t, e.ViewModel, e.View.DataContext())
	})

	_, err := r.Resolve(affinity(), &MainWindowModel{})
	require.NoError(t, err)
	assert.Equal(t, []string{"event", "setup1", "setup2"}, trace)

	unsubscribe()
	trace = nil
	_, err = r.Resolve(affinity(), &MainWindowModel{})
	require.NoError(t, err)
	assert.Equal(t, []string{"setup1", "setup2"}, trace)
}

func TestResolve_SetupErrorPropagatesUnchanged(t *testing.T) {
	h, _ := newApp(t)
	boom := errors.New("boom")
	second := false
	r := resolver.New(h, resolver.WithSetup(
		func(any, apis.View) error { return boom },
		func(any, apis.View) error { second = true; return nil },
	))
	events := 0
	r.Subscribe(func(hooks.Event) { events++ })

	v, err := r.Resolve(affinity(), &MainWindowModel{})
	assert.Same(t, boom, err)
	assert.Nil(t, v)
	assert.False(t, second)
	// The event precedes setup, so it was already published.
	assert.Equal(t, 1, events)
	assert.False(t, apis.IsResolutionError(err))
}

func TestResolveIn_Hint(t *testing.T) {
	h, _ := newApp(t)
	r := resolver.New(h)

	other := module.New("example.com/skin")
	require.NoError(t, other.Export(DetailsView{}, module.InNamespace("App.Views"), module.Named("MainWindow")))

	v, err := r.ResolveIn(affinity(), &MainWindowModel{}, other)
	require.NoError(t, err)
	assert.IsType(t, &DetailsView{}, v)

	// The hinted result does not leak into unhinted resolutions.
	v, err = r.Resolve(affinity(), &MainWindowModel{})
	require.NoError(t, err)
	assert.IsType(t, &MainWindow{}, v)

	// A hint without the view fails even though the own module has it.
	_, err = r.ResolveIn(affinity(), &DetailsViewModel{}, module.New("example.com/empty"))
	require.ErrorIs(t, err, apis.ErrNoViewFound)
}

// ReflectOnlyModel is not exported by any module; its identity is derived
// from its Go package.
type ReflectOnlyModel struct{}

func TestResolve_ReflectIdentity(t *testing.T) {
	const pkg = "dirpx.dev/vpx/resolver_test"
	own := module.New(pkg)
	require.NoError(t, own.Export(MainWindow{}, module.InNamespace("dirpx.dev.vpx.views"), module.Named("ReflectOnly")))
	h, err := module.NewHost(own)
	require.NoError(t, err)

	r := resolver.New(h, resolver.WithConfig(config.NewConfig(
		config.WithViewModelNamespaceSuffix("resolver_test"),
		config.WithViewNamespaceSuffix("views"),
	)))
	v, err := r.Resolve(affinity(), &ReflectOnlyModel{})
	require.NoError(t, err)
	assert.IsType(t, &MainWindow{}, v)
}

func TestViewType(t *testing.T) {
	h, _ := newApp(t)
	preg := prometheus.NewRegistry()
	r := resolver.New(h, resolver.WithMetrics(metrics.New(preg)))

	typ, err := r.ViewType(reflect.TypeFor[*MainWindowModel]())
	require.NoError(t, err)
	assert.Equal(t, apis.TypeID{Module: appModule, Namespace: "App.Views", Name: "MainWindow"}, typ.ID)

	// Resolve reuses the entry found by ViewType.
	_, err = r.Resolve(affinity(), &MainWindowModel{})
	require.NoError(t, err)
	expected := `
# HELP vpx_cache_hits_total Total number of resolution cache hits
# TYPE vpx_cache_hits_total counter
vpx_cache_hits_total 1
`
	require.NoError(t, testutil.GatherAndCompare(preg, strings.NewReader(expected), "vpx_cache_hits_total"))

	_, err = r.ViewType(reflect.TypeFor[func()]())
	require.ErrorIs(t, err, apis.ErrNamingMismatch)
	_, err = r.ViewType(nil)
	require.ErrorIs(t, err, apis.ErrNamingMismatch)
}

func TestResolve_CrossModule(t *testing.T) {
	reg, _ := newCross(t)
	r := resolver.NewCrossModule(reg)
	assert.Equal(t, config.CrossModuleConfig(), r.Config())

	vm := &SomeViewModel{}
	v, err := r.Resolve(affinity(), vm)
	require.NoError(t, err)
	assert.IsType(t, &SomeView{}, v)
	assert.Same(t, vm, v.DataContext())
}

func TestResolve_CrossModuleNoHolder(t *testing.T) {
	reg, _ := newCross(t)
	r := resolver.NewCrossModule(reg)

	_, err := r.Resolve(affinity(), namedVM{apis.TypeID{Module: "example.com/orphan", Name: "SomeViewModel"}})
	require.ErrorIs(t, err, apis.ErrNoModulesFound)
}

func TestResolve_CrossModuleAmbiguity(t *testing.T) {
	// "example.com/aaa" sorts before crossView and also supplies SomeView.
	extra := module.New("example.com/aaa")
	require.NoError(t, extra.Export((*Holder)(nil)))
	require.NoError(t, extra.Export(OtherSomeView{}, module.InNamespace("Zzz"), module.Named("SomeView")))
	reg, _ := newCross(t, extra)

	var buf bytes.Buffer
	r := resolver.NewCrossModule(reg, resolver.WithLogger(zerolog.New(&buf)))

	v, err := r.Resolve(affinity(), &SomeViewModel{})
	require.NoError(t, err)
	assert.IsType(t, &OtherSomeView{}, v)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "more than one view matches")
}

func TestResolve_Metrics(t *testing.T) {
	h, _ := newApp(t)
	preg := prometheus.NewRegistry()
	r := resolver.New(h, resolver.WithMetrics(metrics.New(preg)))

	_, _ = r.Resolve(affinity(), &MainWindowModel{})
	_, _ = r.Resolve(affinity(), &MainWindowModel{})
	_, _ = r.Resolve(affinity(), namedVM{apis.TypeID{Module: "example.com/missing", Namespace: "App.ViewModels", Name: "XModel"}})

	expected := `
# HELP vpx_cache_hits_total Total number of resolution cache hits
# TYPE vpx_cache_hits_total counter
vpx_cache_hits_total 1
# HELP vpx_cache_misses_total Total number of resolution cache misses
# TYPE vpx_cache_misses_total counter
vpx_cache_misses_total 1
# HELP vpx_resolutions_total Total number of view resolutions by outcome
# TYPE vpx_resolutions_total counter
vpx_resolutions_total{outcome="no_modules"} 1
vpx_resolutions_total{outcome="success"} 2
`
	require.NoError(t, testutil.GatherAndCompare(preg, strings.NewReader(expected),
		"vpx_cache_hits_total", "vpx_cache_misses_total", "vpx_resolutions_total"))
}

func TestResolve_LogsFailures(t *testing.T) {
	h, _ := newApp(t)
	var buf bytes.Buffer
	r := resolver.New(h, resolver.WithLogger(zerolog.New(&buf).Level(zerolog.ErrorLevel)))

	_, err := r.Resolve(context.Background(), &MainWindowModel{})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "view resolution failed")
}
