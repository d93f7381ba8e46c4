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

// Package resolver resolves, constructs and binds the view presenting a
// view-model.
//
// Two policies are provided. The same-module policy (New) derives a fully
// qualified view name and looks for it in the view-model's own module. The
// cross-module policy (NewCrossModule) derives only the simple name and
// looks for it in every module registered as a view holder for the
// view-model's module. Chain combines several providers.
package resolver

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/cache"
	"dirpx.dev/vpx/config"
	"dirpx.dev/vpx/dispatch"
	"dirpx.dev/vpx/hooks"
	"dirpx.dev/vpx/lookup"
	"dirpx.dev/vpx/metrics"
	"dirpx.dev/vpx/naming"
	"dirpx.dev/vpx/strategy"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithConfig sets the naming convention.
func WithConfig(cfg apis.Config) Option {
	return func(r *Resolver) { r.cfg = cfg }
}

// WithDispatcher sets the dispatcher used to construct views.
func WithDispatcher(d apis.Dispatcher) Option {
	return func(r *Resolver) { r.dispatcher = d }
}

// WithSetup appends setup callbacks, run in order after each resolution.
func WithSetup(fns ...hooks.SetupFunc) Option {
	return func(r *Resolver) { r.setup = append(r.setup, fns...) }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithIdentity replaces the identity used to compute view-model TypeIDs.
func WithIdentity(id apis.Identity) Option {
	return func(r *Resolver) { r.identity = id }
}

// WithLookup replaces the policy's type lookup.
func WithLookup(l apis.Lookup) Option {
	return func(r *Resolver) { r.lookup = l }
}

// Resolver resolves views for view-models. It is safe for concurrent use.
//
// The view type found for a view-model is cached for the lifetime of the
// Resolver; failures are not cached.
type Resolver struct {
	cfg        apis.Config
	mods       apis.Modules
	reg        apis.Registry
	cross      bool
	identity   apis.Identity
	lookup     apis.Lookup
	dispatcher apis.Dispatcher
	setup      hooks.Setup
	bus        hooks.Bus
	cache      *cache.Cache[cacheKey, apis.Type]
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

// Ensure Resolver implements apis.Provider.
var _ apis.Provider = (*Resolver)(nil)

// cacheKey identifies one resolution: the view-model and the explicit
// module hint, if any.
type cacheKey struct {
	vm     apis.TypeID
	module string
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%q %q %q %q", k.vm.Module, k.vm.Namespace, k.vm.Name, k.module)
}

// New creates a same-module resolver. Views are looked up by fully
// qualified name in the view-model's own module, found through mods.
func New(mods apis.Modules, opts ...Option) *Resolver {
	r := newResolver(config.DefaultConfig(), lookup.Qualified(), opts)
	r.mods = mods
	r.init(mods)
	return r
}

// NewCrossModule creates a cross-module resolver. Views are looked up by
// simple name in the modules reg maps the view-model's module to.
func NewCrossModule(reg apis.Registry, opts ...Option) *Resolver {
	r := newResolver(config.CrossModuleConfig(), lookup.Unqualified(), opts)
	r.mods = reg
	r.reg = reg
	r.cross = true
	r.init(reg)
	return r
}

func newResolver(cfg apis.Config, l apis.Lookup, opts []Option) *Resolver {
	r := &Resolver{
		cfg:    cfg,
		lookup: l,
		cache:  cache.New[cacheKey, apis.Type](),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// init fills in defaults that depend on the module set.
func (r *Resolver) init(mods apis.Modules) {
	if r.identity == nil {
		cat, _ := mods.(apis.Catalog)
		r.identity = strategy.Default(cat)
	}
	if r.dispatcher == nil {
		r.dispatcher = dispatch.New(dispatch.WithLogger(r.log), dispatch.WithMetrics(r.metrics))
	}
	if r.lookup == nil {
		r.lookup = lookup.Qualified()
	}
}

// Config returns the naming convention of r.
func (r *Resolver) Config() apis.Config {
	return r.cfg
}

// Subscribe registers fn for "view resolved" events.
func (r *Resolver) Subscribe(fn func(hooks.Event)) (unsubscribe func()) {
	return r.bus.Subscribe(fn)
}

// Resolve returns a new view bound to vm. A nil vm yields (nil, nil).
// ctx only carries dispatch affinity; it is never checked for cancellation.
func (r *Resolver) Resolve(ctx context.Context, vm any) (apis.View, error) {
	return r.ResolveIn(ctx, vm, nil)
}

// ResolveIn is Resolve restricted to the views exported by module.
// A nil module behaves like Resolve.
func (r *Resolver) ResolveIn(ctx context.Context, vm any, module apis.Module) (apis.View, error) {
	if isNil(vm) {
		return nil, nil
	}
	start := time.Now()
	view, err := r.resolve(ctx, vm, module)
	r.metrics.ObserveResolution(err, time.Since(start))
	if err != nil {
		r.log.Error().Err(err).Str("view_model", fmt.Sprintf("%T", vm)).Msg("view resolution failed")
		return nil, err
	}
	return view, nil
}

func (r *Resolver) resolve(ctx context.Context, vm any, module apis.Module) (apis.View, error) {
	id := r.identity.Identify(vm)
	if id.IsZero() {
		return nil, apis.Errorf(apis.ErrNamingMismatch, "cannot identify the view model type %T", vm)
	}

	typ, err := r.viewType(id, module)
	if err != nil {
		return nil, err
	}
	if err := checkInstantiable(typ); err != nil {
		return nil, err
	}
	return r.dispatcher.Run(ctx, func(context.Context) (apis.View, error) {
		view, err := construct(typ)
		if err != nil {
			return nil, err
		}
		// The data context is always overwritten.
		view.SetDataContext(vm)
		r.bus.Publish(hooks.Event{ViewModel: vm, View: view})
		if err := r.setup.Run(vm, view); err != nil {
			return nil, err
		}
		return view, nil
	})
}

// ViewType returns the view type for view-models of type t without
// constructing a view. It shares the resolution cache with Resolve.
func (r *Resolver) ViewType(t reflect.Type) (apis.Type, error) {
	id := r.identity.IdentifyType(t)
	if id.IsZero() {
		return apis.Type{}, apis.Errorf(apis.ErrNamingMismatch, "cannot identify the view model type %v", t)
	}
	return r.viewType(id, nil)
}

// viewType returns the cached view type for id, finding it on a miss.
func (r *Resolver) viewType(id apis.TypeID, module apis.Module) (apis.Type, error) {
	key := cacheKey{vm: id}
	if module != nil {
		key.module = module.ID()
	}
	typ, hit, err := r.cache.GetOrCompute(key, func() (apis.Type, error) {
		return r.find(id, module)
	})
	if err != nil {
		return apis.Type{}, err
	}
	if hit {
		r.metrics.CacheHit()
	} else {
		r.metrics.CacheMiss()
	}
	return typ, nil
}

// find derives the view name for id and looks it up in the candidate modules.
func (r *Resolver) find(id apis.TypeID, module apis.Module) (apis.Type, error) {
	var (
		target string
		err    error
	)
	if r.cross {
		target, err = naming.BuildSimpleName(id, r.cfg)
	} else {
		target, err = naming.BuildFullName(id, r.cfg)
	}
	if err != nil {
		return apis.Type{}, err
	}
	log := r.log.With().Str("view_model", id.String()).Str("target", target).Logger()
	log.Debug().Msg("derived view name")

	mods := r.candidates(id, module)
	if len(mods) == 0 {
		return apis.Type{}, apis.Errorf(apis.ErrNoModulesFound,
			"could not find modules containing the views for the view model %q", id.String())
	}

	matches := r.lookup.Find(target, mods)
	switch len(matches) {
	case 0:
		return apis.Type{}, apis.Errorf(apis.ErrNoViewFound,
			"could not find a view named %q for the view model %q in the modules %s",
			target, id.String(), moduleIDs(mods))
	case 1:
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.ID.String())
		}
		log.Warn().Strs("matches", names).Msg("more than one view matches; the first one will be used")
	}
	log.Debug().Str("view", matches[0].ID.String()).Msg("resolved view type")
	return matches[0], nil
}

// candidates returns the modules that may hold the view for id.
func (r *Resolver) candidates(id apis.TypeID, module apis.Module) []apis.Module {
	if module != nil {
		return []apis.Module{module}
	}
	if !r.cross {
		if r.mods == nil {
			return nil
		}
		if m, ok := r.mods.Module(id.Module); ok {
			return []apis.Module{m}
		}
		return nil
	}
	if r.reg == nil {
		return nil
	}

	ids := r.reg.Lookup(id.Module)
	out := make([]apis.Module, 0, len(ids))
	for _, mid := range ids {
		if m, ok := r.reg.Module(mid); ok {
			out = append(out, m)
			continue
		}
		r.log.Debug().Str("module", mid).Msg("registered view module is not loaded")
	}
	return out
}

var viewType = reflect.TypeFor[apis.View]()

// checkInstantiable rejects view types that can never be constructed. It
// runs before dispatch so the caller needs no affinity to learn it.
func checkInstantiable(t apis.Type) error {
	name := t.ID.String()
	if t.Reflect != nil {
		switch k := t.Reflect.Kind(); {
		case k == reflect.Interface:
			return apis.Errorf(apis.ErrNotInstantiable, "the view %q is abstract", name)
		case k != reflect.Struct:
			return apis.Errorf(apis.ErrNotInstantiable, "the view %q is a value type of kind %s", name, k)
		case !reflect.PointerTo(t.Reflect).Implements(viewType):
			return apis.Errorf(apis.ErrNotInstantiable, "the type %s of %q is not a view", t.Reflect, name)
		}
	}
	if t.New == nil {
		return apis.Errorf(apis.ErrNotInstantiable, "the view %q has no zero-argument constructor", name)
	}
	return nil
}

// construct calls the constructor of t, which passed checkInstantiable.
func construct(t apis.Type) (apis.View, error) {
	name := t.ID.String()
	v := t.New()
	if v == nil {
		return nil, apis.Errorf(apis.ErrNotInstantiable, "the constructor of the view %q returned nil", name)
	}
	if reflect.TypeOf(v).Kind() != reflect.Pointer {
		return nil, apis.Errorf(apis.ErrNotInstantiable, "the constructor of the view %q returns a %T value, not a pointer", name, v)
	}
	view, ok := v.(apis.View)
	if !ok || isNil(view) {
		return nil, apis.Errorf(apis.ErrNotInstantiable, "the type %T of %q is not a view", v, name)
	}
	return view, nil
}

func moduleIDs(mods []apis.Module) string {
	ids := make([]string, 0, len(mods))
	for _, m := range mods {
		ids = append(ids, fmt.Sprintf("%q", m.ID()))
	}
	return strings.Join(ids, ", ")
}

// isNil reports whether v is nil or a typed nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
