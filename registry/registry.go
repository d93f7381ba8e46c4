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

// Package registry maintains the mapping from view-model modules to the
// modules that supply their views.
//
// A module declares that it supplies views for other modules by exporting a
// type implementing apis.ViewHolder. The registry scans every loaded module
// once at construction and each module loaded afterwards, on notification.
package registry

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/config"
	"dirpx.dev/vpx/metrics"
)

var holderType = reflect.TypeFor[apis.ViewHolder]()

// Option configures a Registry.
type Option func(*Registry)

// WithIgnore replaces the ignore patterns. Patterns use doublestar syntax
// and are matched against module ids.
func WithIgnore(patterns ...string) Option {
	return func(r *Registry) { r.ignore = slices.Clone(patterns) }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// Registry is an append-only multimap from view-model module ids to view
// module ids. Lookups take a shared lock; scans take the exclusive one.
type Registry struct {
	src     apis.ModuleSource
	ignore  []string
	log     zerolog.Logger
	metrics *metrics.Metrics

	unsubscribe func()

	// mu guards the fields below.
	mu sync.RWMutex
	// edges holds every edge in insertion order.
	edges []apis.Edge
	// index maps a view-model module id to its view module ids.
	index map[string][]string
	// seen is the set of stored edges.
	seen map[apis.Edge]struct{}
	// scanned is the set of module ids already handled.
	scanned map[string]struct{}
	// order lists scanned module ids in scan order.
	order []string
}

// Ensure Registry implements the registry and catalog contracts.
var (
	_ apis.Registry = (*Registry)(nil)
	_ apis.Catalog  = (*Registry)(nil)
)

// New creates a registry over src. It subscribes to module notifications
// and then scans every module already loaded.
func New(src apis.ModuleSource, opts ...Option) (*Registry, error) {
	r := &Registry{
		src:     src,
		ignore:  slices.Clone(config.DefaultIgnorePatterns),
		log:     zerolog.Nop(),
		index:   make(map[string][]string),
		seen:    make(map[apis.Edge]struct{}),
		scanned: make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	for _, p := range r.ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("vpx(registry): invalid ignore pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}
	if src == nil {
		return r, nil
	}

	// Subscribe before the initial scan so no module is missed; a module
	// observed by both paths is scanned once.
	r.unsubscribe = src.Subscribe(r.scan)
	for _, m := range src.Loaded() {
		r.scan(m)
	}
	return r, nil
}

// Close stops listening for module notifications. Existing edges remain.
func (r *Registry) Close() error {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	return nil
}

// scan adds the edges declared by the view holders of m.
func (r *Registry) scan(m apis.Module) {
	if m == nil {
		return
	}
	id := m.ID()
	log := r.log.With().Str("module", id).Logger()

	r.mu.Lock()
	if _, ok := r.scanned[id]; ok {
		r.mu.Unlock()
		return
	}
	r.scanned[id] = struct{}{}
	r.order = append(r.order, id)
	r.mu.Unlock()

	switch {
	case m.Dynamic():
		log.Debug().Msg("skipping dynamic module")
		r.metrics.ModuleSeen(metrics.ScanDynamic)
		return
	case r.ignored(id):
		log.Debug().Msg("skipping ignored module")
		r.metrics.ModuleSeen(metrics.ScanIgnored)
		return
	}

	// Holders are constructed outside the lock.
	var found []apis.Edge
	for _, t := range m.Types() {
		if !isHolder(t) {
			continue
		}
		if t.New == nil {
			log.Debug().Str("type", t.ID.FullName()).Msg("skipping view holder without constructor")
			continue
		}
		h, ok := t.New().(apis.ViewHolder)
		if !ok {
			log.Debug().Str("type", t.ID.FullName()).Msg("constructed value is not a view holder")
			continue
		}
		for _, vm := range h.ViewModelModules() {
			found = append(found, apis.Edge{ViewModelModule: vm, ViewModule: id})
		}
	}

	r.mu.Lock()
	added := 0
	for _, e := range found {
		if r.addLocked(e) {
			added++
		}
	}
	total := len(r.edges)
	r.mu.Unlock()

	r.metrics.ModuleSeen(metrics.ScanScanned)
	r.metrics.SetEdges(total)
	log.Debug().Int("edges", added).Msg("scanned module")
}

// addLocked stores e once and reports whether it was new.
func (r *Registry) addLocked(e apis.Edge) bool {
	if e.ViewModelModule == "" {
		return false
	}
	if _, ok := r.seen[e]; ok {
		return false
	}
	r.seen[e] = struct{}{}
	r.edges = append(r.edges, e)
	r.index[e.ViewModelModule] = append(r.index[e.ViewModelModule], e.ViewModule)
	return true
}

func (r *Registry) ignored(id string) bool {
	for _, p := range r.ignore {
		if ok, _ := doublestar.Match(p, id); ok {
			return true
		}
	}
	return false
}

// isHolder reports whether t is a public, concrete type whose value or
// pointer method set implements apis.ViewHolder.
func isHolder(t apis.Type) bool {
	if t.Reflect == nil || !t.Public() || t.Reflect.Kind() == reflect.Interface {
		return false
	}
	return t.Reflect.Implements(holderType) || reflect.PointerTo(t.Reflect).Implements(holderType)
}

// Lookup returns a snapshot of the view module ids mapped from vmModule.
func (r *Registry) Lookup(vmModule string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.index[vmModule])
}

// Module returns the module with the given id from the underlying source.
func (r *Registry) Module(id string) (apis.Module, bool) {
	if r.src == nil {
		return nil, false
	}
	return r.src.Module(id)
}

// TypeOf delegates to the source when it is also an apis.Catalog.
func (r *Registry) TypeOf(t reflect.Type) (apis.Type, bool) {
	if c, ok := r.src.(apis.Catalog); ok {
		return c.TypeOf(t)
	}
	return apis.Type{}, false
}

// Edges returns a snapshot of every edge in insertion order.
func (r *Registry) Edges() []apis.Edge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.edges)
}

// Count returns the number of edges.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.edges)
}

// Scanned returns the ids of every module handled so far, including
// skipped ones, in scan order.
func (r *Registry) Scanned() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}
