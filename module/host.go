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

package module

import (
	"errors"
	"maps"
	"reflect"
	"slices"
	"sync"

	"dirpx.dev/vpx/apis"
)

// ErrDuplicateModule is returned when a different module with an already
// loaded id is loaded.
var ErrDuplicateModule = errors.New("vpx(module): duplicate module id")

// Host is an in-process module source. Modules become available through
// Load, which notifies every subscriber.
// It is safe for concurrent use.
type Host struct {
	mu   sync.RWMutex
	mods []apis.Module
	byID map[string]apis.Module
	subs map[uint64]func(apis.Module)
	next uint64
}

// Ensure Host implements the source contracts.
var (
	_ apis.ModuleSource = (*Host)(nil)
	_ apis.Catalog      = (*Host)(nil)
)

// NewHost creates a host with mods already loaded.
func NewHost(mods ...apis.Module) (*Host, error) {
	h := &Host{
		byID: make(map[string]apis.Module),
		subs: make(map[uint64]func(apis.Module)),
	}
	for _, m := range mods {
		if err := h.Load(m); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Load makes m available and notifies subscribers on the calling goroutine.
// Loading the same module twice is a no-op.
func (h *Host) Load(m apis.Module) error {
	if m == nil {
		return ErrNilType
	}

	h.mu.Lock()
	if old, ok := h.byID[m.ID()]; ok {
		h.mu.Unlock()
		if old == m {
			return nil
		}
		return ErrDuplicateModule
	}
	h.mods = append(h.mods, m)
	h.byID[m.ID()] = m
	subs := make([]func(apis.Module), 0, len(h.subs))
	for _, k := range slices.Sorted(maps.Keys(h.subs)) {
		subs = append(subs, h.subs[k])
	}
	h.mu.Unlock()

	// Notify outside the lock so subscribers may call back into the host.
	for _, fn := range subs {
		fn(m)
	}
	return nil
}

// Loaded returns every loaded module in load order.
func (h *Host) Loaded() []apis.Module {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.mods)
}

// Module returns the module with the given id.
func (h *Host) Module(id string) (apis.Module, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.byID[id]
	return m, ok
}

// Subscribe registers fn for modules loaded after the call.
func (h *Host) Subscribe(fn func(apis.Module)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	k := h.next
	h.next++
	h.subs[k] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, k)
		})
	}
}

// TypeOf searches loaded modules in load order for the entry of t.
// Modules that do not implement apis.Catalog are skipped.
func (h *Host) TypeOf(t reflect.Type) (apis.Type, bool) {
	for _, m := range h.Loaded() {
		if c, ok := m.(apis.Catalog); ok {
			if typ, ok := c.TypeOf(t); ok {
				return typ, true
			}
		}
	}
	return apis.Type{}, false
}
