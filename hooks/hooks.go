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

// Package hooks provides the extension points run after a view is resolved:
// a broadcast bus of "view resolved" events and an ordered list of setup
// callbacks.
package hooks

import (
	"slices"
	"sync"

	"dirpx.dev/vpx/apis"
)

// Event is published once for every view that was constructed and bound.
// Setup callbacks run after publication and can still fail the resolution,
// so a subscriber may see a view the caller never receives.
type Event struct {
	// ViewModel is the value the view was resolved for.
	ViewModel any
	// View is the new view, already bound to ViewModel.
	View apis.View
}

// SetupFunc customizes a freshly resolved view. A non-nil error aborts the
// resolution and is returned to the caller unchanged.
type SetupFunc func(vm any, view apis.View) error

// Setup is an ordered list of setup callbacks.
type Setup []SetupFunc

// Run invokes the callbacks in order and stops at the first error.
// Panics are not recovered.
func (s Setup) Run(vm any, view apis.View) error {
	for _, fn := range s {
		if fn == nil {
			continue
		}
		if err := fn(vm, view); err != nil {
			return err
		}
	}
	return nil
}

// Bus broadcasts events to subscribers in subscription order.
// The zero value is ready to use and safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs []subscriber
	next uint64
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// Subscribe registers fn and returns a function removing it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.subs = slices.DeleteFunc(b.subs, func(s subscriber) bool { return s.id == id })
		})
	}
}

// Publish delivers e to every current subscriber on the calling goroutine.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
