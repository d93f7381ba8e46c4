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

// Package cache provides a write-once cache whose values are computed at
// most once per key, even under concurrent first-time callers.
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Cache maps keys to values computed on first use. Entries are never
// evicted; failed computations are not stored and are retried by the next
// caller. The zero value is not usable; use New.
type Cache[K interface {
	comparable
	fmt.Stringer
}, V any] struct {
	// m maps K to V.
	m sync.Map
	// g collapses concurrent computations of one key.
	g singleflight.Group
	// n counts stored entries.
	n atomic.Int64
}

// New creates an empty cache.
func New[K interface {
	comparable
	fmt.Stringer
}, V any]() *Cache[K, V] {
	return &Cache[K, V]{}
}

// Get returns the value stored for k.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	if v, ok := c.m.Load(k); ok {
		return v.(V), true
	}
	var zero V
	return zero, false
}

// GetOrCompute returns the value stored for k, computing it with fn on a
// miss. hit reports whether the value came from the cache. Concurrent
// callers missing on the same key share one invocation of fn and observe
// its result or error.
//
// Flights are grouped by k.String(), which need not be unique: a caller
// that joined the flight of a different key with the same string runs its
// own flight afterwards.
func (c *Cache[K, V]) GetOrCompute(k K, fn func() (V, error)) (v V, hit bool, err error) {
	for {
		if v, ok := c.Get(k); ok {
			return v, true, nil
		}

		res, _, _ := c.g.Do(k.String(), func() (any, error) {
			// Re-check: a previous flight may have stored k after our miss.
			if v, ok := c.m.Load(k); ok {
				return flight[K, V]{k: k, v: v.(V)}, nil
			}
			v, err := fn()
			if err != nil {
				return flight[K, V]{k: k, err: err}, nil
			}
			if _, loaded := c.m.LoadOrStore(k, v); !loaded {
				c.n.Add(1)
			}
			return flight[K, V]{k: k, v: v}, nil
		})
		if f := res.(flight[K, V]); f.k == k {
			return f.v, false, f.err
		}
	}
}

// flight is the outcome of one computation, tagged with its key.
type flight[K comparable, V any] struct {
	k   K
	v   V
	err error
}

// Len returns the number of stored entries.
func (c *Cache[K, V]) Len() int {
	return int(c.n.Load())
}
