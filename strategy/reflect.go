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

package strategy

import (
	"reflect"
	"sync"

	"dirpx.dev/vpx/apis"
	uref "dirpx.dev/vpx/utils/reflect"
)

// NewReflectStrategy creates an apis.Strategy that derives identities via
// reflection using utils/reflect.Normalize and memoization.
// maxUnwrap <= 0 selects the default depth.
func NewReflectStrategy(maxUnwrap int) apis.Strategy {
	return &reflectStrategy{maxUnwrap: maxUnwrap}
}

// reflectStrategy is the universal fallback that derives a TypeID from the
// Go type: module and namespace from the package path, name from the type.
// It unwraps containers (ptr/slice/array/chan/map) via Normalize and strips
// generic instantiation parameters. Builtin and unnamed types are not handled.
type reflectStrategy struct {
	maxUnwrap int
	// cache maps reflect.Type to apis.TypeID (zero TypeID for unhandled types).
	cache sync.Map
}

// Ensure reflectStrategy implements apis.Strategy.
var _ apis.Strategy = (*reflectStrategy)(nil)

// TryIdentify derives the TypeID of v's type.
func (s *reflectStrategy) TryIdentify(v any) (apis.TypeID, bool) {
	if v == nil {
		return apis.TypeID{}, false
	}
	return s.TryIdentifyType(reflect.TypeOf(v))
}

// TryIdentifyType derives the TypeID of t.
func (s *reflectStrategy) TryIdentifyType(t reflect.Type) (apis.TypeID, bool) {
	if t == nil {
		return apis.TypeID{}, false
	}
	if v, ok := s.cache.Load(t); ok {
		id := v.(apis.TypeID)
		return id, !id.IsZero()
	}

	var id apis.TypeID
	if base, err := uref.Normalize(t, s.maxUnwrap); err == nil && base.PkgPath() != "" {
		id = uref.TypeID(base)
	}
	s.cache.Store(t, id)
	return id, !id.IsZero()
}
