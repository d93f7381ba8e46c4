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

	"dirpx.dev/vpx/apis"
)

// NewCatalogStrategy creates an apis.Strategy that uses a module catalog.
func NewCatalogStrategy(cat apis.Catalog) apis.Strategy {
	return &catalogStrategy{cat: cat}
}

// catalogStrategy consults the types explicitly exported by loaded modules.
type catalogStrategy struct {
	cat apis.Catalog
}

// Ensure catalogStrategy implements apis.Strategy.
var _ apis.Strategy = (*catalogStrategy)(nil)

// TryIdentify looks up v's type in the catalog.
func (s *catalogStrategy) TryIdentify(v any) (apis.TypeID, bool) {
	if v == nil {
		return apis.TypeID{}, false
	}
	return s.TryIdentifyType(reflect.TypeOf(v))
}

// TryIdentifyType looks up t in the catalog.
func (s *catalogStrategy) TryIdentifyType(t reflect.Type) (apis.TypeID, bool) {
	if t == nil || s.cat == nil {
		return apis.TypeID{}, false
	}
	typ, ok := s.cat.TypeOf(t)
	if !ok {
		return apis.TypeID{}, false
	}
	return typ.ID, true
}
