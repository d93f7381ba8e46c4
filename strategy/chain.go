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

// Chain constructs an apis.Identity that tries the given strategies in order.
// Nil strategies are ignored. The returned identity is safe for concurrent use
// provided strategies themselves are safe for concurrent TryIdentify calls.
func Chain(strategies ...apis.Strategy) apis.Identity {
	// Filter out nils to avoid nil-interface panics on call sites.
	out := make([]apis.Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			out = append(out, s)
		}
	}
	return chain{strats: out}
}

// Default returns the standard identity chain:
// Identifier -> Catalog (when cat is non-nil) -> Reflect.
func Default(cat apis.Catalog) apis.Identity {
	var c apis.Strategy
	if cat != nil {
		c = NewCatalogStrategy(cat)
	}
	return Chain(NewIdentifierStrategy(), c, NewReflectStrategy(0))
}

// chain is an immutable, order-preserving identity over a set of strategies.
type chain struct {
	strats []apis.Strategy
}

// Identify runs strategies in order until one handles the value.
// Returns the zero TypeID if no strategy produced an identity.
func (c chain) Identify(v any) apis.TypeID {
	for _, s := range c.strats {
		if id, ok := s.TryIdentify(v); ok {
			return id
		}
	}
	return apis.TypeID{}
}

// IdentifyType runs strategies in order until one handles the type.
// Returns the zero TypeID if no strategy produced an identity.
func (c chain) IdentifyType(t reflect.Type) apis.TypeID {
	for _, s := range c.strats {
		if id, ok := s.TryIdentifyType(t); ok {
			return id
		}
	}
	return apis.TypeID{}
}
