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

package apis

import (
	"reflect"
)

// Strategy is a pluggable identity step. An Identity can chain multiple
// strategies in order (e.g., Identifier -> Catalog -> Reflect).
type Strategy interface {
	// TryIdentify attempts to compute the TypeID of value v.
	// It returns (id, true) if handled; otherwise (TypeID{}, false) to fall through.
	TryIdentify(v any) (id TypeID, handled bool)

	// TryIdentifyType attempts to compute the TypeID of the reflect.Type t.
	TryIdentifyType(t reflect.Type) (id TypeID, handled bool)
}

// Identity computes the concrete TypeID of a view-model.
type Identity interface {
	// Identify returns the TypeID of v, or the zero TypeID if none can be determined.
	Identify(v any) TypeID

	// IdentifyType returns the TypeID of t, or the zero TypeID if none can be determined.
	IdentifyType(t reflect.Type) TypeID
}

// Lookup is a type lookup policy over a set of candidate modules.
type Lookup interface {
	// Find returns every type in modules matching target. The result is
	// ordered deterministically; zero matches is not an error.
	Find(target string, modules []Module) []Type
}
