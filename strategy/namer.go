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

// NewIdentifierStrategy creates an apis.Strategy that uses apis.Identifier.
func NewIdentifierStrategy() apis.Strategy {
	return &identifierStrategy{}
}

// identifierStrategy is a zero-cost fast path: if v implements apis.Identifier,
// return its ViewModelTypeID() and stop the chain.
type identifierStrategy struct{}

// Ensure identifierStrategy implements apis.Strategy.
var _ apis.Strategy = (*identifierStrategy)(nil)

// TryIdentify checks if v implements apis.Identifier and returns its ViewModelTypeID().
func (*identifierStrategy) TryIdentify(v any) (apis.TypeID, bool) {
	if v == nil {
		return apis.TypeID{}, false
	}
	if n, ok := v.(apis.Identifier); ok {
		id := n.ViewModelTypeID()
		return id, !id.IsZero()
	}
	return apis.TypeID{}, false
}

// TryIdentifyType always returns false: Identifier requires an instance.
func (*identifierStrategy) TryIdentifyType(_ reflect.Type) (apis.TypeID, bool) {
	// No instance -> cannot use Identifier.
	return apis.TypeID{}, false
}
