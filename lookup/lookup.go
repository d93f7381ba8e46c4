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

// Package lookup implements the type lookup policies used by resolvers.
//
// Both policies return every match sorted by TypeID.String(), so the first
// element is stable across runs regardless of module load order.
package lookup

import (
	"slices"
	"strings"

	"dirpx.dev/vpx/apis"
)

// Qualified returns a policy matching the fully qualified name exactly.
func Qualified() apis.Lookup {
	return qualified{}
}

// Unqualified returns a policy matching the simple name of public types.
func Unqualified() apis.Lookup {
	return unqualified{}
}

type qualified struct{}

// Find looks up target in every module by full name.
func (qualified) Find(target string, modules []apis.Module) []apis.Type {
	var out []apis.Type
	for _, m := range modules {
		if m == nil {
			continue
		}
		if t, ok := m.Lookup(target); ok {
			out = append(out, t)
		}
	}
	return sortTypes(out)
}

type unqualified struct{}

// Find scans every public type of every module for the simple name target.
func (unqualified) Find(target string, modules []apis.Module) []apis.Type {
	var out []apis.Type
	for _, m := range modules {
		if m == nil {
			continue
		}
		for _, t := range m.Types() {
			if t.ID.Name == target && t.Public() {
				out = append(out, t)
			}
		}
	}
	return sortTypes(out)
}

func sortTypes(ts []apis.Type) []apis.Type {
	slices.SortStableFunc(ts, func(a, b apis.Type) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return ts
}
