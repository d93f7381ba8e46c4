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

// Registry maps view-model modules to the modules that declare they supply
// their views. The edge set only grows for the lifetime of the process.
type Registry interface {
	Modules
	// Lookup returns a snapshot of the view module ids mapped from the
	// given view-model module, in insertion order. Empty is valid.
	Lookup(viewModelModule string) []string
	// Edges returns a snapshot of every edge (order is insertion order).
	Edges() []Edge
	// Count returns the number of edges.
	Count() int
}

// Edge is a single (view-model module, view module) association.
type Edge struct {
	// ViewModelModule is the id of the module declaring the view-models.
	ViewModelModule string
	// ViewModule is the id of the module supplying the views.
	ViewModule string
}
