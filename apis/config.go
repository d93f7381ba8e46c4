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

// Config carries the naming convention used to derive a view identifier
// from a view-model identifier.
// It is passed by value and must be treated as immutable once a Resolver
// has been constructed with it.
type Config struct {
	// ViewModelNamespaceSuffix is the namespace segment that marks view-models
	// (e.g. "ViewModels"). Matched case-insensitively, rightmost occurrence.
	// Empty means the view-model namespace is used unchanged.
	ViewModelNamespaceSuffix string `yaml:"viewModelNamespaceSuffix"`

	// ViewNamespaceSuffix replaces ViewModelNamespaceSuffix in the derived
	// view namespace (e.g. "Views"). Empty appends nothing.
	ViewNamespaceSuffix string `yaml:"viewNamespaceSuffix"`

	// ViewModelNameSuffix is stripped from the view-model's simple name
	// (e.g. "Model"). Matched case-sensitively, rightmost occurrence.
	ViewModelNameSuffix string `yaml:"viewModelNameSuffix"`

	// ViewNameSuffix is appended to the stripped simple name.
	ViewNameSuffix string `yaml:"viewNameSuffix"`
}
