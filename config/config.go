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

package config

import (
	"dirpx.dev/vpx/apis"
)

const (
	// DefaultViewModelNamespaceSuffix is the default for ViewModelNamespaceSuffix.
	DefaultViewModelNamespaceSuffix = "ViewModels"
	// DefaultViewNamespaceSuffix is the default for ViewNamespaceSuffix.
	DefaultViewNamespaceSuffix = "Views"
	// DefaultViewModelNameSuffix is the default for ViewModelNameSuffix.
	// "MainWindowModel" becomes "MainWindow", "DetailsViewModel" becomes "DetailsView".
	DefaultViewModelNameSuffix = "Model"
	// DefaultViewNameSuffix is the default for ViewNameSuffix.
	DefaultViewNameSuffix = ""
	// DefaultMaxUnwrap bounds container unwrapping when deriving a Go type's
	// identity. A value of 8 should be sufficient for all practical purposes.
	DefaultMaxUnwrap = 8
)

// DefaultIgnorePatterns are module id globs never probed for view holders.
// Tooling-internal modules can destabilize an editor host when probed.
var DefaultIgnorePatterns = []string{"golang.org/x/tools/**"}

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		ViewModelNamespaceSuffix: DefaultViewModelNamespaceSuffix,
		ViewNamespaceSuffix:      DefaultViewNamespaceSuffix,
		ViewModelNameSuffix:      DefaultViewModelNameSuffix,
		ViewNameSuffix:           DefaultViewNameSuffix,
	}
}

// CrossModuleConfig is the default for resolvers whose views live in other
// modules. Namespaces of independent modules are unrelated, so only the
// name suffixes apply.
func CrossModuleConfig() apis.Config {
	return apis.Config{
		ViewModelNameSuffix: DefaultViewModelNameSuffix,
		ViewNameSuffix:      DefaultViewNameSuffix,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithViewModelNamespaceSuffix sets the ViewModelNamespaceSuffix option.
func WithViewModelNamespaceSuffix(s string) Option {
	return func(c *apis.Config) {
		c.ViewModelNamespaceSuffix = s
	}
}

// WithViewNamespaceSuffix sets the ViewNamespaceSuffix option.
func WithViewNamespaceSuffix(s string) Option {
	return func(c *apis.Config) {
		c.ViewNamespaceSuffix = s
	}
}

// WithViewModelNameSuffix sets the ViewModelNameSuffix option.
func WithViewModelNameSuffix(s string) Option {
	return func(c *apis.Config) {
		c.ViewModelNameSuffix = s
	}
}

// WithViewNameSuffix sets the ViewNameSuffix option.
func WithViewNameSuffix(s string) Option {
	return func(c *apis.Config) {
		c.ViewNameSuffix = s
	}
}

// WithoutSuffixes clears all four suffixes; view identifiers then equal
// view-model identifiers.
func WithoutSuffixes() Option {
	return func(c *apis.Config) {
		*c = apis.Config{}
	}
}
