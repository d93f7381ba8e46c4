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
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"dirpx.dev/vpx/apis"
)

// File is the on-disk start-up configuration.
//
//	naming:
//	  viewModelNamespaceSuffix: ViewModels
//	  viewNamespaceSuffix: Views
//	  viewModelNameSuffix: Model
//	  viewNameSuffix: ""
//	crossModule:
//	  viewModelNameSuffix: Model
//	registry:
//	  ignore: ["golang.org/x/tools/**"]
//	dispatch:
//	  promote: true
//
// Keys absent from the document keep their defaults; explicit empty
// strings are honored.
type File struct {
	// Naming configures the same-module resolver.
	Naming apis.Config `yaml:"naming"`
	// CrossModule configures the cross-module resolver.
	CrossModule apis.Config `yaml:"crossModule"`
	// Registry configures module scanning.
	Registry RegistryFile `yaml:"registry"`
	// Dispatch configures the affinity dispatcher.
	Dispatch DispatchFile `yaml:"dispatch"`
}

// RegistryFile is the registry section of File.
type RegistryFile struct {
	// Ignore lists module id globs (doublestar syntax) that are never scanned.
	Ignore []string `yaml:"ignore"`
}

// DispatchFile is the dispatch section of File.
type DispatchFile struct {
	// Promote allows pinning the calling goroutine to its OS thread when no
	// affinity executor is reachable.
	Promote bool `yaml:"promote"`
}

// DefaultFile returns the configuration used when no file is given.
func DefaultFile() File {
	return File{
		Naming:      DefaultConfig(),
		CrossModule: CrossModuleConfig(),
		Registry:    RegistryFile{Ignore: slices.Clone(DefaultIgnorePatterns)},
		Dispatch:    DispatchFile{Promote: true},
	}
}

// Parse decodes a YAML document on top of DefaultFile.
func Parse(data []byte) (File, error) {
	f := DefaultFile()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("config: parsing yaml: %w", err)
	}
	return f, nil
}

// Load reads and parses the file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Marshal encodes f as YAML.
func (f File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}
