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

// Package naming derives view identifiers from view-model identifiers.
//
// All functions are pure. With the default configuration:
//
//	App.ViewModels.MainWindowModel   -> App.Views.MainWindow
//	App.ViewModels.DetailsViewModel  -> App.Views.DetailsView
package naming

import (
	"strings"
	"unicode/utf8"

	"dirpx.dev/vpx/apis"
)

// Separator joins namespace segments and the simple name.
const Separator = "."

// BuildNamespace derives the view namespace from vmNamespace by replacing
// the rightmost case-insensitive occurrence of vmSuffix with vSuffix.
// A blank vmNamespace yields "".
func BuildNamespace(vmNamespace, vmSuffix, vSuffix string) (string, error) {
	if isBlank(vmNamespace) {
		return "", nil
	}
	ns := vmNamespace
	if !isBlank(vmSuffix) {
		i := lastIndexFold(ns, vmSuffix)
		if i < 0 {
			return "", apis.Errorf(apis.ErrNamingMismatch,
				"namespace %q does not contain the view-model namespace suffix %q", vmNamespace, vmSuffix)
		}
		ns = strings.TrimRight(ns[:i], Separator)
	}
	return join(ns, vSuffix), nil
}

// BuildName derives the view simple name from vmName by stripping the
// rightmost case-sensitive occurrence of vmNameSuffix and appending
// vNameSuffix.
func BuildName(vmName, vmNameSuffix, vNameSuffix string) (string, error) {
	name := vmName
	if !isBlank(vmNameSuffix) {
		i := strings.LastIndex(name, vmNameSuffix)
		if i < 0 {
			return "", apis.Errorf(apis.ErrNamingMismatch,
				"name %q does not contain the view-model name suffix %q", vmName, vmNameSuffix)
		}
		name = name[:i]
	}
	return name + vNameSuffix, nil
}

// BuildFullName derives the fully qualified view name ("Namespace.Name")
// for the view-model identified by id.
func BuildFullName(id apis.TypeID, cfg apis.Config) (string, error) {
	ns, err := BuildNamespace(id.Namespace, cfg.ViewModelNamespaceSuffix, cfg.ViewNamespaceSuffix)
	if err != nil {
		return "", err
	}
	name, err := BuildName(id.Name, cfg.ViewModelNameSuffix, cfg.ViewNameSuffix)
	if err != nil {
		return "", err
	}
	if isBlank(ns) || isBlank(name) {
		return "", apis.Errorf(apis.ErrNamingMismatch,
			"could not build a view name from the view model %q", id.FullName())
	}
	return ns + Separator + name, nil
}

// BuildSimpleName derives the unqualified view name for the view-model
// identified by id. Namespace suffixes in cfg are ignored.
func BuildSimpleName(id apis.TypeID, cfg apis.Config) (string, error) {
	name, err := BuildName(id.Name, cfg.ViewModelNameSuffix, cfg.ViewNameSuffix)
	if err != nil {
		return "", err
	}
	if isBlank(name) {
		return "", apis.Errorf(apis.ErrNamingMismatch,
			"could not build a view name from the view model %q", id.FullName())
	}
	return name, nil
}

// join appends suffix to ns with a separator only when both are non-empty.
func join(ns, suffix string) string {
	switch {
	case isBlank(suffix):
		return ns
	case ns == "":
		return suffix
	default:
		return ns + Separator + suffix
	}
}

// lastIndexFold returns the byte index of the rightmost case-insensitive
// occurrence of substr in s, or -1. Runes are compared under Unicode simple
// folding, so matches may differ from substr in byte length.
func lastIndexFold(s, substr string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if utf8.RuneStart(s[i]) && hasPrefixFold(s[i:], substr) {
			return i
		}
	}
	return -1
}

// hasPrefixFold reports whether s begins with prefix under simple folding.
func hasPrefixFold(s, prefix string) bool {
	for prefix != "" {
		if s == "" {
			return false
		}
		_, n := utf8.DecodeRuneInString(s)
		_, m := utf8.DecodeRuneInString(prefix)
		if !strings.EqualFold(s[:n], prefix[:m]) {
			return false
		}
		s, prefix = s[n:], prefix[m:]
	}
	return true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
