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
	"errors"
	"fmt"
)

var (
	// ErrNamingMismatch is returned when the naming convention cannot derive
	// a non-empty view identifier from a view-model identifier.
	ErrNamingMismatch = errors.New("vpx: naming mismatch")
	// ErrNoModulesFound is returned when no candidate module could hold the view.
	ErrNoModulesFound = errors.New("vpx: no view modules found")
	// ErrNoViewFound is returned when no type matches the derived identifier.
	ErrNoViewFound = errors.New("vpx: no view found")
	// ErrNotInstantiable is returned when the matched type cannot be
	// constructed as a view.
	ErrNotInstantiable = errors.New("vpx: view not instantiable")
	// ErrAffinityRequired is returned when no route to an affinity-holding
	// context exists. It is fatal and not retryable.
	ErrAffinityRequired = errors.New("vpx: affinity context required")
)

// kinds lists every resolution error kind.
var kinds = []error{
	ErrNamingMismatch,
	ErrNoModulesFound,
	ErrNoViewFound,
	ErrNotInstantiable,
	ErrAffinityRequired,
}

// Error is a resolution failure of a given kind with a descriptive message.
type Error struct {
	// Kind is one of the sentinel errors above.
	Kind error
	// Message describes the failure.
	Message string
}

// Errorf creates an *Error of the given kind.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Unwrap returns the kind for errors.Is support.
func (e *Error) Unwrap() error {
	return e.Kind
}

// IsResolutionError reports whether err is of any resolution error kind.
func IsResolutionError(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
