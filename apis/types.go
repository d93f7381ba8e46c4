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
	"go/token"
	"reflect"
)

// TypeID identifies a view-model or view type independently of the Go
// runtime: the owning module, a dot-separated namespace and a simple name.
// TypeID is an immutable value and is compared structurally.
type TypeID struct {
	// Module is the id of the module that declares the type.
	Module string
	// Namespace is the dot-separated namespace of the type (may be empty).
	Namespace string
	// Name is the simple type name.
	Name string
}

// FullName returns "Namespace.Name", or just Name when the namespace is empty.
func (id TypeID) FullName() string {
	if id.Namespace == "" {
		return id.Name
	}
	return id.Namespace + "." + id.Name
}

// String returns "Module:Namespace.Name".
func (id TypeID) String() string {
	return id.Module + ":" + id.FullName()
}

// IsZero reports whether id carries no name.
func (id TypeID) IsZero() bool {
	return id.Name == ""
}

// Type is a catalog entry describing a type exported by a Module.
type Type struct {
	// ID is the convention-level identity of the type.
	ID TypeID
	// Reflect is the nearest named Go type. It may be an interface type.
	Reflect reflect.Type
	// New constructs a fresh instance. Nil when the type has no
	// zero-argument construction path.
	New func() any
}

// Public reports whether the type name is an exported Go identifier.
func (t Type) Public() bool {
	return token.IsExported(t.ID.Name)
}

// View is the minimal UI-element capability required of a resolved view.
// Implementations are pointer-to-struct types whose zero value is usable.
type View interface {
	// SetDataContext binds the view-model the view presents.
	SetDataContext(vm any)
	// DataContext returns the currently bound view-model.
	DataContext() any
}

// ViewHolder is declared by a module that supplies views for view-models
// living in other modules.
type ViewHolder interface {
	// ViewModelModules returns the ids of the view-model modules served.
	ViewModelModules() []string
}

// Identifier lets a view-model declare its own TypeID instead of having it
// derived from its Go type.
type Identifier interface {
	// ViewModelTypeID returns the identity used for view resolution.
	// It must not depend on mutable instance state.
	ViewModelTypeID() TypeID
}
