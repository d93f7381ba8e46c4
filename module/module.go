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

// Package module provides explicit module registration.
//
// Go cannot enumerate the types of a package at runtime, so a module lists
// the types it exports:
//
//	m := module.New("example.com/app/views")
//	m.Export((*MainWindow)(nil), module.InNamespace("App.Views"))
//	m.ExportConstructor(NewDetailsView, module.InNamespace("App.Views"))
//
// Modules are made available to the engine through a Host.
package module

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/config"
	uref "dirpx.dev/vpx/utils/reflect"
)

var (
	// ErrNilType is returned when a nil value or type is exported.
	ErrNilType = errors.New("vpx(module): nil type provided")
	// ErrEmptyName is returned when an empty module id or type name is provided.
	ErrEmptyName = errors.New("vpx(module): empty name provided")
	// ErrConflictingRegistration indicates an attempt to re-export a type
	// under a different identity, or two types under one full name.
	ErrConflictingRegistration = errors.New("vpx(module): conflicting type registration")
	// ErrInvalidConstructor is returned when ExportConstructor is given
	// something other than a function with one result.
	ErrInvalidConstructor = errors.New("vpx(module): constructor must be a func with one result")
)

// Option configures a Module.
type Option func(*Module)

// Dynamic marks the module as generated at runtime.
func Dynamic() Option {
	return func(m *Module) { m.dynamic = true }
}

// WithMaxUnwrap sets the container unwrapping depth used to find the
// nearest named type of exported values.
func WithMaxUnwrap(n int) Option {
	return func(m *Module) { m.maxUnwrap = n }
}

// ExportOption overrides the derived identity of an exported type.
type ExportOption func(*apis.TypeID)

// InNamespace sets the namespace of the exported type. By default the
// namespace is the package path with "/" replaced by ".".
func InNamespace(ns string) ExportOption {
	return func(id *apis.TypeID) { id.Namespace = ns }
}

// Named sets the simple name of the exported type. By default it is the
// Go type name without instantiation parameters.
func Named(name string) ExportOption {
	return func(id *apis.TypeID) { id.Name = name }
}

// Module is a named catalog of exported types.
// It is safe for concurrent use.
type Module struct {
	id        string
	dynamic   bool
	maxUnwrap int

	// mu guards the catalog below.
	mu sync.RWMutex
	// types holds entries in export order.
	types []apis.Type
	// byType maps the normalized reflect.Type to its index in types.
	byType map[reflect.Type]int
	// byName maps FullName to its index in types.
	byName map[string]int
}

// Ensure Module implements the catalog contracts.
var (
	_ apis.Module  = (*Module)(nil)
	_ apis.Catalog = (*Module)(nil)
)

// New creates an empty module with the given id.
// The id is by convention the Go import path of the package.
func New(id string, opts ...Option) *Module {
	m := &Module{
		id:        id,
		maxUnwrap: config.DefaultMaxUnwrap,
		byType:    make(map[reflect.Type]int),
		byName:    make(map[string]int),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// ID returns the module id.
func (m *Module) ID() string { return m.id }

// Dynamic reports whether the module was generated at runtime.
func (m *Module) Dynamic() bool { return m.dynamic }

// Export adds the nearest named type of v to the catalog. v may be a value,
// a typed nil pointer such as (*MainWindow)(nil), or a reflect.Type.
// Struct types get a constructor returning a pointer to a zero value;
// interface types get none.
//
// Exporting the same type with the same identity again is a no-op.
func (m *Module) Export(v any, opts ...ExportOption) error {
	var t reflect.Type
	switch x := v.(type) {
	case nil:
		return ErrNilType
	case reflect.Type:
		t = x
	default:
		t = reflect.TypeOf(v)
	}

	base, err := uref.Normalize(t, m.maxUnwrap)
	if err != nil {
		return err
	}

	var ctor func() any
	if base.Kind() != reflect.Interface {
		ctor = func() any { return reflect.New(base).Interface() }
	}
	return m.add(base, ctor, opts)
}

// ExportConstructor adds the type returned by fn, a function with exactly
// one result. A function without parameters becomes the type's constructor;
// one with parameters is recorded without a zero-argument construction path.
func (m *Module) ExportConstructor(fn any, opts ...ExportOption) error {
	if fn == nil {
		return ErrNilType
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func || ft.NumOut() != 1 || fv.IsNil() {
		return ErrInvalidConstructor
	}

	base, err := uref.Normalize(ft.Out(0), m.maxUnwrap)
	if err != nil {
		return err
	}

	var ctor func() any
	if ft.NumIn() == 0 && !ft.IsVariadic() {
		ctor = func() any { return fv.Call(nil)[0].Interface() }
	}
	return m.add(base, ctor, opts)
}

// MustExport is like Export for every value in vs but panics on error.
// It is intended for package-level module declarations.
func (m *Module) MustExport(vs ...any) *Module {
	for _, v := range vs {
		if err := m.Export(v); err != nil {
			panic(err)
		}
	}
	return m
}

func (m *Module) add(base reflect.Type, ctor func() any, opts []ExportOption) error {
	id := apis.TypeID{
		Module:    m.id,
		Namespace: uref.Namespace(base.PkgPath()),
		Name:      uref.StripTypeParams(base.Name()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&id)
		}
	}
	if strings.TrimSpace(m.id) == "" || strings.TrimSpace(id.Name) == "" {
		return ErrEmptyName
	}
	full := id.FullName()

	// Fast read path: idempotency / conflict check.
	m.mu.RLock()
	done, err := m.checkLocked(base, id, full)
	m.mu.RUnlock()
	if done || err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if done, err := m.checkLocked(base, id, full); done || err != nil {
		return err
	}

	m.types = append(m.types, apis.Type{ID: id, Reflect: base, New: ctor})
	m.byType[base] = len(m.types) - 1
	m.byName[full] = len(m.types) - 1
	return nil
}

// checkLocked reports done=true for an idempotent re-export.
func (m *Module) checkLocked(base reflect.Type, id apis.TypeID, full string) (done bool, err error) {
	if i, ok := m.byType[base]; ok {
		if m.types[i].ID == id {
			return true, nil
		}
		return false, ErrConflictingRegistration
	}
	if _, ok := m.byName[full]; ok {
		return false, ErrConflictingRegistration
	}
	return false, nil
}

// Types returns a snapshot of the catalog in export order.
func (m *Module) Types() []apis.Type {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.types)
}

// Lookup returns the type whose FullName equals fullName exactly.
func (m *Module) Lookup(fullName string) (apis.Type, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i, ok := m.byName[fullName]; ok {
		return m.types[i], true
	}
	return apis.Type{}, false
}

// TypeOf returns the entry for the nearest named type of t.
func (m *Module) TypeOf(t reflect.Type) (apis.Type, bool) {
	if t == nil {
		return apis.Type{}, false
	}
	base, err := uref.Normalize(t, m.maxUnwrap)
	if err != nil {
		return apis.Type{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i, ok := m.byType[base]; ok {
		return m.types[i], true
	}
	return apis.Type{}, false
}

// Len returns the number of exported types.
func (m *Module) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.types)
}
