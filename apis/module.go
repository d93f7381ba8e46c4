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

import "reflect"

// Module is a deployed unit of code together with the catalog of types it
// exports. Implementations must be safe for concurrent reads.
type Module interface {
	// ID returns the module id (by convention the Go import path).
	ID() string
	// Dynamic reports whether the module was generated at runtime.
	// Dynamic modules are never scanned for view holders.
	Dynamic() bool
	// Types returns a snapshot of the catalog in registration order.
	Types() []Type
	// Lookup returns the type whose FullName equals fullName exactly.
	Lookup(fullName string) (Type, bool)
}

// Modules resolves module ids to modules.
type Modules interface {
	// Module returns the module with the given id, if known.
	Module(id string) (Module, bool)
}

// Catalog resolves Go types to the catalog entries that declared them.
type Catalog interface {
	// TypeOf returns the catalog entry for the nearest named type of t.
	TypeOf(t reflect.Type) (Type, bool)
}

// ModuleSource is implemented by the host that knows which modules are
// loaded. It pushes availability notifications to subscribers.
type ModuleSource interface {
	Modules
	// Loaded returns every currently loaded module in load order.
	Loaded() []Module
	// Subscribe registers fn to be called for each module that becomes
	// available after the call. fn may be invoked on any goroutine.
	// The returned function removes the subscription.
	Subscribe(fn func(Module)) (unsubscribe func())
}
