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

// Package vpx resolves the view that presents a view-model.
//
// Given a view-model value, vpx derives the identifier of the view type that
// should present it from a configurable naming convention, finds that type
// among the exported types of the loaded modules, and constructs it on the
// execution context required by the host UI toolkit.
//
// # Design
//
// The engine is assembled from small packages, each owning one concern:
//
//   - naming: pure derivation of view identifiers. With the default
//     convention App.ViewModels.MainWindowModel is presented by
//     App.Views.MainWindow.
//
//   - module: explicit registration of the types a module exports. Go
//     cannot enumerate the types of a package at runtime, so a module
//     lists them, together with zero-argument constructors.
//
//   - registry: a live mapping from view-model modules to the modules that
//     declare, through an apis.ViewHolder, that they supply their views.
//     It is filled once at start-up and then incrementally as modules are
//     loaded.
//
//   - lookup: qualified and unqualified type lookup with a deterministic
//     order.
//
//   - cache: the view type found for a view-model is computed at most once
//     and reused for the lifetime of a resolver.
//
//   - dispatch: views are constructed on the affinity-holding goroutine.
//
//   - resolver: the orchestration of the above, plus hooks run after each
//     resolution.
//
// # Resolution
//
// Two resolvers are chained. The same-module resolver derives the fully
// qualified view name and looks for it in the view-model's own module. The
// cross-module resolver drops namespaces, derives only the simple name and
// looks for it in every module registered as a view holder for the
// view-model's module. The first resolver that produces a view wins.
//
//	host, _ := module.NewHost(appModule, viewsModule)
//	engine, err := vpx.New(host, builder.WithExecutor(uiLoop))
//	if err != nil {
//		return err
//	}
//	defer engine.Close()
//
//	view, err := engine.Resolve(ctx, &MainWindowModel{})
//
// # Identity
//
// The identity of a view-model is computed by a strategy chain, in order:
//
//  1. If the value implements apis.Identifier, use ViewModelTypeID().
//  2. If the type was exported by a loaded module, use that entry.
//  3. Otherwise derive it from the Go type: the module is the package
//     path, the namespace is the package path with "/" replaced by ".".
//
// # Affinity
//
// UI toolkits require elements to be created on one goroutine locked to
// its OS thread. Go has no goroutine identity, so callers already on that
// goroutine mark their context with dispatch.WithAffinity. Other callers
// are served by an executor such as dispatch.Loop, or, when allowed by
// configuration, pinned to their thread by promotion. Without any of these
// a resolution fails with apis.ErrAffinityRequired.
//
// # Concurrency model
//
// Resolve may be called from any number of goroutines. Module
// notifications may arrive on any goroutine. The registry has a single
// exclusive writer and lock-shared readers. Concurrent first-time
// resolutions of one view-model perform the lookup exactly once.
// Nothing in the engine observes context cancellation.
//
// # Configuration
//
// Start-up configuration is a YAML document loaded with config.Load:
//
//	naming:
//	  viewModelNamespaceSuffix: ViewModels
//	  viewNamespaceSuffix: Views
//	  viewModelNameSuffix: Model
//	  viewNameSuffix: ""
//	registry:
//	  ignore: ["golang.org/x/tools/**"]
//	dispatch:
//	  promote: true
//
// Engine.Reconfigure swaps in a new configuration atomically.
package vpx
