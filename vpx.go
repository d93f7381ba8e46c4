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

package vpx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/builder"
	"dirpx.dev/vpx/config"
	"dirpx.dev/vpx/hooks"
	"dirpx.dev/vpx/registry"
	"dirpx.dev/vpx/resolver"
)

// ErrClosed is returned by Reconfigure after Close.
var ErrClosed = errors.New("vpx: engine closed")

// Option configures an Engine. Options are builder options so the same
// logger, metrics, setup callbacks and executor reach every component.
type Option = builder.Option

// Engine resolves views for view-models over the modules of one source.
// It holds a registry and a provider chain trying the same-module resolver
// first and the cross-module resolver second.
//
// Reads load the current snapshot atomically; Reconfigure builds a new
// snapshot under a build lock and swaps it in.
type Engine struct {
	src  apis.ModuleSource
	opts []Option
	bus  hooks.Bus

	buildMu sync.Mutex
	st      atomic.Pointer[state]
	closed  bool
}

// state is one immutable engine snapshot.
type state struct {
	file  config.File
	reg   *registry.Registry
	chain *resolver.Chain
	// unsubscribe detaches the chain from the engine bus.
	unsubscribe func()
}

// Ensure Engine implements apis.Provider.
var _ apis.Provider = (*Engine)(nil)

// New builds an engine over src.
func New(src apis.ModuleSource, opts ...Option) (*Engine, error) {
	e := &Engine{src: src, opts: opts}
	s, err := e.build(nil)
	if err != nil {
		return nil, err
	}
	e.st.Store(s)
	return e, nil
}

// build assembles a snapshot. A nil file keeps the file set by opts.
func (e *Engine) build(file *config.File) (*state, error) {
	opts := e.opts
	if file != nil {
		opts = append(append([]Option{}, e.opts...), builder.WithFile(*file))
	}
	b := builder.New(opts...)
	chain, reg, err := b.BuildProvider(e.src)
	if err != nil {
		return nil, err
	}
	return &state{
		file:        b.File(),
		reg:         reg,
		chain:       chain,
		unsubscribe: chain.Subscribe(e.bus.Publish),
	}, nil
}

// Resolve returns a new view bound to vm. A nil vm yields (nil, nil).
// Views are constructed on an affinity-holding context: either ctx is
// marked with dispatch.WithAffinity, or an executor was configured.
func (e *Engine) Resolve(ctx context.Context, vm any) (apis.View, error) {
	return e.st.Load().chain.Resolve(ctx, vm)
}

// ResolveIn is Resolve restricted to the views exported by module.
func (e *Engine) ResolveIn(ctx context.Context, vm any, module apis.Module) (apis.View, error) {
	return e.st.Load().chain.ResolveIn(ctx, vm, module)
}

// Subscribe registers fn for "view resolved" events. Subscriptions survive
// Reconfigure.
func (e *Engine) Subscribe(fn func(hooks.Event)) (unsubscribe func()) {
	return e.bus.Subscribe(fn)
}

// Registry returns the registry of the current snapshot.
func (e *Engine) Registry() *registry.Registry {
	return e.st.Load().reg
}

// File returns the configuration of the current snapshot.
func (e *Engine) File() config.File {
	return e.st.Load().file
}

// Reconfigure rebuilds the registry and resolvers from f and swaps them in.
// The resolution cache starts empty. Resolutions already running complete
// on the previous snapshot.
func (e *Engine) Reconfigure(f config.File) error {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()
	if e.closed {
		return ErrClosed
	}

	s, err := e.build(&f)
	if err != nil {
		return err
	}
	old := e.st.Swap(s)
	old.release()
	return nil
}

// Close stops listening for module notifications.
func (e *Engine) Close() error {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.st.Load().release()
	return nil
}

func (s *state) release() {
	s.unsubscribe()
	_ = s.reg.Close()
}
