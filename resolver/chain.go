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

package resolver

import (
	"context"
	"errors"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/hooks"
)

// Subscriber is implemented by providers that publish "view resolved" events.
type Subscriber interface {
	Subscribe(fn func(hooks.Event)) (unsubscribe func())
}

// Chain tries providers in order until one resolves a view.
// Resolution errors are swallowed so the next provider is tried, except
// apis.ErrAffinityRequired which no other provider can fix. Any other error
// is returned immediately.
type Chain struct {
	providers []apis.Provider
}

// Ensure Chain implements apis.Provider and Subscriber.
var (
	_ apis.Provider = (*Chain)(nil)
	_ Subscriber    = (*Chain)(nil)
)

// NewChain creates a chain over providers. Nil providers are ignored.
func NewChain(providers ...apis.Provider) *Chain {
	out := make([]apis.Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			out = append(out, p)
		}
	}
	return &Chain{providers: out}
}

// Resolve returns the first view resolved by a provider.
func (c *Chain) Resolve(ctx context.Context, vm any) (apis.View, error) {
	return c.ResolveIn(ctx, vm, nil)
}

// ResolveIn is Resolve restricted to the views exported by module.
func (c *Chain) ResolveIn(ctx context.Context, vm any, module apis.Module) (apis.View, error) {
	if isNil(vm) {
		return nil, nil
	}
	for _, p := range c.providers {
		view, err := p.ResolveIn(ctx, vm, module)
		switch {
		case err == nil && view != nil:
			return view, nil
		case err == nil:
			continue
		case errors.Is(err, apis.ErrAffinityRequired) || !apis.IsResolutionError(err):
			return nil, err
		}
	}
	return nil, apis.Errorf(apis.ErrNoViewFound, "no provider could resolve a view for the view model %T", vm)
}

// Subscribe registers fn with every provider that publishes events.
func (c *Chain) Subscribe(fn func(hooks.Event)) (unsubscribe func()) {
	var unsubs []func()
	for _, p := range c.providers {
		if s, ok := p.(Subscriber); ok {
			unsubs = append(unsubs, s.Subscribe(fn))
		}
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
