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
	"context"
)

// Provider creates the view presenting a view-model.
type Provider interface {
	// Resolve returns a new view bound to vm. A nil vm yields (nil, nil).
	Resolve(ctx context.Context, vm any) (View, error)

	// ResolveIn is Resolve restricted to the views exported by module.
	// A nil module behaves like Resolve.
	ResolveIn(ctx context.Context, vm any, module Module) (View, error)
}

// Dispatcher runs view factories on the affinity context required by the
// host UI toolkit.
type Dispatcher interface {
	// Run invokes factory on an affinity-holding context and returns its
	// result. It blocks until factory completes.
	Run(ctx context.Context, factory func(ctx context.Context) (View, error)) (View, error)
}
