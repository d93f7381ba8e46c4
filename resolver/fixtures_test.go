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

package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/dispatch"
	"dirpx.dev/vpx/module"
	"dirpx.dev/vpx/registry"
)

type baseView struct{ dc any }

func (v *baseView) SetDataContext(vm any) { v.dc = vm }
func (v *baseView) DataContext() any { return v.dc }

type MainWindowModel struct{ Title string }
type MainWindow struct{ baseView }

type DetailsViewModel struct{}
type DetailsView struct{ baseView }

type SomeViewModel struct{}
type SomeView struct{ baseView }
type OtherSomeView struct{ baseView }

// Holder declares that its module supplies views for the cross view-model module.
type Holder struct{}

func (*Holder) ViewModelModules() []string { return []string{crossVM} }

// namedVM is a view-model declaring its own identity.
type namedVM struct{ id apis.TypeID }

func (v namedVM) ViewModelTypeID() apis.TypeID { return v.id }

const (
	appModule = "example.com/app"
	crossVM   = "example.com/vm"
	crossView = "example.com/views"
)

// affinity returns a context marked as running on the affinity holder.
func affinity() context.Context {
	return dispatch.WithAffinity(context.Background())
}

// newApp returns a host holding a same-module application:
// App.ViewModels.{MainWindowModel,DetailsViewModel} and
// App.Views.{MainWindow,DetailsView}.
func newApp(t *testing.T) (*module.Host, *module.Module) {
	t.Helper()
	app := module.New(appModule)
	vms := module.InNamespace("App.ViewModels")
	views := module.InNamespace("App.Views")
	require.NoError(t, app.Export(MainWindowModel{}, vms))
	require.NoError(t, app.Export(DetailsViewModel{}, vms))
	require.NoError(t, app.Export(MainWindow{}, views))
	require.NoError(t, app.Export(DetailsView{}, views))

	h, err := module.NewHost(app)
	require.NoError(t, err)
	return h, app
}

// newCross returns a registry over a view-model module and a view holder
// module supplying SomeView for it.
func newCross(t *testing.T, extra ...apis.Module) (*registry.Registry, *module.Host) {
	t.Helper()
	vm := module.New(crossVM)
	require.NoError(t, vm.Export(SomeViewModel{}, module.InNamespace("Unrelated.Layout")))

	views := module.New(crossView)
	require.NoError(t, views.Export((*Holder)(nil)))
	require.NoError(t, views.Export(SomeView{}, module.InNamespace("Elsewhere")))

	h, err := module.NewHost(append([]apis.Module{vm, views}, extra...)...)
	require.NoError(t, err)
	reg, err := registry.New(h)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg, h
}
