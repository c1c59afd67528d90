package applications

import (
	"context"
	"fmt"
	"reflect"

	"github.com/launchdarkly/live-tests/hosting"
	"github.com/launchdarkly/live-tests/liveerr"
)

// TestApplication is a handle to one running boundary. It is owned by the manager that
// started it.
type TestApplication struct {
	host     ApplicationHost
	boundary *hosting.Boundary
}

// Object is a reference to a value that was created inside a boundary.
type Object struct {
	app   *TestApplication
	value interface{}
}

func newTestApplication(host ApplicationHost, b *hosting.Boundary) *TestApplication {
	return &TestApplication{host: host, boundary: b}
}

func (a *TestApplication) Host() ApplicationHost       { return a.host }
func (a *TestApplication) ID() string                  { return a.boundary.ID() }
func (a *TestApplication) VirtualPath() string         { return a.host.VirtualPath }
func (a *TestApplication) PhysicalPath() string        { return a.host.PhysicalPath }
func (a *TestApplication) Boundary() *hosting.Boundary { return a.boundary }

// Stopped reports whether the boundary has been shut down.
func (a *TestApplication) Stopped() bool { return a.boundary.Stopped() }

// Stop shuts down the boundary. See hosting.Boundary.Shutdown.
func (a *TestApplication) Stop(immediate bool) { a.boundary.Shutdown(immediate) }

// Invoke runs fn inside the boundary and blocks until it returns.
func (a *TestApplication) Invoke(fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	return a.boundary.Call(fn)
}

// CreateObject constructs a new value of typ inside the boundary and returns a reference to
// it. typ must be a pointer to a struct type; the value starts out as the zero struct. If it
// implements hosting.Activator, Activate runs inside the boundary before CreateObject returns.
func (a *TestApplication) CreateObject(typ reflect.Type) (*Object, error) {
	if typ == nil {
		return nil, liveerr.Configurationf("CreateObject", "no type given")
	}
	if typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, liveerr.Configurationf("CreateObject",
			"cannot construct '%s': only pointers to struct types can be created inside an application", TypeName(typ))
	}
	v, err := a.boundary.Call(func(ctx context.Context) (interface{}, error) {
		obj := reflect.New(typ.Elem()).Interface()
		if act, ok := obj.(hosting.Activator); ok {
			if err := act.Activate(ctx); err != nil {
				return nil, fmt.Errorf("activating '%s': %w", TypeName(typ), err)
			}
		}
		return obj, nil
	})
	if err != nil {
		return nil, err
	}
	return &Object{app: a, value: v}, nil
}

// Value returns the referenced value.
func (o *Object) Value() interface{} { return o.value }

// Application returns the application the value lives in.
func (o *Object) Application() *TestApplication { return o.app }

// Invoke runs fn on the referenced value inside its boundary.
func (o *Object) Invoke(fn func(ctx context.Context, value interface{}) (interface{}, error)) (interface{}, error) {
	return o.app.boundary.Call(func(ctx context.Context) (interface{}, error) {
		return fn(ctx, o.value)
	})
}

// TypeName returns the fully qualified name of typ, looking through pointers.
func TypeName(typ reflect.Type) string {
	if typ == nil {
		return "<nil>"
	}
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Name() == "" {
		return typ.String()
	}
	if typ.PkgPath() == "" {
		return typ.Name()
	}
	return typ.PkgPath() + "." + typ.Name()
}
