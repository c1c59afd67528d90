package hosting

import (
	"context"
	"net/http"
	"sync"

	"github.com/launchdarkly/live-tests/logging"
)

// RegisteredObject is implemented by objects that live inside a boundary and must be told
// when it shuts down. immediate is true for an abrupt stop-now directive and false for a
// cooperative stop-when-idle directive.
type RegisteredObject interface {
	Stop(immediate bool)
}

// Activator is implemented by objects that need to initialize themselves inside the boundary
// right after they are constructed there.
type Activator interface {
	Activate(ctx context.Context) error
}

// Environment is the view of a boundary available to code running inside it.
type Environment struct {
	boundary *Boundary
	site     Site
	handler  http.Handler
	objects  map[RegisteredObject]struct{}
	order    []RegisteredObject
	stopped  bool
	logger   logging.Logger
	lock     sync.Mutex
}

type environmentKey struct{}

func newEnvironment(b *Boundary, site Site, handler http.Handler, logger logging.Logger) *Environment {
	return &Environment{
		boundary: b,
		site:     site,
		handler:  handler,
		objects:  make(map[RegisteredObject]struct{}),
		logger:   logger,
	}
}

// WithEnvironment returns a copy of ctx carrying env.
func WithEnvironment(ctx context.Context, env *Environment) context.Context {
	return context.WithValue(ctx, environmentKey{}, env)
}

// EnvironmentFromContext returns the Environment carried by ctx, or nil if ctx was not
// created inside a boundary.
func EnvironmentFromContext(ctx context.Context) *Environment {
	if ctx == nil {
		return nil
	}
	env, _ := ctx.Value(environmentKey{}).(*Environment)
	return env
}

func (e *Environment) Boundary() *Boundary    { return e.boundary }
func (e *Environment) ApplicationID() string  { return e.site.ApplicationID }
func (e *Environment) VirtualPath() string    { return e.site.VirtualPath }
func (e *Environment) PhysicalPath() string   { return e.site.PhysicalPath }
func (e *Environment) Logger() logging.Logger { return e.logger }

// IsHosted reports whether the application is still running. It turns false once the boundary
// has finished shutting down.
func (e *Environment) IsHosted() bool {
	if e == nil {
		return false
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	return !e.stopped
}

// RegisterObject adds o to the set of objects stopped during shutdown. Registering the same
// object twice has no effect.
func (e *Environment) RegisterObject(o RegisteredObject) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if _, ok := e.objects[o]; ok {
		return
	}
	e.objects[o] = struct{}{}
	e.order = append(e.order, o)
}

// UnregisterObject removes o from the registry.
func (e *Environment) UnregisterObject(o RegisteredObject) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if _, ok := e.objects[o]; !ok {
		return
	}
	delete(e.objects, o)
	for i, r := range e.order {
		if r == o {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// RegisteredObjects returns the registered objects in registration order.
func (e *Environment) RegisteredObjects() []RegisteredObject {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]RegisteredObject(nil), e.order...)
}

func (e *Environment) markStopped() {
	e.lock.Lock()
	e.stopped = true
	e.lock.Unlock()
}
