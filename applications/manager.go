package applications

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/launchdarkly/live-tests/hosting"
	"github.com/launchdarkly/live-tests/liveerr"
	"github.com/launchdarkly/live-tests/logging"
)

// BoundaryFactory creates the isolation boundary for a host.
type BoundaryFactory interface {
	NewBoundary(host ApplicationHost, logger logging.Logger) (*hosting.Boundary, error)
}

// BoundaryFactoryFunc adapts a function to BoundaryFactory.
type BoundaryFactoryFunc func(host ApplicationHost, logger logging.Logger) (*hosting.Boundary, error)

func (f BoundaryFactoryFunc) NewBoundary(host ApplicationHost, logger logging.Logger) (*hosting.Boundary, error) {
	return f(host, logger)
}

// ApplicationFactoryBoundaries returns a BoundaryFactory that hosts each site with the given
// application factory. A nil factory means hosting.SiteApplicationFactory.
func ApplicationFactoryBoundaries(factory hosting.ApplicationFactory) BoundaryFactory {
	return BoundaryFactoryFunc(func(host ApplicationHost, logger logging.Logger) (*hosting.Boundary, error) {
		return hosting.NewBoundary(host.Site(), factory, logger)
	})
}

// TestApplicationManager keeps one running TestApplication per distinct ApplicationHost.
// It is safe for concurrent use.
type TestApplicationManager struct {
	boundaries   BoundaryFactory
	applications map[ApplicationHost]*TestApplication
	starts       singleflight.Group
	logger       logging.Logger
	closed       bool
	lock         sync.Mutex
}

// Option configures a TestApplicationManager.
type Option func(*TestApplicationManager)

// WithBoundaryFactory replaces the way boundaries are created.
func WithBoundaryFactory(f BoundaryFactory) Option {
	return func(m *TestApplicationManager) {
		if f != nil {
			m.boundaries = f
		}
	}
}

// WithApplicationFactory hosts applications built by f instead of serving the physical path.
func WithApplicationFactory(f hosting.ApplicationFactory) Option {
	return WithBoundaryFactory(ApplicationFactoryBoundaries(f))
}

// WithLogger sets the debug logger passed to every boundary.
func WithLogger(l logging.Logger) Option {
	return func(m *TestApplicationManager) {
		m.logger = logging.OrNull(l)
	}
}

func NewTestApplicationManager(opts ...Option) *TestApplicationManager {
	m := &TestApplicationManager{
		boundaries:   ApplicationFactoryBoundaries(nil),
		applications: make(map[ApplicationHost]*TestApplication),
		logger:       logging.NullLogger(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// StartApplication returns the running application for host, starting a boundary for it if
// there is none yet. Concurrent calls for equivalent hosts share a single start: exactly one
// boundary is created and every caller gets the same TestApplication.
//
// If the boundary cannot be created, StartApplication returns an operational error and
// remembers nothing, so a later call tries again. Once the manager has been shut down, it
// refuses to start anything.
func (m *TestApplicationManager) StartApplication(host ApplicationHost) (*TestApplication, error) {
	if err := host.Validate(); err != nil {
		return nil, err
	}
	if m.isClosed() {
		return nil, m.closedError()
	}
	if app := m.GetApplication(host); app != nil {
		return app, nil
	}

	v, err, _ := m.starts.Do(host.key(), func() (interface{}, error) {
		if app := m.GetApplication(host); app != nil {
			return app, nil
		}
		m.logger.Printf("Starting application %s", host)
		b, err := m.boundaries.NewBoundary(host, m.logger)
		if err != nil {
			return nil, liveerr.Wrap(liveerr.Operational, "StartApplication", err, "cannot start application "+host.String())
		}
		if b == nil {
			return nil, liveerr.Operationalf("StartApplication", "no boundary was created for %s", host)
		}
		app := newTestApplication(host, b)
		m.lock.Lock()
		if m.closed {
			m.lock.Unlock()
			b.Shutdown(true)
			return nil, m.closedError()
		}
		m.applications[host] = app
		m.lock.Unlock()
		return app, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TestApplication), nil
}

// GetApplication returns the running application for host, or nil if there is none. An
// application whose boundary has been shut down is forgotten.
func (m *TestApplicationManager) GetApplication(host ApplicationHost) *TestApplication {
	m.lock.Lock()
	defer m.lock.Unlock()
	app := m.applications[host]
	if app != nil && app.Stopped() {
		delete(m.applications, host)
		return nil
	}
	return app
}

// Applications returns every running application.
func (m *TestApplicationManager) Applications() []*TestApplication {
	m.lock.Lock()
	defer m.lock.Unlock()
	ret := make([]*TestApplication, 0, len(m.applications))
	for host, app := range m.applications {
		if app.Stopped() {
			delete(m.applications, host)
			continue
		}
		ret = append(ret, app)
	}
	return ret
}

// StopApplication shuts down the application for host and forgets it.
func (m *TestApplicationManager) StopApplication(host ApplicationHost, immediate bool) error {
	m.lock.Lock()
	app := m.applications[host]
	delete(m.applications, host)
	m.lock.Unlock()
	if app == nil {
		return liveerr.Operationalf("StopApplication", "no application is running for %s", host)
	}
	app.Stop(immediate)
	return nil
}

// Shutdown stops every application started by this manager. A start still in progress is
// stopped as soon as its boundary exists, and later starts are refused.
func (m *TestApplicationManager) Shutdown(immediate bool) {
	m.lock.Lock()
	m.closed = true
	apps := make([]*TestApplication, 0, len(m.applications))
	for _, app := range m.applications {
		apps = append(apps, app)
	}
	m.applications = make(map[ApplicationHost]*TestApplication)
	m.lock.Unlock()

	var wg sync.WaitGroup
	for _, app := range apps {
		wg.Add(1)
		go func(app *TestApplication) {
			defer wg.Done()
			app.Stop(immediate)
		}(app)
	}
	wg.Wait()
}

func (m *TestApplicationManager) isClosed() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.closed
}

func (m *TestApplicationManager) closedError() error {
	return liveerr.Operationalf("StartApplication", "application manager has been shut down")
}
