package livetest

import (
	"sync"

	"github.com/launchdarkly/live-tests/applications"
	"github.com/launchdarkly/live-tests/config"
	"github.com/launchdarkly/live-tests/logging"
)

// Context carries what Instantiate and the default hooks need: application settings, a
// debug logger, and the default TestApplicationManager shared by every test type that does
// not supply its own.
type Context struct {
	settings       config.Settings
	logger         logging.Logger
	managerOptions []applications.Option
	defaultManager *applications.TestApplicationManager
	lock           sync.Mutex
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the debug logger. It is also given to the default manager.
func WithLogger(l logging.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logging.OrNull(l)
	}
}

// WithManagerOptions adds options for the default manager, which is created on first use.
func WithManagerOptions(opts ...applications.Option) ContextOption {
	return func(c *Context) {
		c.managerOptions = append(c.managerOptions, opts...)
	}
}

// WithDefaultManager makes m the default manager instead of creating one.
func WithDefaultManager(m *applications.TestApplicationManager) ContextOption {
	return func(c *Context) {
		c.defaultManager = m
	}
}

func NewContext(settings config.Settings, opts ...ContextOption) *Context {
	c := &Context{settings: settings, logger: logging.NullLogger()}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Context) Settings() config.Settings { return c.settings }
func (c *Context) Logger() logging.Logger    { return c.logger }

// DefaultManager returns the shared manager, creating it on first use.
func (c *Context) DefaultManager() *applications.TestApplicationManager {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.defaultManager == nil {
		opts := append([]applications.Option{applications.WithLogger(c.logger)}, c.managerOptions...)
		c.defaultManager = applications.NewTestApplicationManager(opts...)
	}
	return c.defaultManager
}

// Shutdown stops every application started by the default manager.
func (c *Context) Shutdown(immediate bool) {
	c.lock.Lock()
	m := c.defaultManager
	c.lock.Unlock()
	if m != nil {
		m.Shutdown(immediate)
	}
}
