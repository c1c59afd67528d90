package hosting

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/launchdarkly/live-tests/liveerr"
	"github.com/launchdarkly/live-tests/logging"
)

// Boundary is a running isolation boundary hosting one application.
type Boundary struct {
	id             string
	site           Site
	env            *Environment
	calls          chan *call
	stopping       chan struct{}
	dispatcherDone chan struct{}
	done           chan struct{}
	ctx            context.Context
	cancel         context.CancelFunc
	inflight       sync.WaitGroup
	stopOnce       sync.Once
	logger         logging.Logger
}

type call struct {
	fn    func(context.Context) (interface{}, error)
	reply chan callResult
}

type callResult struct {
	value interface{}
	err   error
}

// NewBoundary builds the application pipeline for site and starts a boundary around it. If
// factory is nil, SiteApplicationFactory is used.
func NewBoundary(site Site, factory ApplicationFactory, logger logging.Logger) (*Boundary, error) {
	if factory == nil {
		factory = SiteApplicationFactory{}
	}
	handler, err := factory.NewApplication(site)
	if err != nil {
		return nil, liveerr.Wrap(liveerr.Operational, "NewBoundary", err,
			fmt.Sprintf("cannot host application %s", site))
	}
	if handler == nil {
		return nil, liveerr.Operationalf("NewBoundary", "application factory returned no pipeline for %s", site)
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	b := &Boundary{
		id:             id,
		site:           site,
		calls:          make(chan *call),
		stopping:       make(chan struct{}),
		dispatcherDone: make(chan struct{}),
		done:           make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
		logger:         logging.LoggerWithPrefix(logging.OrNull(logger), "[boundary "+id[:8]+"] "),
	}
	b.env = newEnvironment(b, site, handler, b.logger)

	go b.dispatch()

	recordBoundaryStarted(site.ApplicationID)
	b.logger.Printf("Started boundary for %s", site)
	return b, nil
}

// ID returns the unique identifier of this boundary.
func (b *Boundary) ID() string { return b.id }

// Site returns the deployment this boundary hosts.
func (b *Boundary) Site() Site { return b.site }

// Done is closed once Shutdown has completed.
func (b *Boundary) Done() <-chan struct{} { return b.done }

// Stopped reports whether Shutdown has been called.
func (b *Boundary) Stopped() bool {
	select {
	case <-b.stopping:
		return true
	default:
		return false
	}
}

// Call runs fn inside the boundary and blocks until it returns. The context passed to fn
// carries the boundary's Environment and is cancelled when the boundary shuts down. A panic in
// fn is returned as an error.
//
// Call fails with an operational error if the boundary has been shut down.
func (b *Boundary) Call(fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	c := &call{fn: fn, reply: make(chan callResult, 1)}
	select {
	case b.calls <- c:
	case <-b.stopping:
		return nil, b.stoppedError("Call")
	}
	r := <-c.reply
	return r.value, r.err
}

// Shutdown stops the boundary. New calls are refused, every registered object is asked to
// Stop(immediate), and then, unless immediate is true, Shutdown waits for calls already in
// progress to return before cancelling the boundary context. Calls still running after an
// immediate shutdown see a cancelled context and an environment that is no longer hosted.
//
// Shutdown must not be called from inside the boundary with immediate set to false, since it
// would wait for its own call to finish. Calling it more than once is harmless.
func (b *Boundary) Shutdown(immediate bool) {
	b.stopOnce.Do(func() {
		b.logger.Printf("Shutting down (immediate: %t)", immediate)
		close(b.stopping)
		<-b.dispatcherDone

		for _, o := range b.env.RegisteredObjects() {
			o.Stop(immediate)
		}
		if !immediate {
			b.inflight.Wait()
		}
		b.cancel()
		b.env.markStopped()
		close(b.done)

		recordBoundaryStopped(b.site.ApplicationID, immediate)
		b.logger.Printf("Boundary stopped")
	})
	<-b.done
}

func (b *Boundary) dispatch() {
	defer close(b.dispatcherDone)
	for {
		select {
		case c := <-b.calls:
			b.inflight.Add(1)
			go b.serve(c)
		case <-b.stopping:
			return
		}
	}
}

func (b *Boundary) serve(c *call) {
	defer b.inflight.Done()
	var r callResult
	func() {
		defer func() {
			if p := recover(); p != nil {
				r = callResult{err: liveerr.Wrap(liveerr.Operational, "Call",
					fmt.Errorf("%v\n%s", p, debug.Stack()), "unexpected panic inside boundary")}
			}
		}()
		r.value, r.err = c.fn(WithEnvironment(b.ctx, b.env))
	}()
	c.reply <- r
}

func (b *Boundary) stoppedError(op string) error {
	return liveerr.Operationalf(op, "boundary %s for %s has been shut down", b.id, b.site.ApplicationID)
}
