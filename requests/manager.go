package requests

import (
	"context"
	"sync"

	"github.com/launchdarkly/live-tests/hosting"
	"github.com/launchdarkly/live-tests/liveerr"
)

var _ hosting.WorkerRequest = (*WorkerRequest)(nil)

// Stages are the replaceable steps of RequestManager.ExecuteRequest. A nil stage uses the
// default behavior.
type Stages struct {
	// NewWorkerRequest builds the pipeline adapter for a request. The default is
	// NewWorkerRequest with a fresh Response.
	NewWorkerRequest func(req *Request) (hosting.WorkerRequest, error)
	// ExecuteWorkerRequest drives the adapter through the pipeline. The default is
	// env.ProcessRequest.
	ExecuteWorkerRequest func(ctx context.Context, env *hosting.Environment, wr hosting.WorkerRequest) error
	// GetResponse extracts the Response once the pipeline is done. The default requires a
	// *WorkerRequest.
	GetResponse func(wr hosting.WorkerRequest) (*Response, error)
}

// Executor is the service a Client talks to inside a boundary. RequestManager implements
// it, as does any struct that embeds RequestManager.
type Executor interface {
	ExecuteRequest(ctx context.Context, req *Request) (*Response, error)
	Stop(immediate bool)
}

// RequestManager runs simulated requests through the application of the boundary it lives in.
// It is meant to be created inside a boundary with TestApplication.CreateObject, which calls
// Activate; the zero value is otherwise ready to use.
type RequestManager struct {
	Stages Stages

	env      *hosting.Environment
	inflight sync.WaitGroup
	stopped  bool
	lock     sync.Mutex
}

// Activate registers the manager with the boundary's object registry so that the boundary's
// shutdown stops it.
func (m *RequestManager) Activate(ctx context.Context) error {
	env := hosting.EnvironmentFromContext(ctx)
	if env == nil || !env.IsHosted() {
		return liveerr.Operationalf("RequestManager.Activate", "cannot activate a request manager outside of a hosted environment")
	}
	m.lock.Lock()
	m.env = env
	m.lock.Unlock()
	env.RegisterObject(m)
	return nil
}

// ExecuteRequest runs req through the hosted application pipeline and returns what it wrote.
// ctx must come from the boundary the manager was activated in.
func (m *RequestManager) ExecuteRequest(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, liveerr.Validationf("ExecuteRequest", "request is nil")
	}
	env := hosting.EnvironmentFromContext(ctx)
	if env == nil || !env.IsHosted() {
		return nil, liveerr.Operationalf("ExecuteRequest", "cannot execute request in environment which is not hosted")
	}

	m.lock.Lock()
	if m.env != nil && m.env != env {
		m.lock.Unlock()
		return nil, liveerr.Operationalf("ExecuteRequest",
			"request manager belongs to application %s, not %s", m.env.ApplicationID(), env.ApplicationID())
	}
	if m.stopped {
		m.lock.Unlock()
		return nil, liveerr.Operationalf("ExecuteRequest", "request manager has been stopped")
	}
	m.inflight.Add(1)
	m.lock.Unlock()
	defer m.inflight.Done()

	wr, err := m.newWorkerRequest(req)
	if err != nil {
		return nil, err
	}
	if err := m.executeWorkerRequest(ctx, env, wr); err != nil {
		return nil, err
	}
	return m.getResponse(wr)
}

// Stop unregisters the manager from its boundary and refuses further requests. Unless
// immediate is true, it waits for requests already in progress on this manager to finish.
func (m *RequestManager) Stop(immediate bool) {
	m.lock.Lock()
	env := m.env
	m.stopped = true
	m.lock.Unlock()

	if env != nil {
		env.UnregisterObject(m)
	}
	if !immediate {
		m.inflight.Wait()
	}
}

func (m *RequestManager) newWorkerRequest(req *Request) (hosting.WorkerRequest, error) {
	if m.Stages.NewWorkerRequest != nil {
		return m.Stages.NewWorkerRequest(req)
	}
	wr, err := NewWorkerRequest(req, &Response{})
	if err != nil {
		return nil, err
	}
	return wr, nil
}

func (m *RequestManager) executeWorkerRequest(ctx context.Context, env *hosting.Environment, wr hosting.WorkerRequest) error {
	if m.Stages.ExecuteWorkerRequest != nil {
		return m.Stages.ExecuteWorkerRequest(ctx, env, wr)
	}
	return env.ProcessRequest(ctx, wr)
}

func (m *RequestManager) getResponse(wr hosting.WorkerRequest) (*Response, error) {
	if m.Stages.GetResponse != nil {
		return m.Stages.GetResponse(wr)
	}
	w, ok := wr.(*WorkerRequest)
	if !ok {
		return nil, liveerr.Validationf("GetResponse",
			"worker request is of improper type %T; it should be a *requests.WorkerRequest", wr)
	}
	return w.Response(), nil
}
