package requests

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/live-tests/applications"
	"github.com/launchdarkly/live-tests/hosting"
	"github.com/launchdarkly/live-tests/liveerr"
)

func startApp(t *testing.T, id string, h http.Handler) *applications.TestApplication {
	t.Helper()
	m := applications.NewTestApplicationManager(applications.WithApplicationFactory(hosting.HandlerApplicationFactory(h)))
	t.Cleanup(func() { m.Shutdown(true) })
	app, err := m.StartApplication(applications.ApplicationHost{ID: id, VirtualPath: "/", PhysicalPath: t.TempDir()})
	require.NoError(t, err)
	return app
}

func newManagerIn(t *testing.T, app *applications.TestApplication) *RequestManager {
	t.Helper()
	obj, err := app.CreateObject(reflect.TypeOf(&RequestManager{}))
	require.NoError(t, err)
	return obj.Value().(*RequestManager)
}

func executeIn(app *applications.TestApplication, m *RequestManager, req *Request) (*Response, error) {
	v, err := app.Invoke(func(ctx context.Context) (interface{}, error) {
		return m.ExecuteRequest(ctx, req)
	})
	resp, _ := v.(*Response)
	return resp, err
}

func TestNewWorkerRequestBuildsRequest(t *testing.T) {
	wr, err := NewWorkerRequest(&Request{
		Path:        "shop/cart.aspx",
		Method:      "POST",
		Headers:     http.Header{"Content-Type": {"text/plain"}},
		Body:        []byte("hello"),
		QueryString: "?id=3",
	}, nil)
	require.NoError(t, err)

	r := wr.Request()
	require.NotNil(t, r)
	assert.Equal(t, "POST", r.Method)
	assert.Equal(t, "/shop/cart.aspx", r.URL.Path)
	assert.Equal(t, "id=3", r.URL.RawQuery)
	assert.Equal(t, "/shop/cart.aspx?id=3", r.RequestURI)
	assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
	assert.Equal(t, int64(5), r.ContentLength)
	assert.NotNil(t, wr.Response())
}

func TestNewWorkerRequestDefaults(t *testing.T) {
	wr, err := NewWorkerRequest(&Request{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "GET", wr.Request().Method)
	assert.Equal(t, "/", wr.Request().URL.Path)
}

func TestNewWorkerRequestRejectsBadInput(t *testing.T) {
	_, err := NewWorkerRequest(nil, nil)
	assert.True(t, errors.Is(err, liveerr.ErrValidation))

	_, err = NewWorkerRequest(&Request{Method: "NOT A METHOD"}, nil)
	assert.True(t, errors.Is(err, liveerr.ErrValidation))
}

func TestWorkerRequestCollectsResponse(t *testing.T) {
	resp := &Response{}
	wr, err := NewWorkerRequest(&Request{}, resp)
	require.NoError(t, err)

	wr.Header().Set("X-One", "1")
	wr.WriteHeader(202)
	wr.Header().Set("X-Late", "ignored")
	_, _ = wr.Write([]byte("abc"))
	wr.WriteHeader(500)
	assert.Equal(t, 202, wr.StatusCode())
	wr.EndOfRequest()

	assert.Equal(t, 202, resp.StatusCode)
	assert.Equal(t, "1", resp.Headers.Get("X-One"))
	assert.Empty(t, resp.Headers.Get("X-Late"))
	assert.Equal(t, "abc", resp.Content())
	assert.Nil(t, wr.Request())
}

func TestWorkerRequestWithNoOutputIsEmptyOK(t *testing.T) {
	wr, err := NewWorkerRequest(&Request{}, nil)
	require.NoError(t, err)
	wr.EndOfRequest()
	assert.Equal(t, 200, wr.Response().StatusCode)
	assert.Empty(t, wr.Response().Body)
}

func TestExecuteRequest(t *testing.T) {
	handler := httphelpers.HandlerWithResponse(201, http.Header{"X-Test": {"yes"}}, []byte("created"))
	rh, requestsCh := httphelpers.RecordingHandler(handler)
	app := startApp(t, "app", rh)
	m := newManagerIn(t, app)

	resp, err := executeIn(app, m, &Request{Path: "/things", Method: "PUT", Body: []byte("thing"), QueryString: "a=b"})
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "yes", resp.Headers.Get("X-Test"))
	assert.Equal(t, "created", resp.Content())

	info := <-requestsCh
	assert.Equal(t, "PUT", info.Request.Method)
	assert.Equal(t, "/things", info.Request.URL.Path)
	assert.Equal(t, "a=b", info.Request.URL.RawQuery)
	assert.Equal(t, "thing", string(info.Body))
}

func TestExecuteRequestNilRequestHasNoSideEffects(t *testing.T) {
	var calls int32
	app := startApp(t, "app", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	m := newManagerIn(t, app)

	resp, err := executeIn(app, m, nil)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, liveerr.ErrValidation))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestExecuteRequestOutsideBoundary(t *testing.T) {
	var m RequestManager
	resp, err := m.ExecuteRequest(context.Background(), &Request{})
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, liveerr.ErrOperational))
	assert.Contains(t, err.Error(), "not hosted")
}

func TestExecuteRequestFromAnotherBoundary(t *testing.T) {
	app1 := startApp(t, "one", httphelpers.HandlerWithStatus(200))
	app2 := startApp(t, "two", httphelpers.HandlerWithStatus(200))
	m := newManagerIn(t, app1)

	_, err := executeIn(app2, m, &Request{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, liveerr.ErrOperational))
	assert.Contains(t, err.Error(), "one")
}

func TestExecuteRequestApplicationPanic(t *testing.T) {
	app := startApp(t, "app", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))
	m := newManagerIn(t, app)

	resp, err := executeIn(app, m, &Request{})
	assert.Nil(t, resp)
	var appErr *hosting.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "kaboom", appErr.Value)
}

type otherWorkerRequest struct {
	*WorkerRequest
}

func TestGetResponseRejectsForeignWorkerRequest(t *testing.T) {
	app := startApp(t, "app", httphelpers.HandlerWithStatus(200))
	m := newManagerIn(t, app)
	m.Stages.NewWorkerRequest = func(req *Request) (hosting.WorkerRequest, error) {
		wr, err := NewWorkerRequest(req, nil)
		if err != nil {
			return nil, err
		}
		return otherWorkerRequest{wr}, nil
	}

	_, err := executeIn(app, m, &Request{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, liveerr.ErrValidation))
	assert.Contains(t, err.Error(), "improper type")
}

func TestStagesCanBeReplaced(t *testing.T) {
	app := startApp(t, "app", httphelpers.HandlerWithStatus(500))
	m := newManagerIn(t, app)
	var executed int32
	m.Stages.ExecuteWorkerRequest = func(ctx context.Context, env *hosting.Environment, wr hosting.WorkerRequest) error {
		atomic.AddInt32(&executed, 1)
		wr.WriteHeader(299)
		wr.EndOfRequest()
		return nil
	}
	m.Stages.GetResponse = func(wr hosting.WorkerRequest) (*Response, error) {
		return &Response{StatusCode: wr.StatusCode() + 1}, nil
	}

	resp, err := executeIn(app, m, &Request{})
	require.NoError(t, err)
	assert.Equal(t, 300, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&executed))
}

func TestManagerRegistersWithBoundary(t *testing.T) {
	app := startApp(t, "app", httphelpers.HandlerWithStatus(200))
	m := newManagerIn(t, app)

	v, err := app.Invoke(func(ctx context.Context) (interface{}, error) {
		return hosting.EnvironmentFromContext(ctx).RegisteredObjects(), nil
	})
	require.NoError(t, err)
	assert.Contains(t, v, hosting.RegisteredObject(m))

	m.Stop(true)
	v, err = app.Invoke(func(ctx context.Context) (interface{}, error) {
		return hosting.EnvironmentFromContext(ctx).RegisteredObjects(), nil
	})
	require.NoError(t, err)
	assert.NotContains(t, v, hosting.RegisteredObject(m))

	_, err = executeIn(app, m, &Request{})
	assert.True(t, errors.Is(err, liveerr.ErrOperational))
}

func TestActivateOutsideBoundary(t *testing.T) {
	var m RequestManager
	err := m.Activate(context.Background())
	assert.True(t, errors.Is(err, liveerr.ErrOperational))
}

func blockingApp(t *testing.T) (*applications.TestApplication, chan struct{}, chan struct{}) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	app := startApp(t, "app", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.WriteHeader(204)
	}))
	return app, entered, release
}

func TestGracefulStopWaitsForRequests(t *testing.T) {
	app, entered, release := blockingApp(t)
	m := newManagerIn(t, app)

	result := make(chan error, 1)
	go func() {
		_, err := executeIn(app, m, &Request{})
		result <- err
	}()
	<-entered

	stopped := make(chan struct{})
	go func() {
		m.Stop(false)
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop(false) returned while a request was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-result)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop(false) did not return")
	}
}

func TestImmediateStopDoesNotWait(t *testing.T) {
	app, entered, release := blockingApp(t)
	defer close(release)
	m := newManagerIn(t, app)

	go func() { _, _ = executeIn(app, m, &Request{}) }()
	<-entered

	stopped := make(chan struct{})
	go func() {
		m.Stop(true)
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop(true) waited for a request in progress")
	}
}

func TestBoundaryShutdownStopsManager(t *testing.T) {
	app := startApp(t, "app", httphelpers.HandlerWithStatus(200))
	m := newManagerIn(t, app)
	app.Stop(false)

	m.lock.Lock()
	defer m.lock.Unlock()
	assert.True(t, m.stopped)
}

func TestClient(t *testing.T) {
	app := startApp(t, "app", httphelpers.HandlerWithResponse(200, nil, []byte("hi")))
	c, err := NewClient(app)
	require.NoError(t, err)
	assert.IsType(t, &RequestManager{}, c.Object().Value())

	resp, err := c.ExecuteRequest(&Request{Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "hi", resp.Content())

	_, err = c.ExecuteRequest(nil)
	assert.True(t, errors.Is(err, liveerr.ErrValidation))

	require.NoError(t, c.Stop(false))
	_, err = c.ExecuteRequest(&Request{})
	assert.True(t, errors.Is(err, liveerr.ErrOperational))
}

type taggingManager struct {
	RequestManager
}

func (m *taggingManager) Activate(ctx context.Context) error {
	m.Stages.GetResponse = func(wr hosting.WorkerRequest) (*Response, error) {
		resp := wr.(*WorkerRequest).Response()
		resp.Headers.Set("X-Tagged", "true")
		return resp, nil
	}
	return m.RequestManager.Activate(ctx)
}

func TestClientOfCustomType(t *testing.T) {
	app := startApp(t, "app", httphelpers.HandlerWithStatus(200))
	c, err := NewClientOfType(app, reflect.TypeOf(&taggingManager{}))
	require.NoError(t, err)

	resp, err := c.ExecuteRequest(&Request{})
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Headers.Get("X-Tagged"))
}

func TestClientOfTypeRequiresExecutor(t *testing.T) {
	app := startApp(t, "app", httphelpers.HandlerWithStatus(200))
	_, err := NewClientOfType(app, reflect.TypeOf(&struct{ A int }{}))
	assert.True(t, errors.Is(err, liveerr.ErrConfiguration))

	_, err = NewClient(nil)
	assert.True(t, errors.Is(err, liveerr.ErrValidation))
}

func TestClientAfterApplicationStopped(t *testing.T) {
	app := startApp(t, "app", httphelpers.HandlerWithStatus(200))
	c, err := NewClient(app)
	require.NoError(t, err)
	app.Stop(true)

	_, err = c.ExecuteRequest(&Request{})
	assert.True(t, errors.Is(err, liveerr.ErrOperational))
}

func TestWorkerRequestDetectsContentType(t *testing.T) {
	app := startApp(t, "app", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/typed":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"a":1}`))
		case "/suppressed":
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte("hello"))
		case "/empty":
			w.WriteHeader(204)
		default:
			_, _ = w.Write([]byte("<html><body>hello</body></html>"))
		}
	}))
	m := newManagerIn(t, app)

	resp, err := executeIn(app, m, &Request{Path: "/page"})
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", resp.Headers.Get("Content-Type"))

	resp, err = executeIn(app, m, &Request{Path: "/typed"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", resp.Headers.Get("Content-Type"))

	resp, err = executeIn(app, m, &Request{Path: "/suppressed"})
	require.NoError(t, err)
	assert.Empty(t, resp.Headers.Get("Content-Type"))

	resp, err = executeIn(app, m, &Request{Path: "/empty"})
	require.NoError(t, err)
	assert.Empty(t, resp.Headers.Get("Content-Type"))
}

func TestWorkerRequestDiscardsHeadBody(t *testing.T) {
	app := startApp(t, "app", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := w.Write([]byte("hello"))
		if err != nil || n != 5 {
			w.Header().Set("X-Write-Failed", "true")
		}
	}))
	m := newManagerIn(t, app)

	resp, err := executeIn(app, m, &Request{Method: "HEAD"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Headers.Get("Content-Type"))

	resp, err = executeIn(app, m, &Request{Method: "GET"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content())
}

type silentManager struct {
	RequestManager
}

func (m *silentManager) Activate(ctx context.Context) error {
	m.Stages.GetResponse = func(wr hosting.WorkerRequest) (*Response, error) {
		return nil, nil
	}
	return m.RequestManager.Activate(ctx)
}

func TestClientRejectsMissingResponse(t *testing.T) {
	app := startApp(t, "app", httphelpers.HandlerWithStatus(200))
	c, err := NewClientOfType(app, reflect.TypeOf(&silentManager{}))
	require.NoError(t, err)

	resp, err := c.ExecuteRequest(&Request{})
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, liveerr.ErrValidation))
	assert.Contains(t, err.Error(), "requests.silentManager")
}
