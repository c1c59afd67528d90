package requests

import (
	"context"
	"reflect"

	"github.com/launchdarkly/live-tests/applications"
	"github.com/launchdarkly/live-tests/liveerr"
)

var executorType = reflect.TypeOf((*Executor)(nil)).Elem()

// Client is the caller-side reference to an Executor living inside a boundary.
type Client struct {
	object *applications.Object
}

// NewClient creates a RequestManager inside app and returns a client for it.
func NewClient(app *applications.TestApplication) (*Client, error) {
	return NewClientOfType(app, reflect.TypeOf(&RequestManager{}))
}

// NewClientOfType creates a value of typ inside app and returns a client for it. typ must be a
// pointer to a struct implementing Executor, typically one embedding RequestManager.
func NewClientOfType(app *applications.TestApplication, typ reflect.Type) (*Client, error) {
	if app == nil {
		return nil, liveerr.Validationf("NewClient", "application is nil")
	}
	if typ == nil || !typ.Implements(executorType) {
		return nil, liveerr.Configurationf("NewClient", "'%s' does not implement requests.Executor", applications.TypeName(typ))
	}
	obj, err := app.CreateObject(typ)
	if err != nil {
		return nil, err
	}
	return &Client{object: obj}, nil
}

// Object returns the reference to the executor inside the boundary.
func (c *Client) Object() *applications.Object { return c.object }

// ExecuteRequest runs req inside the boundary. See RequestManager.ExecuteRequest.
func (c *Client) ExecuteRequest(req *Request) (*Response, error) {
	v, err := c.object.Invoke(func(ctx context.Context, value interface{}) (interface{}, error) {
		return value.(Executor).ExecuteRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	resp, _ := v.(*Response)
	if resp == nil {
		return nil, liveerr.Validationf("ExecuteRequest", "'%s' returned no response",
			applications.TypeName(reflect.TypeOf(c.object.Value())))
	}
	return resp, nil
}

// Stop stops the executor inside the boundary.
func (c *Client) Stop(immediate bool) error {
	_, err := c.object.Invoke(func(ctx context.Context, value interface{}) (interface{}, error) {
		value.(Executor).Stop(immediate)
		return nil, nil
	})
	return err
}
