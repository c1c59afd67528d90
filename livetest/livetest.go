// Package livetest is the entry point for tests that run inside a hosted application.
//
// A test type is a struct that embeds LiveTest:
//
//	type CartTests struct {
//		livetest.LiveTest
//	}
//
// livetest.Instantiate[*CartTests](lc) starts (or reuses) the application the type's hooks
// name and constructs the test inside it. A type chooses its application by declaring
// GetDefaultTestApplicationManager or GetDefaultApplicationHost itself; otherwise the ones
// promoted from DefaultHooks apply.
package livetest

import (
	"context"
	"sync"

	"github.com/launchdarkly/live-tests/applications"
	"github.com/launchdarkly/live-tests/hosting"
	"github.com/launchdarkly/live-tests/liveerr"
	"github.com/launchdarkly/live-tests/requests"
)

// Test is implemented by every struct that embeds LiveTest.
type Test interface {
	liveTest() *LiveTest
}

// LiveTest is the base for test types. Its methods are usable once the test has been created
// by Instantiate.
type LiveTest struct {
	DefaultHooks

	object *applications.Object
	env    *hosting.Environment
	client *requests.Client
	lock   sync.Mutex
}

func (t *LiveTest) liveTest() *LiveTest { return t }

func (t *LiveTest) attach(obj *applications.Object, env *hosting.Environment) {
	t.lock.Lock()
	t.object = obj
	t.env = env
	t.lock.Unlock()
}

func (t *LiveTest) reference() (*applications.Object, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.object == nil {
		return nil, liveerr.Operationalf("LiveTest", "test was not created by livetest.Instantiate")
	}
	return t.object, nil
}

// Application returns the application the test lives in, or nil.
func (t *LiveTest) Application() *applications.TestApplication {
	obj, err := t.reference()
	if err != nil {
		return nil
	}
	return obj.Application()
}

// Environment returns the hosted environment the test lives in, or nil.
func (t *LiveTest) Environment() *hosting.Environment {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.env
}

// Run executes fn inside the test's boundary.
func (t *LiveTest) Run(fn func(ctx context.Context) error) error {
	obj, err := t.reference()
	if err != nil {
		return err
	}
	_, err = obj.Application().Invoke(func(ctx context.Context) (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// Requests returns a client for a RequestManager living in the same boundary as the test.
// The client is created on first use.
func (t *LiveTest) Requests() (*requests.Client, error) {
	obj, err := t.reference()
	if err != nil {
		return nil, err
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.client == nil {
		c, err := requests.NewClient(obj.Application())
		if err != nil {
			return nil, err
		}
		t.client = c
	}
	return t.client, nil
}

// ExecuteRequest runs req through the test's application.
func (t *LiveTest) ExecuteRequest(req *requests.Request) (*requests.Response, error) {
	c, err := t.Requests()
	if err != nil {
		return nil, err
	}
	return c.ExecuteRequest(req)
}
