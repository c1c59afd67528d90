package livetest

import (
	"context"
	"reflect"

	"github.com/launchdarkly/live-tests/applications"
	"github.com/launchdarkly/live-tests/hosting"
	"github.com/launchdarkly/live-tests/liveerr"
)

const baseTypeName = "github.com/launchdarkly/live-tests/livetest.LiveTest"

var testInterface = reflect.TypeOf((*Test)(nil)).Elem()

// Instantiate creates a T inside the application chosen by T's hooks. T must be a pointer to a
// struct that embeds LiveTest.
func Instantiate[T Test](lc *Context) (T, error) {
	var zero T
	t, err := InstantiateType(lc, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return t.(T), nil
}

// InstantiateType creates a test of testType inside the application chosen by the type's
// hooks:
//
//   - the nearest GetDefaultTestApplicationManager and GetDefaultApplicationHost methods of
//     testType are looked up, and a ConfigurationError is returned if either is missing;
//   - both are called with testType, and a nil result is a ConfigurationError;
//   - the manager starts the application for the host;
//   - the test is constructed inside that application.
//
// Nothing is retried.
func InstantiateType(lc *Context, testType reflect.Type) (Test, error) {
	if lc == nil {
		return nil, liveerr.Validationf("Instantiate", "no livetest.Context given")
	}
	if testType == nil || testType.Kind() != reflect.Ptr || testType.Elem().Kind() != reflect.Struct {
		return nil, liveerr.Configurationf("Instantiate",
			"cannot create an instance of type '%s' because it is not a pointer to a struct type",
			applications.TypeName(testType))
	}
	name := applications.TypeName(testType)

	prototype := reflect.New(testType.Elem()).Interface()
	managerHook, ok := prototype.(TestApplicationManagerHook)
	if !ok {
		return nil, missingHookError(name, managerHookName)
	}
	hostHook, ok := prototype.(ApplicationHostHook)
	if !ok {
		return nil, missingHookError(name, hostHookName)
	}
	if !testType.Implements(testInterface) {
		return nil, liveerr.Configurationf("Instantiate",
			"cannot create an instance of type '%s' because it does not embed '%s'", name, baseTypeName)
	}

	manager := managerHook.GetDefaultTestApplicationManager(lc, testType)
	if manager == nil {
		return nil, liveerr.Configurationf("Instantiate",
			"failed to get an instance of 'applications.TestApplicationManager' for '%s': no manager available", name)
	}
	host := hostHook.GetDefaultApplicationHost(lc, testType)
	if host == nil {
		return nil, liveerr.Configurationf("Instantiate",
			"failed to get an instance of 'applications.ApplicationHost' for '%s': no host available", name)
	}

	lc.Logger().Printf("Instantiating %s in %s", name, host)
	app, err := manager.StartApplication(*host)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, liveerr.Operationalf("Instantiate", "failed to get application to execute tests in")
	}

	obj, err := app.CreateObject(testType)
	if err != nil {
		return nil, err
	}
	test := obj.Value().(Test)
	_, err = obj.Invoke(func(ctx context.Context, value interface{}) (interface{}, error) {
		value.(Test).liveTest().attach(obj, hosting.EnvironmentFromContext(ctx))
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

func missingHookError(typeName, hook string) error {
	return liveerr.Configurationf("Instantiate",
		"cannot create an instance of type '%s' because there is no '%s' method defined in its embedding chain. "+
			"See '%s' methods for an example of corresponding method signature",
		typeName, hook, baseTypeName)
}
