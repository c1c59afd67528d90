package livetest

import (
	"os"
	"path/filepath"
	"reflect"

	"github.com/launchdarkly/live-tests/applications"
	"github.com/launchdarkly/live-tests/config"
)

// DefaultApplicationID is the id of the host returned by DefaultHooks.
const DefaultApplicationID = "LiveTesting.Default"

const (
	managerHookName = "GetDefaultTestApplicationManager"
	hostHookName    = "GetDefaultApplicationHost"
)

// TestApplicationManagerHook supplies the manager that starts the application a test type
// runs in. The test type is passed so that one implementation can serve several types.
type TestApplicationManagerHook interface {
	GetDefaultTestApplicationManager(lc *Context, testType reflect.Type) *applications.TestApplicationManager
}

// ApplicationHostHook supplies the host a test type runs in.
type ApplicationHostHook interface {
	GetDefaultApplicationHost(lc *Context, testType reflect.Type) *applications.ApplicationHost
}

// DefaultHooks implements both hooks. LiveTest embeds it, so a test type that embeds LiveTest
// gets these unless it declares a hook method of its own.
type DefaultHooks struct{}

// GetDefaultTestApplicationManager returns the Context's shared manager.
func (DefaultHooks) GetDefaultTestApplicationManager(lc *Context, testType reflect.Type) *applications.TestApplicationManager {
	return lc.DefaultManager()
}

// GetDefaultApplicationHost returns DefaultApplicationHost for the Context's settings.
func (DefaultHooks) GetDefaultApplicationHost(lc *Context, testType reflect.Type) *applications.ApplicationHost {
	h := DefaultApplicationHost(lc.Settings())
	return &h
}

// DefaultApplicationHost returns the host with id DefaultApplicationID at virtual path "/".
// The physical path is the LiveTesting.WebsitePath setting or, if that is not set, the parent
// of the current directory.
func DefaultApplicationHost(settings config.Settings) applications.ApplicationHost {
	path, ok := settings.Get(config.WebsitePathSetting)
	if !ok {
		path = parentOfWorkingDirectory()
	}
	return applications.ApplicationHost{ID: DefaultApplicationID, VirtualPath: "/", PhysicalPath: path}
}

func parentOfWorkingDirectory() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Dir(wd)
}
