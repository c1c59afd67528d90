package checks

import (
	"reflect"

	"github.com/launchdarkly/live-tests/applications"
	"github.com/launchdarkly/live-tests/config"
	"github.com/launchdarkly/live-tests/livetest"
)

// SiteTests is the live test type checks run in. It uses the default host, except that the
// ApplicationIDSetting and VirtualPathSetting settings replace its id and virtual path.
type SiteTests struct {
	livetest.LiveTest
}

func (*SiteTests) GetDefaultApplicationHost(lc *livetest.Context, testType reflect.Type) *applications.ApplicationHost {
	settings := lc.Settings()
	h := livetest.DefaultApplicationHost(settings)
	if id, ok := settings.Get(config.ApplicationIDSetting); ok {
		h.ID = id
	}
	if vpath, ok := settings.Get(config.VirtualPathSetting); ok {
		h.VirtualPath = vpath
	}
	return &h
}
