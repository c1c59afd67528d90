package checks

import (
	"github.com/launchdarkly/live-tests/framework"
	"github.com/launchdarkly/live-tests/livetest"
	"github.com/launchdarkly/live-tests/servicedef"
)

// RunChecks runs every check in file as a test named after the check.
func RunChecks(
	lc *livetest.Context,
	file servicedef.CheckFile,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		for _, check := range file.Checks {
			check := check
			c.Run(check.Name, func(c *framework.Context) {
				DoCheck(c, lc, check)
			})
		}
	})
}
