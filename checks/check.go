package checks

import (
	"net/http"
	"sort"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/live-tests/framework"
	"github.com/launchdarkly/live-tests/livetest"
	"github.com/launchdarkly/live-tests/requests"
	"github.com/launchdarkly/live-tests/servicedef"
)

// DoCheck runs a single check.
func DoCheck(c *framework.Context, lc *livetest.Context, check servicedef.Check) {
	test, err := livetest.Instantiate[*SiteTests](lc)
	require.NoError(c, err, "could not instantiate test in application")
	c.Debug("Running in application %s (%s)", test.Application().Host(), test.Application().ID())

	client, err := test.Requests()
	require.NoError(c, err, "could not create request manager")
	c.Defer(func() { _ = client.Stop(true) })

	req := MakeRequest(check.Request)
	c.Debug("Request: %s %s?%s", req.Method, req.Path, req.QueryString)
	resp, err := client.ExecuteRequest(req)
	require.NoError(c, err, "request failed")
	c.Debug("Response: status %d, %d bytes", resp.StatusCode, len(resp.Body))

	if check.ExpectStatus.IsDefined() {
		assert.Equal(c, check.ExpectStatus.IntValue(), resp.StatusCode, "unexpected status")
	}
	for _, s := range check.ExpectBodyContains {
		assert.Contains(c, resp.Content(), s, "response body did not contain expected text")
	}
	names := make([]string, 0, len(check.ExpectHeaders))
	for name := range check.ExpectHeaders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		assert.Equal(c, check.ExpectHeaders[name], resp.Headers.Get(name), "unexpected value for header %s", name)
	}
}

// MakeRequest converts a check request into a simulated request.
func MakeRequest(r servicedef.CheckRequest) *requests.Request {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	var body []byte
	if r.Body != "" {
		body = []byte(r.Body)
	}
	return &requests.Request{
		Path:        r.Path,
		Method:      method,
		Headers:     r.HTTPHeaders(),
		Body:        body,
		QueryString: r.Query,
	}
}
