package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/live-tests/config"
	"github.com/launchdarkly/live-tests/framework"
)

func makeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.aspx"), []byte("<html>Welcome</html>"), 0o600))
	return dir
}

func writeChecks(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checks.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func executeCommand(args ...string) (string, error) {
	color.NoColor = true
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandRunsChecks(t *testing.T) {
	checks := writeChecks(t, `{"checks": [
		{"name": "home", "request": {"path": "/default.aspx"}, "expectStatus": 200, "expectBodyContains": ["Welcome"]},
		{"name": "missing", "request": {"path": "/missing.aspx"}, "expectStatus": 404}
	]}`)

	out, err := executeCommand("--site", makeSite(t), "--checks", checks, "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "Running 2 check(s)")
	assert.Contains(t, out, "[home]")
	assert.Contains(t, out, "[missing]")
	assert.Contains(t, out, "All tests passed (2 passed, 0 skipped)")
	assert.Contains(t, out, "Hosting metrics:")
	assert.Contains(t, out, "livetests_pipeline_requests_total{")
}

func TestCommandReportsFailures(t *testing.T) {
	site := makeSite(t)
	checks := writeChecks(t, `{"checks": [
		{"name": "home page", "request": {"path": "/default.aspx"}, "expectStatus": 500}
	]}`)

	out, err := executeCommand("--site", site, "--checks", checks, "--virtual-path", "/")
	require.Error(t, err)
	assert.Equal(t, errChecksFailed, err)
	assert.Contains(t, out, "FAILED: home page")
	assert.Contains(t, out, "To rerun the failed checks")
	assert.Contains(t, out, "--run '^home page$'")
}

func TestCommandUsesDefaultCheck(t *testing.T) {
	out, err := executeCommand("--site", makeSite(t), "--app-id", "cli-default")
	require.NoError(t, err)
	assert.Contains(t, out, "[site root]")
}

func TestCommandRejectsBadInput(t *testing.T) {
	_, err := executeCommand("--checks", filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)

	_, err = executeCommand("--config", filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)

	_, err = executeCommand("--run", "(")
	assert.Error(t, err)

	_, err = executeCommand("extra")
	assert.Error(t, err)
}

func TestSettingsFromFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[settings]
"LiveTesting.WebsitePath" = "/from/file"
"LiveTesting.VirtualPath" = "/file/"
`), 0o600))

	s, err := commandParams{configPath: path, site: "/from/flag"}.settings()
	require.NoError(t, err)
	site, _ := s.Get(config.WebsitePathSetting)
	vpath, _ := s.Get(config.VirtualPathSetting)
	assert.Equal(t, "/from/flag", site)
	assert.Equal(t, "/file/", vpath)
}

func TestRerunCommand(t *testing.T) {
	p := commandParams{site: "/srv/my site", checksPath: "checks.json"}
	cmd := p.rerunCommand([]framework.TestID{{Path: []string{"home (1)"}}})
	assert.Equal(t, `live-tests --site '/srv/my site' --checks checks.json --run '^home \(1\)$' --debug`, cmd)
}
