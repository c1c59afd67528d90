package main

import (
	"regexp"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/spf13/cobra"

	"github.com/launchdarkly/live-tests/config"
	"github.com/launchdarkly/live-tests/framework"
)

const programName = "live-tests"

type commandParams struct {
	site        string
	virtualPath string
	appID       string
	configPath  string
	checksPath  string
	filters     framework.RegexFilters
	debug       bool
	debugAll    bool
	metrics     bool
}

func newRootCommand() *cobra.Command {
	var p commandParams
	cmd := &cobra.Command{
		Use:   programName,
		Short: "Run request checks against a site hosted in-process",
		Long: `live-tests hosts a site inside an isolated application boundary and sends
simulated requests through its pipeline, checking each response against the
expectations in a check file. Without --checks, it only checks that the site
root answers 200.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), p)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&p.site, "site", "", "physical path of the site to host (default: "+config.WebsitePathSetting+
		" setting, else the parent of the current directory)")
	fs.StringVar(&p.virtualPath, "virtual-path", "", "virtual path to host the site under (default \"/\")")
	fs.StringVar(&p.appID, "app-id", "", "application id to host the site as")
	fs.StringVar(&p.configPath, "config", "", "TOML file with a [settings] table")
	fs.StringVar(&p.checksPath, "checks", "", "JSON file of request checks")
	fs.Var(&p.filters.MustMatch, "run", "regex pattern(s) to select checks to run")
	fs.Var(&p.filters.MustNotMatch, "skip", "regex pattern(s) to select checks not to run")
	fs.BoolVar(&p.debug, "debug", false, "enable debug logging for failed checks")
	fs.BoolVar(&p.debugAll, "debug-all", false, "enable debug logging for all checks and the hosting layer")
	fs.BoolVar(&p.metrics, "metrics", false, "print hosting metrics after the run")
	return cmd
}

// settings loads the config file and applies the command line overrides.
func (p commandParams) settings() (config.Settings, error) {
	s, err := config.Load(p.configPath)
	if err != nil {
		return nil, err
	}
	for name, value := range map[string]string{
		config.WebsitePathSetting:   p.site,
		config.VirtualPathSetting:   p.virtualPath,
		config.ApplicationIDSetting: p.appID,
	} {
		if value != "" {
			s = s.With(name, value)
		}
	}
	return s, nil
}

// rerunCommand returns a command line that runs only the given checks with the same site
// and options.
func (p commandParams) rerunCommand(checks []framework.TestID) string {
	var b commandBuilder
	b.add(programName)
	for _, f := range []struct{ flag, value string }{
		{"--site", p.site},
		{"--virtual-path", p.virtualPath},
		{"--app-id", p.appID},
		{"--config", p.configPath},
		{"--checks", p.checksPath},
	} {
		if f.value != "" {
			b.add(f.flag, f.value)
		}
	}
	for _, id := range checks {
		b.add("--run", "^"+regexp.QuoteMeta(id.String())+"$")
	}
	b.add("--debug")
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
