package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/launchdarkly/live-tests/checks"
	"github.com/launchdarkly/live-tests/framework"
	"github.com/launchdarkly/live-tests/hosting"
	"github.com/launchdarkly/live-tests/livetest"
	"github.com/launchdarkly/live-tests/logging"
	"github.com/launchdarkly/live-tests/servicedef"
)

var errChecksFailed = errors.New("some checks failed")

func run(out, errOut io.Writer, p commandParams) error {
	settings, err := p.settings()
	if err != nil {
		return err
	}

	file := servicedef.DefaultCheckFile()
	if p.checksPath != "" {
		if file, err = servicedef.ReadCheckFile(p.checksPath); err != nil {
			return err
		}
	}

	mainDebugLogger := logging.NullLogger()
	if p.debugAll {
		mainDebugLogger = logging.NewZerologLogger(logging.NewConsoleLogger(errOut, programName, true))
	}

	lc := livetest.NewContext(settings, livetest.WithLogger(mainDebugLogger))
	defer lc.Shutdown(false)

	framework.PrintFilterDescription(out, p.filters)
	fmt.Fprintf(out, "Running %d check(s)\n", len(file.Checks))

	testLogger := framework.ConsoleTestLogger{
		Out:                  out,
		DebugOutputOnFailure: p.debug || p.debugAll,
		DebugOutputOnSuccess: p.debugAll,
	}
	results := checks.RunChecks(lc, file, p.filters.AsFilter, testLogger)

	fmt.Fprintln(out)
	framework.PrintResults(out, results)
	if p.metrics {
		fmt.Fprintln(out)
		if err := printMetrics(out, hosting.Metrics()); err != nil {
			return err
		}
	}
	if !results.OK() {
		var failed []framework.TestID
		for _, f := range results.Failures {
			failed = append(failed, f.TestID)
		}
		fmt.Fprintf(out, "\nTo rerun the failed checks with debug output:\n  %s\n", p.rerunCommand(failed))
		return errChecksFailed
	}
	return nil
}

// printMetrics writes one line per counter and histogram series, sorted by name.
func printMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("cannot gather metrics: %w", err)
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName() + "{" + strings.Join(labels, ",") + "}"
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%gs", name, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	fmt.Fprintln(out, "Hosting metrics:")
	for _, l := range lines {
		fmt.Fprintf(out, "  %s\n", l)
	}
	return nil
}
