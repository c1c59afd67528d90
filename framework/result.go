package framework

import (
	"fmt"
	"io"
	"strings"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Counts returns how many tests passed, failed, and were skipped. Only the leaves of the test
// tree are counted.
func (r Results) Counts() (passed, failed, skipped int) {
	for _, t := range r.Tests {
		if r.hasChildren(t.TestID) {
			continue
		}
		switch {
		case t.Skipped:
			skipped++
		case len(t.Errors) > 0 || r.isFailure(t.TestID):
			failed++
		default:
			passed++
		}
	}
	return
}

func (r Results) hasChildren(id TestID) bool {
	for _, t := range r.Tests {
		if len(t.TestID.Path) > len(id.Path) && t.TestID.HasPrefix(id) {
			return true
		}
	}
	return false
}

func (r Results) isFailure(id TestID) bool {
	for _, f := range r.Failures {
		if f.TestID.String() == id.String() {
			return true
		}
	}
	return false
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// HasPrefix reports whether other's path is a prefix of t's path.
func (t TestID) HasPrefix(other TestID) bool {
	if len(other.Path) > len(t.Path) {
		return false
	}
	for i, p := range other.Path {
		if t.Path[i] != p {
			return false
		}
	}
	return true
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

// PrintResults writes a summary of the run, listing every failed test.
func PrintResults(out io.Writer, results Results) {
	passed, failed, skipped := results.Counts()
	if results.OK() {
		passedColor.Fprintf(out, "All tests passed (%d passed, %d skipped)\n", passed, skipped)
		return
	}
	failedColor.Fprintf(out, "FAILED TESTS (%d failed, %d passed, %d skipped):\n", failed, passed, skipped)
	for _, f := range results.Failures {
		fmt.Fprintf(out, "  * %s\n", f.TestID)
	}
}
