// Package framework runs trees of named tests outside of "go test".
//
// A Context plays the role of *testing.T: test logic is attached to a TestID, failures are
// recorded with Errorf/FailNow (so testify's assert and require packages work against it),
// and debug output is captured per test so that it can be shown only for the tests that need
// it. Filters select which tests run, and a TestLogger reports progress as tests start and
// finish.
package framework
