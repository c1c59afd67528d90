// Package checks runs request checks against a hosted site.
//
// Each check becomes a named test. It is instantiated as a SiteTests live test inside the
// application for the configured site, sends its request through the application pipeline,
// and asserts on the response with testify.
package checks
