// Package applications maps application hosts to running isolation boundaries.
//
// An ApplicationHost names a deployment. A TestApplicationManager starts at most one boundary
// per distinct host and hands out the same TestApplication for every later request for an
// equivalent host. A TestApplication creates objects inside its boundary and returns Object
// references to them; methods run through an Object execute inside the boundary.
package applications
