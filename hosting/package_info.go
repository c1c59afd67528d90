// Package hosting implements the isolation boundary that a hosted application runs in.
//
// A Boundary owns one application pipeline (an http.Handler built by an ApplicationFactory)
// and an Environment that code running inside the boundary can reach through its context.
// Callers outside the boundary never touch the Environment directly: they hand a function to
// Boundary.Call, which sends it over the boundary's call channel; the boundary runs it on its
// own goroutine with a context that carries the Environment, and sends back the result.
//
// Objects that live inside the boundary and need to be told when it shuts down register
// themselves with Environment.RegisterObject. Boundary.Shutdown asks each of them to Stop
// before the boundary is torn down.
package hosting
