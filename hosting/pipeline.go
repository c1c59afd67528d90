package hosting

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/launchdarkly/live-tests/liveerr"
)

// WorkerRequest is the primitive consumed by the application pipeline: one request paired
// with the writer that receives its response. A WorkerRequest is good for exactly one
// ProcessRequest call.
type WorkerRequest interface {
	http.ResponseWriter
	// Request returns the request to run through the pipeline.
	Request() *http.Request
	// StatusCode returns the status written so far, or 0 if nothing has been written.
	StatusCode() int
	// EndOfRequest is called once the pipeline is done with the request, whether it
	// succeeded or not.
	EndOfRequest()
}

// ApplicationError is returned by ProcessRequest when the hosted application panics.
type ApplicationError struct {
	Value interface{}
	Stack []byte
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("hosted application raised an error: %v", e.Value)
}

// ProcessRequest drives wr through the application pipeline and blocks until the pipeline
// returns. ctx becomes the request context.
func (e *Environment) ProcessRequest(ctx context.Context, wr WorkerRequest) (err error) {
	if wr == nil {
		return liveerr.Validationf("ProcessRequest", "worker request is nil")
	}
	if !e.IsHosted() {
		return liveerr.Operationalf("ProcessRequest", "application %s is no longer hosted", e.site.ApplicationID)
	}
	req := wr.Request()
	if req == nil {
		return liveerr.Validationf("ProcessRequest", "worker request has no request")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = &ApplicationError{Value: p, Stack: debug.Stack()}
		}
		wr.EndOfRequest()
		status := wr.StatusCode()
		if err != nil && status == 0 {
			status = http.StatusInternalServerError
		}
		recordPipelineRequest(e.site.ApplicationID, req.Method, status, time.Since(start))
		e.logger.Printf("%s %s -> %d (%s)", req.Method, req.URL.RequestURI(), status, time.Since(start))
	}()

	e.handler.ServeHTTP(wr, req.WithContext(ctx))
	return nil
}
