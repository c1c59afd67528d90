// Package requests simulates HTTP requests against an application running inside a boundary,
// without a network listener.
package requests

import "net/http"

// Request describes a request to run through a hosted application pipeline. An empty Method
// means GET and an empty Path means the application root.
type Request struct {
	Path        string
	Method      string
	Headers     http.Header
	Body        []byte
	QueryString string
}

// Response is what the application pipeline wrote for a Request.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Content returns the response body as a string.
func (r *Response) Content() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}
