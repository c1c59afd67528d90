package requests

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/launchdarkly/live-tests/liveerr"
)

// WorkerRequest adapts a Request and a Response to the pipeline's hosting.WorkerRequest
// contract. The pipeline reads the request from it and writes the response into it. It can be
// processed only once: after EndOfRequest it no longer offers a request.
type WorkerRequest struct {
	request     *http.Request
	response    *Response
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
	sniffed     bool
	ended       bool
	lock        sync.Mutex
}

// NewWorkerRequest builds the pipeline request for req. resp receives the result when the
// pipeline finishes; if it is nil a new Response is allocated.
func NewWorkerRequest(req *Request, resp *Response) (*WorkerRequest, error) {
	if req == nil {
		return nil, liveerr.Validationf("NewWorkerRequest", "request is nil")
	}
	if resp == nil {
		resp = &Response{}
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := &url.URL{
		Scheme:   "http",
		Host:     "localhost",
		Path:     path,
		RawQuery: strings.TrimPrefix(req.QueryString, "?"),
	}
	hr, err := http.NewRequest(method, u.String(), bytes.NewReader(req.Body))
	if err != nil {
		return nil, liveerr.Wrap(liveerr.Validation, "NewWorkerRequest", err, "invalid request")
	}
	hr.RequestURI = u.RequestURI()
	hr.RemoteAddr = "127.0.0.1:0"
	if req.Headers != nil {
		hr.Header = req.Headers.Clone()
	}
	if host := hr.Header.Get("Host"); host != "" {
		hr.Host = host
	}
	return &WorkerRequest{request: hr, response: resp, header: make(http.Header)}, nil
}

// Request returns the pipeline request, or nil once the request has been processed.
func (w *WorkerRequest) Request() *http.Request {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.ended {
		return nil
	}
	return w.request
}

func (w *WorkerRequest) Header() http.Header {
	return w.header
}

func (w *WorkerRequest) WriteHeader(status int) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.writeHeader(status)
}

// Write behaves like a net/http server's: the first non-empty write sets Content-Type from the
// data when the handler did not set one, and the body of a HEAD response is discarded.
func (w *WorkerRequest) Write(data []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.writeHeader(http.StatusOK)
	if !w.sniffed && len(data) > 0 {
		w.sniffed = true
		if _, ok := w.response.Headers["Content-Type"]; !ok {
			w.response.Headers.Set("Content-Type", http.DetectContentType(data))
		}
	}
	if w.request.Method == http.MethodHead {
		return len(data), nil
	}
	return w.body.Write(data)
}

// Flush is a no-op; the response is collected in memory.
func (w *WorkerRequest) Flush() {}

func (w *WorkerRequest) writeHeader(status int) {
	if w.wroteHeader || w.ended {
		return
	}
	w.wroteHeader = true
	w.status = status
	w.response.Headers = w.header.Clone()
}

// StatusCode returns the status written so far, or 0.
func (w *WorkerRequest) StatusCode() int {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.status
}

// EndOfRequest completes the Response. A handler that wrote nothing produces an empty 200.
func (w *WorkerRequest) EndOfRequest() {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.ended {
		return
	}
	w.writeHeader(http.StatusOK)
	w.ended = true
	w.response.StatusCode = w.status
	w.response.Body = append([]byte(nil), w.body.Bytes()...)
}

// Response returns the Response this request writes into.
func (w *WorkerRequest) Response() *Response {
	return w.response
}
