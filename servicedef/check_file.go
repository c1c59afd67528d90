// Package servicedef defines the JSON format of request check files.
//
//	{
//	  "checks": [
//	    {
//	      "name": "home page",
//	      "request": { "path": "/default.aspx" },
//	      "expectStatus": 200,
//	      "expectBodyContains": ["Welcome"]
//	    }
//	  ]
//	}
package servicedef

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

type CheckFile struct {
	Checks []Check `json:"checks"`
}

type Check struct {
	Name               string              `json:"name"`
	Request            CheckRequest        `json:"request"`
	ExpectStatus       ldvalue.OptionalInt `json:"expectStatus,omitempty"`
	ExpectBodyContains []string            `json:"expectBodyContains,omitempty"`
	ExpectHeaders      map[string]string   `json:"expectHeaders,omitempty"`
}

type CheckRequest struct {
	Path    string            `json:"path"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
	Query   string            `json:"query,omitempty"`
}

// DefaultCheckFile is used when no check file is given: the site root must answer 200.
func DefaultCheckFile() CheckFile {
	return CheckFile{Checks: []Check{
		{Name: "site root", Request: CheckRequest{Path: "/"}, ExpectStatus: ldvalue.NewOptionalInt(http.StatusOK)},
	}}
}

// ReadCheckFile loads and validates a check file.
func ReadCheckFile(path string) (CheckFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CheckFile{}, fmt.Errorf("cannot read check file: %w", err)
	}
	f, err := ParseCheckFile(data)
	if err != nil {
		return CheckFile{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseCheckFile decodes and validates check file content.
func ParseCheckFile(data []byte) (CheckFile, error) {
	var f CheckFile
	if err := json.Unmarshal(data, &f); err != nil {
		return CheckFile{}, fmt.Errorf("invalid check file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return CheckFile{}, err
	}
	return f, nil
}

// Validate requires at least one check, and a unique non-empty name and a path for each.
func (f CheckFile) Validate() error {
	if len(f.Checks) == 0 {
		return fmt.Errorf("check file contains no checks")
	}
	names := make(map[string]bool)
	for i, c := range f.Checks {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("check #%d has no name", i+1)
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate check name %q", c.Name)
		}
		names[c.Name] = true
		if c.Request.Path == "" {
			return fmt.Errorf("check %q has no request path", c.Name)
		}
	}
	return nil
}

// HTTPHeaders returns the request headers in canonical form.
func (r CheckRequest) HTTPHeaders() http.Header {
	if len(r.Headers) == 0 {
		return nil
	}
	h := make(http.Header, len(r.Headers))
	for k, v := range r.Headers {
		h.Set(k, v)
	}
	return h
}
