// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/taisuii/async-requests/request"
)

// A Response is the result of a logical call: the final response
// received and a summary of the attempts it took to get it.
type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Header     http.Header
	// Body is the fully read response body. It is nil for streamed
	// responses.
	Body []byte
	// Request is the request sent in the final attempt.
	Request *http.Request
	// Attempts is the number of attempts made, including the final
	// one.
	Attempts int
	// Elapsed is the time from the start of the first attempt to the
	// end of the call, including retry waits.
	Elapsed time.Duration
	// ID identifies the logical call.
	ID string
	// Execution is the execution state the response was built from.
	Execution *request.Execution
}

func newResponse(e *request.Execution) *Response {
	if e.Response == nil {
		return nil
	}
	return &Response{
		StatusCode: e.Response.StatusCode,
		Status:     e.Response.Status,
		Proto:      e.Response.Proto,
		Header:     e.Response.Header,
		Body:       e.Body,
		Request:    e.Request,
		Attempts:   e.Attempt,
		Elapsed:    e.Duration(),
		ID:         e.ID,
		Execution:  e,
	}
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v.
func (r *Response) JSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("requests: decode JSON response: %w", err)
	}
	return nil
}

// Cookies parses and returns the cookies set in the response headers.
func (r *Response) Cookies() []*http.Cookie {
	return (&http.Response{Header: r.Header}).Cookies()
}
