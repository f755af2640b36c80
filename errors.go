// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"errors"
	"fmt"

	"github.com/taisuii/async-requests/request"
)

// The attempt-level error types are defined in package request, where
// the attempt loop classifies them. They are aliased here so that
// callers of this package can match them with errors.As without
// importing package request.
type (
	// TransportError reports an attempt that failed before a complete
	// response was received.
	TransportError = request.TransportError
	// TimeoutError reports an attempt that exceeded its timeout.
	TimeoutError = request.TimeoutError
	// StatusError reports a response with a status code of 400 or
	// above.
	StatusError = request.StatusError
	// ConfigError reports a call that cannot be sent as configured.
	// It is returned before any attempt is made.
	ConfigError = request.ConfigError
)

// A RetriesExhaustedError is returned by every call that ends in
// failure other than by cancellation or invalid configuration: either
// the last attempt failed with a non-retryable cause, or the attempt
// budget ran out.
//
// Err is the cause of the last attempt. It is a *url.Error wrapping a
// *TransportError, *TimeoutError, or *StatusError, so errors.As
// reaches all of them through the RetriesExhaustedError. A failure
// that is none of these, such as a redirect limit, is wrapped as is
// and ends the call after one attempt.
type RetriesExhaustedError struct {
	Method string
	URL    string
	// Attempts is the number of attempts made.
	Attempts int
	// MaxAttempts is the attempt budget the call ran with.
	MaxAttempts int
	// StatusCode is the status of the last response, or 0 if the last
	// attempt got no response.
	StatusCode int
	// Response is the last response with its body fully read, or nil
	// if the last attempt got no response.
	Response *Response
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("requests: %s %s failed after %d attempt(s): %v", e.Method, e.URL, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err carries a response with the given
// status code.
func IsStatus(err error, code int) bool {
	return StatusCode(err) == code
}

// StatusCode returns the status code of the failed response carried by
// err, or 0 if err carries none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsConfigError reports whether err is an invalid configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
