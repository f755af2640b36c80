// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// A ConfigError reports a call that cannot be sent as configured, such
// as a malformed URL or conflicting body options. It is returned
// before any attempt is made and is never retried.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "requests: invalid configuration: " + e.Err.Error()
	}
	return "requests: invalid configuration: " + e.Field + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}

func asConfigError(field string, err error) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return err
	}
	return &ConfigError{Field: field, Err: err}
}

// A TransportError reports an attempt that failed before a complete
// HTTP response was received: DNS failure, refused or reset
// connection, TLS handshake failure, broken response body, and the
// like. Transport errors are retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// A TimeoutError reports an attempt that exceeded its timeout. Timeout
// errors are retryable.
type TimeoutError struct {
	// After is the attempt timeout that expired, if known.
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("attempt timed out after %s: %v", e.After, e.Err)
	}
	return "attempt timed out: " + e.Err.Error()
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Timeout always returns true.
func (e *TimeoutError) Timeout() bool {
	return true
}

// A StatusError reports a response whose status code is outside the
// success range (400 and above). It keeps the response status, header,
// and fully read body.
type StatusError struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return "unexpected status " + e.Status
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Retryable reports whether the status is one a retry may cure: any
// 5xx and 429 (Too Many Requests).
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}
