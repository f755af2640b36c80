// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/taisuii/async-requests/transient"
)

// An Outcome classifies the result of the most recent attempt of an
// execution.
type Outcome int

const (
	// Pending means no attempt has concluded yet.
	Pending Outcome = iota
	// Success means the attempt received a response with a status
	// code below 400.
	Success
	// Retryable means the attempt failed and the retry policy allows
	// another attempt.
	Retryable
	// Terminal means the attempt failed and no further attempt will
	// be made.
	Terminal
)

var outcomeNames = []string{"pending", "success", "retryable", "terminal"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// An Execution represents the state of a single Plan execution, that
// is, one logical call and all of its attempts.
//
// Timeout and retry policies and event handlers may set values on an
// Execution using its SetValue method and read them back using the
// Value method. They should treat the exported fields as read-only,
// with the limited exception of reasonable changes to the http.Request
// before it is sent (for example to sign it).
type Execution struct {
	// Plan specifies the plan being executed. It is never nil.
	Plan *Plan

	// ID identifies the logical call. It stays the same across
	// attempts.
	ID string

	// Start is the start time of the execution.
	Start time.Time

	// End is the end time of the execution. It contains the zero
	// value until the execution ends.
	End time.Time

	// Attempt is the one-based number of the current attempt. It is
	// 1 on the initial attempt, 2 on the first retry, and so on. Once
	// the execution has ended it holds the number of attempts made.
	Attempt int

	// MaxAttempts is the attempt budget of the execution. With a
	// budget of N, at most N attempts are made.
	MaxAttempts int

	// AttemptTimeouts counts the attempts that timed out.
	AttemptTimeouts int

	// Ephemeral reports whether the current attempt uses an
	// ephemeral client handle rather than the shared one.
	Ephemeral bool

	// Outcome classifies the most recent attempt.
	Outcome Outcome

	// Request specifies the HTTP request to be made in the current
	// attempt, or already made in the last attempt.
	Request *http.Request

	// Response specifies the HTTP response received in the most recent
	// attempt. It is nil if the attempt ended in a transport error.
	Response *http.Response

	// Err indicates the error of the most recent attempt, or nil if
	// it succeeded. Whenever Err is non-nil it has the type *url.Error,
	// wrapping a *TransportError, *TimeoutError, or *StatusError, the
	// raw cause of a non-transient failure such as a redirect limit, or
	// the context error if the call was cancelled.
	Err error

	// Body is the complete response body read in the most recent
	// attempt. It is nil for streamed executions.
	Body []byte

	data context.Context
}

// StatusCode returns the status code of the response from the most
// recent attempt, or 0 if there is none.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the response headers from the most recent attempt,
// or a nil header if there is no response.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If it
// has ended, the duration is End minus Start. Otherwise it is the
// current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether Err currently contains a timeout.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// StatusErr returns the *StatusError carried by Err, if any.
func (e *Execution) StatusErr() *StatusError {
	var se *StatusError
	if errors.As(e.Err, &se) {
		return se
	}
	return nil
}

// Cancelled reports whether Err is the result of the plan's context
// being cancelled or reaching its deadline.
func (e *Execution) Cancelled() bool {
	if e.Err == nil {
		return false
	}
	ctxErr := e.Plan.Context().Err()
	return ctxErr != nil && errors.Is(e.Err, ctxErr)
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, it must be comparable, and it
// should not be of a built-in type.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
