// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"net/http"
	"time"

	"github.com/taisuii/async-requests/request"
	"github.com/taisuii/async-requests/transient"
)

// A Decider decides if a retry should be done.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines, and must be pure: a decision depends only on the
// execution state passed in.
//
// Use the built-in constructors Attempts, StatusCode, and Before, and
// the built-in deciders Budget, ServerError, TransportErr, and
// TransientErr; or implement your own. Use DeciderFunc to convert an
// ordinary function into a Decider, and to compose deciders logically
// using DeciderFunc.And and DeciderFunc.Or.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
type DeciderFunc func(e *request.Execution) bool

// DefaultMaxAttempts is the attempt budget used when none is
// configured.
const DefaultMaxAttempts = 3

// Retryable decides whether the most recent attempt failed in a way
// another attempt may cure: a transport failure (including timeouts),
// a 5xx status, or 429 (Too Many Requests). Every other failure,
// notably any other 4xx status, is terminal.
var Retryable = TransportErr.Or(ServerError).Or(StatusCode(http.StatusTooManyRequests))

// DefaultDecider retries a Retryable failure while the execution's
// attempt budget is not spent.
var DefaultDecider = Budget.And(Retryable)

// Budget is a decider that returns true while the execution attempt
// number is below the execution's attempt budget, e.MaxAttempts. An
// execution with no budget set uses DefaultMaxAttempts.
var Budget DeciderFunc = budget

// ServerError is a decider that returns true if the most recent attempt
// received a response with a 5xx status code.
var ServerError DeciderFunc = serverError

// TransportErr is a decider that returns true if the most recent
// attempt failed before a complete response was received, that is, if
// the execution error wraps a *request.TransportError or a
// *request.TimeoutError.
var TransportErr DeciderFunc = transportErr

// TransientErr is a decider that indicates a retry if the current
// error is transient according to transient.Categorize.
//
// TransientErr only looks at the error, so it will always return false
// for a response whose status code did not produce an error.
var TransientErr DeciderFunc = transientErr

// Decide returns true if a retry should be done, and false otherwise,
// after examining the current execution state.
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Attempts constructs a retry decider which allows at most n attempts
// in total. The returned decider returns true while the one-based
// attempt number e.Attempt is less than n, and false afterward.
func Attempts(n int) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Attempt < n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the start of the execution.
func Before(d time.Duration) DeciderFunc {
	return func(e *request.Execution) bool {
		return e.Duration() < d
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the most recent attempt received a
// response whose status code is contained in the list ss, the decider
// returns true. Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(e *request.Execution) bool {
		for _, s := range ss2 {
			if e.StatusCode() == s {
				return true
			}
		}
		return false
	}
}

// ShouldRetry is the plain-function form of DefaultDecider: it reports
// whether an attempt that failed with cause, being attempt number
// attempt (one-based) of a budget of maxAttempts, should be retried.
//
// The cause is examined the same way the execution error is: it may be
// a *request.StatusError, *request.TransportError, *request.TimeoutError,
// or any error those wrap.
func ShouldRetry(cause error, attempt, maxAttempts int) bool {
	if cause == nil || attempt >= maxAttempts {
		return false
	}
	var se *request.StatusError
	if errors.As(cause, &se) {
		return se.Retryable()
	}
	return isTransport(cause)
}

func budget(e *request.Execution) bool {
	n := e.MaxAttempts
	if n <= 0 {
		n = DefaultMaxAttempts
	}
	return e.Attempt < n
}

func serverError(e *request.Execution) bool {
	return e.StatusCode() >= 500
}

func transportErr(e *request.Execution) bool {
	return isTransport(e.Err)
}

func isTransport(err error) bool {
	var te *request.TransportError
	var to *request.TimeoutError
	return errors.As(err, &te) || errors.As(err, &to)
}

func transientErr(e *request.Execution) bool {
	return transient.Categorize(e.Err) != transient.Not
}
