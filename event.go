// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to extend it with custom
// functionality.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// plan execution starts.
	//
	// When Client fires BeforeExecutionStart, the execution's plan,
	// ID, and attempt budget are set, and Attempt is 1.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// individual HTTP request attempt.
	//
	// When Client fires BeforeAttempt, the execution's request field
	// is set to the HTTP request that WILL BE sent after all
	// BeforeAttempt handlers have finished, and its Ephemeral field
	// tells which kind of client handle will send it.
	//
	// BeforeAttempt handlers may modify the request. The request
	// header is a copy of the plan header and may be changed in place,
	// but the URL is shared with the plan and must be cloned before it
	// is changed.
	BeforeAttempt
	// BeforeReadBody identifies the event that occurs after an attempt
	// has resulted in an HTTP response (as opposed to an error) but
	// before the response body is read.
	//
	// BeforeReadBody fires for every response regardless of its status
	// code. For a streamed download whose status is below 400 it fires
	// before the body is handed to the caller.
	BeforeReadBody
	// AfterAttemptTimeout identifies the event that occurs after an
	// attempt failed because it exceeded its timeout.
	//
	// When Client fires AfterAttemptTimeout, the execution's error
	// field holds a *request.TimeoutError and its attempt timeout
	// counter has been incremented.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after an attempt
	// concludes, successfully or not, before the retry policy is
	// consulted.
	AfterAttempt
	// BeforeRetryWait identifies the event that occurs after the retry
	// policy decided to retry and before the client waits out the
	// backoff. The execution's outcome is request.Retryable.
	BeforeRetryWait
	// AfterPlanCancel identifies the event that occurs when the plan's
	// context is cancelled or reaches its deadline, either during an
	// attempt or during a retry wait. The execution's error field holds
	// the context error.
	//
	// AfterPlanCancel always occurs after AfterAttempt.
	AfterPlanCancel
	// AfterExecutionEnd identifies the event that occurs after the plan
	// execution ends.
	//
	// When Client fires AfterExecutionEnd, the execution is in the
	// same state it was in after the final attempt EXCEPT that the end
	// time is set.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"BeforeReadBody",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"BeforeRetryWait",
	"AfterPlanCancel",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in a
// plan execution by Client, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		BeforeReadBody,
		AfterAttemptTimeout,
		AfterAttempt,
		BeforeRetryWait,
		AfterPlanCancel,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
