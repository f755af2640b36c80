// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Plan (the effective
configuration of one logical HTTP call) and Execution (the state of a
Plan's execution), plus the call Options that build a Plan.

A Plan is the result of merging session defaults with per-call
options:

	p, err := request.NewPlan(ctx, "GET", "https://example.com/items",
		request.Defaults{Header: sessionHeader, Timeout: 10 * time.Second},
		request.Params(map[string]string{"page": "2"}),
		request.Header("Accept", "application/json"))

NewPlan never aliases its inputs: headers are merged into a new map,
with call values replacing session values of the same case-insensitive
name, and the body is pre-buffered so that every attempt sends the same
bytes. Invalid input is reported as a *ConfigError.

The plan's context controls the whole call, including the wait between
retries. Each attempt additionally gets its own timeout, taken from
Plan.Timeout when set or from the client's timeout policy otherwise.

An Execution is handed to retry and timeout policies and to event
handlers. Its Attempt field is one-based, and its Outcome field
classifies the most recent attempt as Success, Retryable, or Terminal.
*/
package request
