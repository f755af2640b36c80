// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package requests provides an HTTP client with automatic retries and a
small, familiar surface: one method per HTTP verb, call options for
query parameters, headers, bodies, cookies and proxies, and helpers for
JSON, file downloads and batches.

Use the package-level functions for one-off calls. They share a
process-wide Client, whose handle should be closed before exit:

	defer requests.Shutdown()
	resp, err := requests.Get(ctx, "https://www.example.com",
		request.Params(map[string]string{"q": "go"}))
	...
	var out Reply
	err := requests.PostJSON(ctx, "https://www.example.com/api", in, &out)

Create a Client for session defaults:

	client := &requests.Client{
		Header:     request.HeaderFromMap(map[string]string{"User-Agent": "my-app/1.0"}),
		Timeout:    5 * time.Second,
		MaxRetries: 4,
	}
	defer client.Close()
	resp, err := client.Post(ctx, "https://www.example.com/form",
		request.Form(map[string]string{"key": "value"}))

Or scope one to a function with Session, which closes its handle on
return:

	err := requests.Session(ctx, client, func(ctx context.Context, s *requests.Client) error {
		_, err := s.Get(ctx, "https://www.example.com")
		return err
	})

A call that fails with a transport error, a timeout, a 5xx status or
429 is retried, waiting 500ms before the second attempt, 1s before the
third, and so on. Any other failure, or running out of attempts, ends
the call with a *RetriesExhaustedError wrapping the last cause. A
cancelled context ends the call at once with the context error.

For control over retry decisions and timing, create a custom retry
policy using components from package retry:

	retryWaiter := retry.NewExpWaiter(250*time.Millisecond, 5*time.Second, time.Now())
	retryPolicy := retry.NewPolicy(retry.DefaultDecider, retryWaiter)
	client := &requests.Client{
		RetryPolicy: retryPolicy,
	}

To hook into the fine-grained details of the client's request execution
logic, install a handler into the appropriate handler chain:

	handlers := &requests.HandlerGroup{}
	handlers.PushBack(requests.BeforeAttempt, requests.HandlerFunc(
		func(_ requests.Event, e *request.Execution) {
			log.Printf("Attempt %d to %s", e.Attempt, e.Request.URL.String())
		}),
	)
	client := &requests.Client{
		Handlers: handlers,
	}

Clients can also be built from settings loaded by package config:

	settings, err := config.Load("requests.yaml")
	...
	client, err := requests.NewClient(settings)
*/
package requests
