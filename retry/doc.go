// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides policies for retrying failed attempts during
// an execution, and for how long to wait before retrying.
//
// The default policy retries transport failures, timeouts, 5xx
// statuses and 429 while the attempt budget lasts, waiting
// 0.5s * 2^(attempt-1) between attempts. Any other 4xx status ends the
// execution at once.
//
// A Policy instance can be constructed using NewPolicy from a Decider
// and a Waiter:
//
//	decider := retry.Attempts(5).
//	               And(retry.Before(30 * time.Second)).
//	               And(retry.Retryable)
//	waiter := retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, time.Now())
//	policy := retry.NewPolicy(decider, waiter)
package retry
