// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/taisuii/async-requests/config"
	"github.com/taisuii/async-requests/request"
	"github.com/taisuii/async-requests/retry"
)

// NewClient returns a client configured by s. A nil s means
// config.Default().
func NewClient(s *config.Settings) (*Client, error) {
	if s == nil {
		s = config.Default()
	}
	if err := config.Validate(s); err != nil {
		return nil, &ConfigError{Field: "settings", Err: err}
	}

	var (
		proxy *request.Proxy
		err   error
	)
	if len(s.Proxies) > 0 {
		proxy, err = request.ParseProxyMap(s.Proxies)
	} else if s.Proxy != "" {
		proxy, err = request.ParseProxy(s.Proxy)
	}
	if err != nil {
		return nil, err
	}

	logger := NewLogger(s.Log.Level, s.Log.Pretty, nil)

	c := &Client{
		Header:             request.HeaderFromMap(s.Headers),
		Timeout:            s.Timeout,
		MaxRetries:         s.MaxRetries,
		Proxy:              proxy,
		InsecureSkipVerify: s.InsecureSkipVerify,
		RetryPolicy:        retryPolicy(s.Backoff),
		Logger:             &logger,
		RequestIDHeader:    s.RequestIDHeader,
		BatchConcurrency:   s.Batch.Concurrency,
	}
	if s.Rate.Limit > 0 {
		burst := s.Rate.Burst
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(s.Rate.Limit), burst)
	}

	return c, nil
}

func retryPolicy(b config.Backoff) retry.Policy {
	if b.Base == retry.BackoffBase && b.Max == 0 && !b.Jitter {
		return retry.DefaultPolicy
	}

	ceiling := b.Max
	if ceiling == 0 {
		ceiling = time.Duration(math.MaxInt64)
	}
	var jitter interface{}
	if b.Jitter {
		jitter = time.Now()
	}

	return retry.NewPolicy(retry.DefaultDecider, retry.NewExpWaiter(b.Base, ceiling, jitter))
}
