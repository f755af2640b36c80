// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/taisuii/async-requests/config"
	"github.com/taisuii/async-requests/request"
	"github.com/taisuii/async-requests/retry"
)

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cl, err := NewClient(nil)
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, cl.Timeout)
		assert.Equal(t, 3, cl.MaxRetries)
		assert.Equal(t, retry.BackoffBase, cl.RetryPolicy.Wait(&request.Execution{Attempt: 1}))
		assert.Equal(t, 2*retry.BackoffBase, cl.RetryPolicy.Wait(&request.Execution{Attempt: 2}))
		assert.Nil(t, cl.Proxy)
		assert.Nil(t, cl.Limiter)
		require.NotNil(t, cl.Logger)
		assert.Equal(t, zerolog.InfoLevel, cl.Logger.GetLevel())
	})
	t.Run("from settings", func(t *testing.T) {
		s, err := config.Parse([]byte(`
timeout: 2s
max_retries: 5
backoff:
  base: 10ms
  max: 40ms
headers:
  user-agent: test/1.0
proxy: http://proxy.internal:3128
rate:
  limit: 20
request_id_header: X-Request-ID
batch:
  concurrency: 4
log:
  level: disabled
`))
		require.NoError(t, err)

		cl, err := NewClient(s)

		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cl.Timeout)
		assert.Equal(t, 5, cl.MaxRetries)
		assert.Equal(t, "test/1.0", cl.Header.Get("User-Agent"))
		assert.Equal(t, "X-Request-ID", cl.RequestIDHeader)
		assert.Equal(t, 4, cl.BatchConcurrency)
		assert.Equal(t, zerolog.Disabled, cl.Logger.GetLevel())
		require.NotNil(t, cl.Limiter)
		assert.Equal(t, rate.Limit(20), cl.Limiter.Limit())
		assert.Equal(t, 1, cl.Limiter.Burst())
		require.NotNil(t, cl.Proxy)
		u, err := cl.Proxy.Func()(&http.Request{URL: &url.URL{Scheme: "https", Host: "example.com"}})
		require.NoError(t, err)
		assert.Equal(t, "proxy.internal:3128", u.Host)
		assert.Equal(t, 10*time.Millisecond, cl.RetryPolicy.Wait(&request.Execution{Attempt: 1}))
		assert.Equal(t, 40*time.Millisecond, cl.RetryPolicy.Wait(&request.Execution{Attempt: 4}))
	})
	t.Run("backoff from settings", func(t *testing.T) {
		p := retryPolicy(config.Backoff{Base: 10 * time.Millisecond, Max: 15 * time.Millisecond})
		e := &request.Execution{Attempt: 3}
		assert.Equal(t, 15*time.Millisecond, p.Wait(e))
		e.Attempt = 1
		assert.Equal(t, 10*time.Millisecond, p.Wait(e))
	})
	t.Run("invalid", func(t *testing.T) {
		s := config.Default()
		s.MaxRetries = 0

		cl, err := NewClient(s)

		assert.Nil(t, cl)
		var configErr *ConfigError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "settings", configErr.Field)
	})
	t.Run("works", func(t *testing.T) {
		srv := newScriptServer(t, 500, 200)
		s := config.Default()
		s.Backoff.Base = time.Millisecond
		s.Log.Level = "disabled"
		cl, err := NewClient(s)
		require.NoError(t, err)
		defer func() { _ = cl.Close() }()

		r, err := cl.Get(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Equal(t, 2, r.Attempts)
	})
}
