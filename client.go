// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/taisuii/async-requests/internal/tracking"
	"github.com/taisuii/async-requests/provider"
	"github.com/taisuii/async-requests/request"
	"github.com/taisuii/async-requests/retry"
	"github.com/taisuii/async-requests/timeout"
	"github.com/taisuii/async-requests/transient"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

var nopLogger = zerolog.Nop()

// A Client is an HTTP client with retry support. Its zero value is a
// valid configuration: three attempts per call, a 10 second attempt
// timeout, exponential backoff starting at 500ms, no default headers.
//
// Client owns a shared client handle (connection pool) which it
// creates on first use and reuses for every call that does not set a
// proxy, cookies, or disable TLS verification. Calls that do are sent
// through an ephemeral handle built for the attempt and torn down
// afterward. Close drops the shared handle; the next call creates a
// new one. Client is safe for concurrent use by multiple goroutines.
//
// On top of sending requests, Client adds the following features:
//
// • Client reads and buffers the entire response body (returned as the
// Response.Body field), except for streamed downloads;
//
// • Client retries failed attempts using a customizable retry policy,
// within the attempt budget set by MaxRetries;
//
// • Client sets individual attempt timeouts using a customizable
// timeout policy;
//
// • Client turns every response with a status of 400 or above into an
// error, so callers see either a success response or an error; and
//
// • Client invokes user-provided handler functions at designated plug-in
// points within the attempt/retry loop.
//
// The exported fields must not be changed once the Client is in use,
// with the exception of the default headers, which are changed through
// SetDefaultHeaders and ClearDefaultHeaders.
type Client struct {
	// HTTPDoer, if set, is the shared handle. It is used as is: the
	// Proxy, InsecureSkipVerify, and TLSConfig fields do not apply to
	// it. Close calls its CloseIdleConnections method, if it has one.
	// Calls that disable redirects bypass an HTTPDoer that is not an
	// *http.Client and use an ephemeral handle instead.
	//
	// If HTTPDoer is nil, Client builds its shared handle as an
	// *http.Client over a pooled transport.
	HTTPDoer HTTPDoer
	// Header holds the default headers sent with every call. Headers
	// set by a call replace defaults with the same case-insensitive
	// name.
	Header http.Header
	// Timeout is the default per-attempt timeout. A call's own timeout
	// wins over it. If both are zero, TimeoutPolicy decides.
	Timeout time.Duration
	// MaxRetries is the attempt budget of each call: with MaxRetries
	// set to N, at most N attempts are made. Zero means 3. A negative
	// value is an invalid configuration.
	MaxRetries int
	// Proxy is the session proxy used by the shared handle. Nil means
	// the standard proxy environment variables decide.
	Proxy *request.Proxy
	// InsecureSkipVerify disables TLS certificate verification for
	// every call.
	InsecureSkipVerify bool
	// TLSConfig is the base TLS configuration of every handle Client
	// builds.
	TLSConfig *tls.Config
	// RetryPolicy decides when to retry failed attempts and how long
	// to wait before retrying. It is consulted only while the attempt
	// budget allows another attempt.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies how to set timeouts on individual
	// attempts when neither the call nor Timeout sets one.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a request plan.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// Logger receives attempt, retry, and failure events. If Logger is
	// nil, nothing is logged.
	Logger *zerolog.Logger
	// MeterProvider provides the meter for client metrics. If it is
	// nil, the global OpenTelemetry meter provider is used.
	MeterProvider metric.MeterProvider
	// Limiter, if set, is waited on before every attempt.
	Limiter *rate.Limiter
	// RequestIDHeader, if set, names the header that carries the
	// call's ID on every attempt, unless the call sets it itself.
	RequestIDHeader string
	// BatchConcurrency limits the number of concurrent calls made by
	// BatchGet. Zero or less means no limit.
	BatchConcurrency int

	mu       sync.Mutex
	provider *provider.Selector
	metrics  *tracking.Metrics
}

// Do executes an HTTP request plan and returns the final response,
// following the timeout and retry policies set on Client.
//
// If an attempt succeeds with a status below 400, its response is
// returned at once. If it fails with a retryable cause (a transport
// error, a timeout, a 5xx status, or 429) and the attempt budget
// allows, Client waits out the retry policy's backoff and tries again.
//
// Any other outcome ends the call:
//
// • if the plan's context is cancelled or reaches its deadline during
// an attempt or a backoff wait, the returned error is a *url.Error
// wrapping the context error, and no further attempt is made;
//
// • otherwise the returned error is a *RetriesExhaustedError carrying
// the cause, status, and response of the last attempt.
//
// A nil plan or a negative MaxRetries yields a *ConfigError before any
// attempt is made.
func (c *Client) Do(p *request.Plan) (*Response, error) {
	e, err := c.execute(p, false)
	if err != nil {
		return nil, err
	}
	return c.finish(e)
}

// NewPlan builds a plan for a call with this client's default headers
// and timeout, overridden by opts.
func (c *Client) NewPlan(ctx context.Context, method, url string, opts ...request.Option) (*request.Plan, error) {
	return request.NewPlan(ctx, method, url, c.defaults(), opts...)
}

// Request issues a call with the given method.
func (c *Client) Request(ctx context.Context, method, url string, opts ...request.Option) (*Response, error) {
	p, err := c.NewPlan(ctx, method, url, opts...)
	if err != nil {
		return nil, err
	}
	return c.Do(p)
}

// Get issues a GET to the specified URL.
func (c *Client) Get(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return c.Request(ctx, http.MethodGet, url, opts...)
}

// Post issues a POST to the specified URL. Use the request.Form,
// request.JSON, or request.Body option to set the body.
func (c *Client) Post(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return c.Request(ctx, http.MethodPost, url, opts...)
}

// Put issues a PUT to the specified URL.
func (c *Client) Put(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return c.Request(ctx, http.MethodPut, url, opts...)
}

// Delete issues a DELETE to the specified URL.
func (c *Client) Delete(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, url, opts...)
}

// Patch issues a PATCH to the specified URL.
func (c *Client) Patch(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return c.Request(ctx, http.MethodPatch, url, opts...)
}

// Head issues a HEAD to the specified URL.
func (c *Client) Head(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return c.Request(ctx, http.MethodHead, url, opts...)
}

// Options issues an OPTIONS to the specified URL.
func (c *Client) Options(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return c.Request(ctx, http.MethodOptions, url, opts...)
}

// SetDefaultHeaders adds h to the default headers, replacing defaults
// with the same case-insensitive name. Calls already running keep the
// headers they started with.
func (c *Client) SetDefaultHeaders(h map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Header = request.MergeHeader(c.Header, request.HeaderFromMap(h))
}

// ClearDefaultHeaders removes all default headers.
func (c *Client) ClearDefaultHeaders() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Header = nil
}

// Open creates the shared handle if it is not open yet. Calling Open
// is optional: the first call opens the handle anyway.
func (c *Client) Open() error {
	sel, _ := c.init()
	_, err := sel.Shared.Ensure()
	return err
}

// Close closes the shared handle. It is safe to call Close more than
// once, and to keep using the Client afterward: the next call creates
// a new shared handle.
func (c *Client) Close() error {
	c.mu.Lock()
	sel := c.provider
	c.mu.Unlock()
	if sel == nil {
		return nil
	}
	return sel.Close()
}

func (c *Client) execute(p *request.Plan, stream bool) (*request.Execution, error) {
	if p == nil {
		return nil, &ConfigError{Field: "plan", Err: errors.New("requests: nil plan")}
	}
	maxAttempts, err := c.maxAttempts()
	if err != nil {
		return nil, err
	}

	sel, metrics := c.init()
	retryPolicy := c.retryPolicy()
	handlers := c.Handlers
	log := c.logger()
	ctx := p.Context()

	e := &request.Execution{
		Plan:        p,
		ID:          uuid.NewString(),
		Attempt:     1,
		MaxAttempts: maxAttempts,
	}
	handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()

RetryLoop:
	for {
		c.sendAndReceive(e, sel, metrics, stream)
		if attemptTimedOut(e) {
			e.AttemptTimeouts++
			handlers.run(AfterAttemptTimeout, e)
		}
		handlers.run(AfterAttempt, e)

		if e.Err == nil {
			e.Outcome = request.Success
			break
		}
		if ctx.Err() != nil {
			cancelled(e, handlers)
			break
		}
		if e.Attempt >= e.MaxAttempts || !retryPolicy.Decide(e) {
			e.Outcome = request.Terminal
			break
		}

		e.Outcome = request.Retryable
		wait := retryPolicy.Wait(e)
		log.Warn().
			Str("request_id", e.ID).
			Str("method", p.Method).
			Str("url", p.URL.Redacted()).
			Int("attempt", e.Attempt).
			Int("status", e.StatusCode()).
			Dur("wait", wait).
			Err(e.Err).
			Msg("request failed, retrying")
		handlers.run(BeforeRetryWait, e)
		metrics.Retry(context.WithoutCancel(ctx), p.Method, p.URL.Host, errorType(e.Err))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			cancelled(e, handlers)
			break RetryLoop
		}
		e.Attempt++
	}

	e.End = time.Now()
	handlers.run(AfterExecutionEnd, e)
	return e, nil
}

func (c *Client) sendAndReceive(e *request.Execution, sel provider.Provider, m *tracking.Metrics, stream bool) {
	p := e.Plan

	// The timeout policy sees the state of the previous attempt.
	d := timeout.Resolve(c.TimeoutPolicy, e)

	e.Request, e.Response, e.Body, e.Err = nil, nil, nil, nil
	e.Outcome = request.Pending
	e.Ephemeral = false

	if c.Limiter != nil {
		if err := c.Limiter.Wait(p.Context()); err != nil {
			e.Err = urlErrorWrap(p, err)
			return
		}
	}

	lease, err := sel.Acquire(p)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
		return
	}
	e.Ephemeral = lease.Ephemeral

	// A streamed attempt is timed only until the response headers
	// arrive; the body may take as long as the caller reads it.
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		timedOut  func() bool
		stopTimer = func() bool { return true }
	)
	if stream {
		var fired atomic.Bool
		ctx, cancel = context.WithCancel(p.Context())
		t := time.AfterFunc(d, func() {
			fired.Store(true)
			cancel()
		})
		stopTimer = t.Stop
		timedOut = fired.Load
	} else {
		ctx, cancel = context.WithTimeout(p.Context(), d)
		timedOut = func() bool { return errors.Is(ctx.Err(), context.DeadlineExceeded) }
	}
	end := func() {
		stopTimer()
		cancel()
		lease.Release()
	}

	e.Request = p.ToRequest(ctx)
	if c.RequestIDHeader != "" && e.Request.Header.Get(c.RequestIDHeader) == "" {
		e.Request.Header.Set(c.RequestIDHeader, e.ID)
	}
	c.Handlers.run(BeforeAttempt, e)

	c.logger().Debug().
		Str("request_id", e.ID).
		Str("method", p.Method).
		Str("url", p.URL.Redacted()).
		Int("attempt", e.Attempt).
		Bool("ephemeral", e.Ephemeral).
		Msg("request attempt")

	mctx := context.WithoutCancel(p.Context())
	m.AttemptStarted(mctx, p.Method, p.URL.Host)
	start := time.Now()
	streaming := false
	defer func() {
		m.AttemptEnded(mctx, p.Method, p.URL.Host, e.StatusCode(), errorType(e.Err), e.Ephemeral, time.Since(start))
		if !streaming {
			end()
		}
	}()

	resp, err := lease.Doer.Do(e.Request)
	stopTimer()
	if err != nil {
		e.Err = classify(p, timedOut(), d, err)
		return
	}
	e.Response = resp
	c.Handlers.run(BeforeReadBody, e)

	if stream && e.Response.StatusCode < 400 {
		e.Response.Body = &releaseOnClose{ReadCloser: e.Response.Body, release: end}
		streaming = true
		return
	}

	body, err := io.ReadAll(e.Response.Body)
	_ = e.Response.Body.Close()
	if err != nil {
		e.Err = classify(p, timedOut(), d, err)
		return
	}
	e.Body = body
	if e.Response.StatusCode >= 400 {
		e.Err = urlErrorWrap(p, &request.StatusError{
			StatusCode: e.Response.StatusCode,
			Status:     e.Response.Status,
			Header:     e.Response.Header,
			Body:       body,
		})
	}
}

// finish turns a completed execution into the caller-facing result.
func (c *Client) finish(e *request.Execution) (*Response, error) {
	p := e.Plan
	mctx := context.WithoutCancel(p.Context())
	_, metrics := c.init()
	log := c.logger()

	switch {
	case e.Err == nil:
		metrics.CallEnded(mctx, p.Method, p.URL.Host, tracking.OutcomeSuccess)
		return newResponse(e), nil
	case e.Cancelled():
		metrics.CallEnded(mctx, p.Method, p.URL.Host, tracking.OutcomeCancelled)
		log.Debug().
			Str("request_id", e.ID).
			Str("method", p.Method).
			Str("url", p.URL.Redacted()).
			Int("attempts", e.Attempt).
			Err(e.Err).
			Msg("request cancelled")
		return nil, e.Err
	default:
		metrics.CallEnded(mctx, p.Method, p.URL.Host, tracking.OutcomeFailure)
		log.Error().
			Str("request_id", e.ID).
			Str("method", p.Method).
			Str("url", p.URL.Redacted()).
			Int("attempts", e.Attempt).
			Int("status", e.StatusCode()).
			Err(e.Err).
			Msg("request failed, giving up")
		return nil, &RetriesExhaustedError{
			Method:      p.Method,
			URL:         p.URL.Redacted(),
			Attempts:    e.Attempt,
			MaxAttempts: e.MaxAttempts,
			StatusCode:  e.StatusCode(),
			Response:    newResponse(e),
			Err:         e.Err,
		}
	}
}

func (c *Client) init() (*provider.Selector, *tracking.Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.provider == nil {
		o := provider.Options{
			Proxy:              c.Proxy,
			InsecureSkipVerify: c.InsecureSkipVerify,
			TLSConfig:          c.TLSConfig,
		}
		factory := provider.NewFactory(o)
		if c.HTTPDoer != nil {
			doer := c.HTTPDoer
			factory = func() (provider.Doer, error) { return doer, nil }
		}
		c.provider = provider.New(provider.NewShared(factory), &provider.Scoped{Options: o})
		c.metrics = tracking.New(c.MeterProvider)
	}

	return c.provider, c.metrics
}

func (c *Client) defaults() request.Defaults {
	c.mu.Lock()
	defer c.mu.Unlock()
	return request.Defaults{Header: c.Header, Timeout: c.Timeout}
}

func (c *Client) maxAttempts() (int, error) {
	switch {
	case c.MaxRetries < 0:
		return 0, &ConfigError{Field: "max_retries", Err: errors.New("must not be negative")}
	case c.MaxRetries == 0:
		return retry.DefaultMaxAttempts, nil
	default:
		return c.MaxRetries, nil
	}
}

func (c *Client) retryPolicy() retry.Policy {
	if c.RetryPolicy == nil {
		return retry.DefaultPolicy
	}
	return c.RetryPolicy
}

func (c *Client) logger() *zerolog.Logger {
	if c.Logger == nil {
		return &nopLogger
	}
	return c.Logger
}

func cancelled(e *request.Execution, handlers *HandlerGroup) {
	p := e.Plan
	e.Err = &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: p.Context().Err(),
	}
	e.Outcome = request.Terminal
	handlers.run(AfterPlanCancel, e)
}

// classify turns an error from sending a request or reading its
// response body into a *url.Error wrapping a TimeoutError, or a
// TransportError when the cause is a transient network failure. Other
// causes, such as redirect limits or protocol errors, are kept as is so
// the default retry policy treats them as terminal. If the plan itself
// is cancelled, the context error is kept as the cause.
func classify(p *request.Plan, timedOut bool, d time.Duration, err error) error {
	if ctxErr := p.Context().Err(); ctxErr != nil {
		return &url.Error{Op: urlErrorOp(p.Method), URL: p.URL.String(), Err: ctxErr}
	}

	op, u, cause := urlErrorOp(p.Method), p.URL.String(), err
	if ue, ok := err.(*url.Error); ok {
		op, u, cause = ue.Op, ue.URL, ue.Err
	}

	switch cat := transient.Categorize(cause); {
	case timedOut || cat == transient.Timeout:
		cause = &request.TimeoutError{After: d, Err: cause}
	case cat != transient.Not:
		cause = &request.TransportError{Err: cause}
	}

	return &url.Error{Op: op, URL: u, Err: cause}
}

func attemptTimedOut(e *request.Execution) bool {
	var to *request.TimeoutError
	return errors.As(e.Err, &to)
}

func errorType(err error) string {
	if err == nil {
		return ""
	}
	var se *request.StatusError
	var to *request.TimeoutError
	var te *request.TransportError
	switch {
	case errors.As(err, &se):
		return strconv.Itoa(se.StatusCode)
	case errors.As(err, &to):
		return "timeout"
	case errors.As(err, &te):
		if cat := transient.Categorize(te.Err); cat != transient.Not {
			return cat.String()
		}
		return "transport"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

// releaseOnClose ends a streamed attempt when the caller closes the
// response body.
type releaseOnClose struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (b *releaseOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
