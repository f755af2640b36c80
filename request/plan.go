// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

var (
	template, _ = http.NewRequest(http.MethodGet, "", nil)
)

const (
	nilCtxMsg = "requests/request: nil context"
)

// A Plan is the effective configuration of one logical HTTP call: the
// session defaults merged with the call's own options.
//
// A logical call described by a Plan may result in several lower-level
// http.Request attempts, for example if a failed attempt is retried,
// so the request body is pre-buffered and every attempt sends the same
// bytes.
//
// Plans are built by NewPlan. After NewPlan returns, a Plan shares no
// mutable state with the Defaults or Options it was built from.
type Plan struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	Method string

	// URL specifies the URL to access, with any query parameters given
	// through the Params option already merged in.
	URL *urlpkg.URL

	// Header contains the merged request header fields. Keys are in
	// canonical form, so lookups are case-insensitive.
	Header http.Header

	// Body is the pre-buffered request body. A nil or empty body means
	// no body is sent.
	Body []byte

	// Cookies are sent with every attempt. A plan with cookies is sent
	// through an ephemeral client handle whose cookie jar is seeded
	// with them. A cookie with no path is scoped to "/", so it follows
	// redirects anywhere on the host.
	Cookies []*http.Cookie

	// Proxy overrides the session proxy for this call. Nil means the
	// session proxy (if any) applies.
	Proxy *Proxy

	// FollowRedirects reports whether redirects are followed. It is
	// true unless the NoRedirects option was given.
	FollowRedirects bool

	// InsecureSkipVerify disables TLS certificate verification for
	// this call.
	InsecureSkipVerify bool

	// Timeout is the per-attempt timeout. Zero means the client's
	// timeout policy decides.
	Timeout time.Duration

	// Close stipulates whether to close the connection after each
	// attempt.
	Close bool

	// Host optionally overrides the Host header to send.
	Host string

	ctx context.Context
}

// Defaults holds the session-level settings a Plan inherits when the
// call does not override them.
type Defaults struct {
	Header  http.Header
	Timeout time.Duration
}

// NewPlan builds the effective configuration for one logical call.
//
// The session defaults d are merged with opts, which are applied in
// order. Header values given by the call replace session values with
// the same (case-insensitive) key; session keys the call does not set
// are kept. A call timeout replaces the session timeout.
//
// Any problem with the inputs (nil context, invalid method, malformed
// URL, bad proxy, more than one body source, JSON that cannot be
// encoded) is reported as a *ConfigError before anything is sent.
func NewPlan(ctx context.Context, method, url string, d Defaults, opts ...Option) (*Plan, error) {
	if ctx == nil {
		return nil, &ConfigError{Field: "context", Err: errors.New(nilCtxMsg)}
	}
	if method == "" {
		method = http.MethodGet
	}
	if !validMethod(method) {
		return nil, configErrorf("method", "invalid method %q", method)
	}
	u, err := parseURL(url)
	if err != nil {
		return nil, err
	}

	var o Overrides
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err = opt(&o); err != nil {
			return nil, asConfigError("option", err)
		}
	}

	body, contentType, err := o.body()
	if err != nil {
		return nil, err
	}

	if len(o.Params) > 0 {
		q := u.Query()
		for k, vs := range o.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	h := MergeHeader(d.Header, o.Header)
	if contentType != "" && h.Get("Content-Type") == "" {
		h.Set("Content-Type", contentType)
	}
	for k := range h {
		if !httpguts.ValidHeaderFieldName(k) {
			return nil, configErrorf("header", "invalid header name %q", k)
		}
		for _, v := range h[k] {
			if !httpguts.ValidHeaderFieldValue(v) {
				return nil, configErrorf("header", "invalid value for header %q", k)
			}
		}
	}

	timeout := d.Timeout
	if o.Timeout > 0 {
		timeout = o.Timeout
	}

	return &Plan{
		ctx:                ctx,
		Method:             method,
		URL:                u,
		Header:             h,
		Body:               body,
		Cookies:            cloneCookies(o.Cookies),
		Proxy:              o.Proxy,
		FollowRedirects:    !o.NoRedirects,
		InsecureSkipVerify: o.InsecureSkipVerify,
		Timeout:            timeout,
		Host:               u.Host,
	}, nil
}

// Context returns the plan's context. The context controls
// cancellation of the whole logical call, including retry waits.
//
// The returned context is always non-nil; it defaults to the
// background context.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// NeedsIsolation reports whether the plan carries per-call transport
// state (a proxy, cookies, or a TLS verification override) that a
// shared connection pool cannot vary per request. Such plans are sent
// through an ephemeral client handle.
func (p *Plan) NeedsIsolation() bool {
	return p.Proxy != nil || len(p.Cookies) > 0 || p.InsecureSkipVerify
}

// ToRequest creates the HTTP request for one attempt. The context of
// the new request is set to ctx, which may not be nil.
//
// The plan's header is cloned, so handlers may change the request
// header without touching the plan.
func (p *Plan) ToRequest(ctx context.Context) *http.Request {
	r := template.WithContext(ctx)
	r.Method = p.Method
	r.URL = p.URL
	r.Header = p.Header.Clone()
	if len(p.Body) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(p.Body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(p.Body)), nil
		}
		r.ContentLength = int64(len(p.Body))
	}
	r.Close = p.Close
	r.Host = p.Host
	return r
}

func (o *Overrides) body() ([]byte, string, error) {
	n := 0
	if o.Form != nil {
		n++
	}
	if o.hasJSON {
		n++
	}
	if o.hasBody {
		n++
	}
	if n > 1 {
		return nil, "", configErrorf("body", "only one of form, JSON, or raw body may be given")
	}

	switch {
	case o.Form != nil:
		return []byte(o.Form.Encode()), "application/x-www-form-urlencoded", nil
	case o.hasJSON:
		b, err := json.Marshal(o.JSON)
		if err != nil {
			return nil, "", &ConfigError{Field: "json", Err: err}
		}
		return b, "application/json", nil
	case o.hasBody:
		return o.Body, o.ContentType, nil
	default:
		return nil, "", nil
	}
}

func parseURL(raw string) (*urlpkg.URL, error) {
	u, err := urlpkg.Parse(raw)
	if err != nil {
		return nil, &ConfigError{Field: "url", Err: err}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, configErrorf("url", "unsupported protocol scheme %q in %q", u.Scheme, raw)
	}
	u.Host = removeEmptyPort(u.Host)
	if u.Host == "" {
		return nil, configErrorf("url", "missing host in %q", raw)
	}
	return u, nil
}

func cloneCookies(cs []*http.Cookie) []*http.Cookie {
	if len(cs) == 0 {
		return nil
	}
	out := make([]*http.Cookie, len(cs))
	for i, c := range cs {
		c2 := *c
		if c2.Path == "" {
			c2.Path = "/"
		}
		out[i] = &c2
	}
	return out
}

func validMethod(method string) bool {
	return strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
