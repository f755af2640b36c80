// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"

	"github.com/taisuii/async-requests/request"
)

// Scoped builds a standalone client handle for every attempt, with the
// plan's proxy, TLS verification setting, redirect policy and cookies.
// The handle's idle connections are closed when its lease is released.
//
// Each attempt gets a fresh cookie jar seeded with the plan's cookies,
// so cookies set by the server during one attempt (for example on a
// redirect) are not carried into the next attempt.
type Scoped struct {
	// Options holds the session transport settings. Plan settings are
	// laid over them.
	Options Options
}

// Acquire implements Provider.
func (s *Scoped) Acquire(p *request.Plan) (*Lease, error) {
	o := s.Options
	if p.Proxy != nil {
		o.Proxy = p.Proxy
	}
	if p.InsecureSkipVerify {
		o.InsecureSkipVerify = true
	}
	t := NewTransport(o)

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	if len(p.Cookies) > 0 {
		jar.SetCookies(p.URL, p.Cookies)
	}

	c := &http.Client{
		Transport: t,
		Jar:       jar,
	}
	if !p.FollowRedirects {
		c.CheckRedirect = noRedirect
	}
	return NewLease(c, true, t.CloseIdleConnections), nil
}

// Close implements Provider. Scoped keeps no long-lived handles, so
// Close does nothing.
func (s *Scoped) Close() error {
	return nil
}
