// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// A Proxy selects the proxy server for outgoing requests, either one
// proxy for every scheme or a proxy per URL scheme.
type Proxy struct {
	// ByScheme maps a lower-case URL scheme ("http", "https") to the
	// proxy for that scheme. The empty key holds the proxy used for
	// schemes with no entry of their own.
	ByScheme map[string]*url.URL
}

// ParseProxy returns a Proxy routing every scheme through raw.
func ParseProxy(raw string) (*Proxy, error) {
	u, err := parseProxyURL(raw)
	if err != nil {
		return nil, err
	}
	return &Proxy{ByScheme: map[string]*url.URL{"": u}}, nil
}

// ParseProxyMap returns a Proxy with one entry per scheme. Keys may be
// given as "http", "http://", "https", "https://", or "all" (or "all://")
// for the fallback entry. An empty map yields a nil Proxy.
func ParseProxyMap(m map[string]string) (*Proxy, error) {
	if len(m) == 0 {
		return nil, nil
	}
	p := &Proxy{ByScheme: make(map[string]*url.URL, len(m))}
	for k, raw := range m {
		scheme := strings.TrimSuffix(strings.ToLower(k), "://")
		switch scheme {
		case "all", "*":
			scheme = ""
		case "http", "https":
		default:
			return nil, configErrorf("proxy", "unsupported proxy key %q", k)
		}
		u, err := parseProxyURL(raw)
		if err != nil {
			return nil, err
		}
		p.ByScheme[scheme] = u
	}
	return p, nil
}

// Func returns a function suitable for http.Transport.Proxy. Requests
// whose scheme has no entry, and no fallback entry exists, go direct.
func (p *Proxy) Func() func(*http.Request) (*url.URL, error) {
	if p == nil {
		return nil
	}
	return func(r *http.Request) (*url.URL, error) {
		return p.For(r.URL.Scheme), nil
	}
}

// For returns the proxy for the given URL scheme, or nil for a direct
// connection.
func (p *Proxy) For(scheme string) *url.URL {
	if p == nil {
		return nil
	}
	if u, ok := p.ByScheme[strings.ToLower(scheme)]; ok {
		return u
	}
	return p.ByScheme[""]
}

// String describes the proxy without credentials.
func (p *Proxy) String() string {
	if p == nil {
		return "<direct>"
	}
	var b strings.Builder
	for _, s := range []string{"", "http", "https"} {
		u, ok := p.ByScheme[s]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		if s == "" {
			s = "all"
		}
		fmt.Fprintf(&b, "%s=%s", s, u.Redacted())
	}
	return b.String()
}

func parseProxyURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ConfigError{Field: "proxy", Err: err}
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, configErrorf("proxy", "unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, configErrorf("proxy", "missing host in proxy %q", raw)
	}
	return u, nil
}
