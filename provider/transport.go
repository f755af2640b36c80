// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/taisuii/async-requests/request"
)

// Transport tuning shared by every handle this package builds.
const (
	ConnectTimeout        = 10 * time.Second
	KeepAlive             = 30 * time.Second
	TLSHandshakeTimeout   = 10 * time.Second
	MaxIdleConns          = 100
	MaxIdleConnsPerHost   = 10
	IdleConnTimeout       = 90 * time.Second
	ExpectContinueTimeout = 1 * time.Second
)

// Options holds the transport-level settings of a handle.
type Options struct {
	// Proxy selects the proxy. Nil means the standard environment
	// variables (HTTP_PROXY, HTTPS_PROXY, NO_PROXY) decide.
	Proxy *request.Proxy
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// TLSConfig is the base TLS configuration, for example to trust
	// extra root CAs. It is cloned, never modified.
	TLSConfig *tls.Config
}

// NewTransport returns a new pooled transport configured by o.
func NewTransport(o Options) *http.Transport {
	proxy := http.ProxyFromEnvironment
	if o.Proxy != nil {
		proxy = o.Proxy.Func()
	}

	var tlsConfig *tls.Config
	if o.TLSConfig != nil {
		tlsConfig = o.TLSConfig.Clone()
	}
	if o.InsecureSkipVerify {
		if tlsConfig == nil {
			tlsConfig = &tls.Config{}
		}
		tlsConfig.InsecureSkipVerify = true //nolint:gosec // caller asked for it
	}

	return &http.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   ConnectTimeout,
			KeepAlive: KeepAlive,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		TLSClientConfig:       tlsConfig,
		MaxIdleConns:          MaxIdleConns,
		MaxIdleConnsPerHost:   MaxIdleConnsPerHost,
		IdleConnTimeout:       IdleConnTimeout,
		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}
}

// NewFactory returns a Factory building *http.Client handles over a
// fresh transport configured by o. The handles follow redirects and
// have no cookie jar.
func NewFactory(o Options) Factory {
	return func() (Doer, error) {
		return &http.Client{Transport: NewTransport(o)}, nil
	}
}
