// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"context"
	"net/http"

	"github.com/taisuii/async-requests/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do executes an HTTP request plan and returns the final response (or
// error, if any). Client implements the Doer interface, and any other
// Doer implementation must behave substantially the same as Client.Do.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Doer interface {
	Do(p *request.Plan) (*Response, error)
}

// Requester is the interface that wraps the verb methods.
//
// Each method builds a plan for the given URL and call options,
// executes it, and returns the final response (or error, if any).
// Client implements the Requester interface.
type Requester interface {
	Request(ctx context.Context, method, url string, opts ...request.Option) (*Response, error)
	Get(ctx context.Context, url string, opts ...request.Option) (*Response, error)
	Post(ctx context.Context, url string, opts ...request.Option) (*Response, error)
	Put(ctx context.Context, url string, opts ...request.Option) (*Response, error)
	Delete(ctx context.Context, url string, opts ...request.Option) (*Response, error)
	Patch(ctx context.Context, url string, opts ...request.Option) (*Response, error)
	Head(ctx context.Context, url string, opts ...request.Option) (*Response, error)
	Options(ctx context.Context, url string, opts ...request.Option) (*Response, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Do method, the verb
// methods, and Close.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Executor interface {
	Doer
	Requester
	Close() error
}

// Inflate converts any non-nil Doer into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that only
// has access to a Doer needs to call a function that requires an
// Executor.
//
// The verb methods of an inflated Doer build plans with no default
// headers or timeout. Its Close method calls CloseIdleConnections on
// the Doer if it has one.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("requests: nil doer")
	}

	if e, ok := d.(Executor); ok {
		return e
	}

	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(p *request.Plan) (*Response, error) {
	return i.doer.Do(p)
}

func (i inflated) Request(ctx context.Context, method, url string, opts ...request.Option) (*Response, error) {
	p, err := request.NewPlan(ctx, method, url, request.Defaults{}, opts...)
	if err != nil {
		return nil, err
	}
	return i.doer.Do(p)
}

func (i inflated) Get(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return i.Request(ctx, http.MethodGet, url, opts...)
}

func (i inflated) Post(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return i.Request(ctx, http.MethodPost, url, opts...)
}

func (i inflated) Put(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return i.Request(ctx, http.MethodPut, url, opts...)
}

func (i inflated) Delete(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return i.Request(ctx, http.MethodDelete, url, opts...)
}

func (i inflated) Patch(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return i.Request(ctx, http.MethodPatch, url, opts...)
}

func (i inflated) Head(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return i.Request(ctx, http.MethodHead, url, opts...)
}

func (i inflated) Options(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return i.Request(ctx, http.MethodOptions, url, opts...)
}

func (i inflated) Close() error {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
	return nil
}
