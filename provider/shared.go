// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"errors"
	"net/http"
	"sync"

	"github.com/taisuii/async-requests/request"
)

// A Factory builds a new client handle.
type Factory func() (Doer, error)

// Shared owns one long-lived client handle (and so one connection pool)
// used by every call that has no per-call transport state.
//
// The handle is created lazily on first use. Close drops it, and the
// next use creates a new one, so a closed handle is never reused.
// Creation happens under a lock, so concurrent first uses never build
// two handles.
//
// Close closes the idle connections of the dropped handle at once.
// Connections still carrying attempts go back to its pool when those
// attempts end; they are closed when the last lease on the dropped
// handle is released.
//
// The shared handle has no cookie jar and is never mutated by a call:
// calls that disable redirects get a shallow copy of an *http.Client
// handle with its own redirect policy, sharing the pool.
type Shared struct {
	factory Factory

	mu      sync.Mutex
	cur     *handle
	created int
}

type handle struct {
	doer   Doer
	leases int
	closed bool
}

// NewShared returns a Shared provider building handles with f.
func NewShared(f Factory) *Shared {
	if f == nil {
		panic("requests/provider: nil factory")
	}
	return &Shared{factory: f}
}

// Ensure returns the open handle, creating one if there is none.
func (s *Shared) Ensure() (Doer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.ensure()
	if err != nil {
		return nil, err
	}
	return h.doer, nil
}

func (s *Shared) ensure() (*handle, error) {
	if s.cur != nil {
		return s.cur, nil
	}

	d, err := s.factory()
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, errors.New("requests/provider: factory returned nil handle")
	}
	s.cur = &handle{doer: d}
	s.created++
	return s.cur, nil
}

// Acquire implements Provider. Releasing a shared lease leaves the
// handle open for other calls, unless the handle was closed while the
// lease was out and this is its last lease.
func (s *Shared) Acquire(p *request.Plan) (*Lease, error) {
	s.mu.Lock()
	h, err := s.ensure()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	h.leases++
	s.mu.Unlock()

	d := h.doer
	if !p.FollowRedirects {
		if hc, ok := d.(*http.Client); ok {
			c := *hc
			c.CheckRedirect = noRedirect
			d = &c
		}
	}
	return NewLease(d, false, func() { s.release(h) }), nil
}

func (s *Shared) release(h *handle) {
	s.mu.Lock()
	h.leases--
	last := h.closed && h.leases == 0
	s.mu.Unlock()

	if last {
		closeIdle(h.doer)
	}
}

// Close closes the idle connections of the open handle, if any, and
// forgets it. Closing with no open handle is a no-op.
func (s *Shared) Close() error {
	s.mu.Lock()
	h := s.cur
	s.cur = nil
	if h != nil {
		h.closed = true
	}
	s.mu.Unlock()

	if h != nil {
		closeIdle(h.doer)
	}
	return nil
}

// Open reports whether a handle is currently open.
func (s *Shared) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}

// Created returns how many handles the provider has created so far.
func (s *Shared) Created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

func closeIdle(d Doer) {
	if ic, ok := d.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
