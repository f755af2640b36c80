// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"net/http"
	"sync"

	"github.com/taisuii/async-requests/request"
)

// A Doer implements a Do method in the same manner as the standard
// library http.Client from the net/http package. A client handle is a
// Doer.
type Doer interface {
	Do(r *http.Request) (*http.Response, error)
}

// IdleCloser is implemented by handles that keep idle connections,
// such as *http.Client.
type IdleCloser interface {
	CloseIdleConnections()
}

// A Provider hands out client handles for the attempts of an
// execution.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type Provider interface {
	// Acquire returns a lease on a handle suitable for sending an
	// attempt of p. The caller must Release the lease once the
	// attempt, including reading the response body, is over.
	Acquire(p *request.Plan) (*Lease, error)
	// Close releases the resources of long-lived handles. It is
	// idempotent, and a later Acquire opens new handles as needed.
	Close() error
}

// A Lease is a handle on loan to a single attempt.
type Lease struct {
	// Doer sends the attempt.
	Doer Doer
	// Ephemeral reports whether the handle was built for this attempt
	// alone, rather than shared across calls.
	Ephemeral bool

	release func()
	once    sync.Once
}

// NewLease returns a lease on d. The release function, if not nil,
// runs exactly once, on the first call to Release.
func NewLease(d Doer, ephemeral bool, release func()) *Lease {
	return &Lease{Doer: d, Ephemeral: ephemeral, release: release}
}

// Release returns the handle. Releasing a lease more than once is a
// no-op.
func (l *Lease) Release() {
	l.once.Do(func() {
		if l.release != nil {
			l.release()
		}
	})
}

// A Selector routes each plan to the shared handle, or to an
// ephemeral one when the plan carries per-call transport state (see
// request.Plan.NeedsIsolation).
type Selector struct {
	Shared *Shared
	Scoped *Scoped
}

// New returns a Selector over the given shared and scoped providers.
func New(shared *Shared, scoped *Scoped) *Selector {
	if shared == nil {
		panic("requests/provider: nil shared provider")
	}
	if scoped == nil {
		scoped = &Scoped{}
	}
	return &Selector{Shared: shared, Scoped: scoped}
}

// Acquire implements Provider. A plan that disables redirects also
// goes to an ephemeral handle when the shared handle is not an
// *http.Client, since only an *http.Client redirect policy can be
// overridden per call.
func (s *Selector) Acquire(p *request.Plan) (*Lease, error) {
	if p.NeedsIsolation() {
		return s.Scoped.Acquire(p)
	}
	if !p.FollowRedirects {
		d, err := s.Shared.Ensure()
		if err != nil {
			return nil, err
		}
		if _, ok := d.(*http.Client); !ok {
			return s.Scoped.Acquire(p)
		}
	}
	return s.Shared.Acquire(p)
}

// Close closes the shared handle. Ephemeral handles are closed by
// their leases.
func (s *Selector) Close() error {
	return s.Shared.Close()
}

func noRedirect(_ *http.Request, _ []*http.Request) error {
	return http.ErrUseLastResponse
}
