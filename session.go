// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"context"
	"errors"
)

// Session runs fn with c as a scoped client: the shared handle is
// opened before fn runs and closed when fn returns, even if fn fails
// or panics. If c is nil, a zero value Client is used.
//
// The error returned is the error from fn, joined with the error from
// closing the handle, if any.
func Session(ctx context.Context, c *Client, fn func(ctx context.Context, s *Client) error) (err error) {
	if c == nil {
		c = &Client{}
	}
	if err = c.Open(); err != nil {
		return err
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	return fn(ctx, c)
}
