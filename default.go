// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"context"
	"sync"

	"github.com/taisuii/async-requests/request"
)

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide client used by the package-level
// functions, creating a zero value Client on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = &Client{}
	}
	return defaultClient
}

// SetDefault replaces the process-wide client and returns the previous
// one, which is not closed. A nil c makes the next Default call create
// a new zero value Client.
func SetDefault(c *Client) *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultClient
	defaultClient = c
	return prev
}

// Shutdown closes the shared handle of the process-wide client, if it
// was ever created. Programs should call it before exiting. The client
// stays usable: a later call opens a new handle.
func Shutdown() error {
	defaultMu.Lock()
	c := defaultClient
	defaultMu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}

// Get issues a GET with the process-wide client.
func Get(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return Default().Get(ctx, url, opts...)
}

// Post issues a POST with the process-wide client.
func Post(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return Default().Post(ctx, url, opts...)
}

// Put issues a PUT with the process-wide client.
func Put(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return Default().Put(ctx, url, opts...)
}

// Delete issues a DELETE with the process-wide client.
func Delete(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return Default().Delete(ctx, url, opts...)
}

// Patch issues a PATCH with the process-wide client.
func Patch(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return Default().Patch(ctx, url, opts...)
}

// Head issues a HEAD with the process-wide client.
func Head(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return Default().Head(ctx, url, opts...)
}

// Options issues an OPTIONS with the process-wide client.
func Options(ctx context.Context, url string, opts ...request.Option) (*Response, error) {
	return Default().Options(ctx, url, opts...)
}

// GetJSON calls GetJSON on the process-wide client.
func GetJSON(ctx context.Context, url string, out interface{}, opts ...request.Option) error {
	return Default().GetJSON(ctx, url, out, opts...)
}

// PostJSON calls PostJSON on the process-wide client.
func PostJSON(ctx context.Context, url string, in, out interface{}, opts ...request.Option) error {
	return Default().PostJSON(ctx, url, in, out, opts...)
}

// DownloadFile calls DownloadFile on the process-wide client.
func DownloadFile(ctx context.Context, url, path string, chunkSize int, opts ...request.Option) (int64, error) {
	return Default().DownloadFile(ctx, url, path, chunkSize, opts...)
}

// BatchGet calls BatchGet on the process-wide client.
func BatchGet(ctx context.Context, urls []string, opts ...request.Option) []Result {
	return Default().BatchGet(ctx, urls, opts...)
}
