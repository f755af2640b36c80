// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/taisuii/async-requests/request"
)

// DefaultChunkSize is the read size DownloadFile uses when given a
// chunk size of zero or less.
const DefaultChunkSize = 8192

// GetJSON issues a GET to the specified URL and decodes the JSON
// response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}, opts ...request.Option) error {
	opts = append([]request.Option{request.Header("Accept", "application/json")}, opts...)
	resp, err := c.Get(ctx, url, opts...)
	if err != nil {
		return err
	}
	return resp.JSON(out)
}

// PostJSON issues a POST to the specified URL with in encoded as the
// JSON request body, and decodes the JSON response body into out. If
// out is nil the response body is not decoded.
func (c *Client) PostJSON(ctx context.Context, url string, in, out interface{}, opts ...request.Option) error {
	opts = append([]request.Option{request.Header("Accept", "application/json"), request.JSON(in)}, opts...)
	resp, err := c.Post(ctx, url, opts...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.JSON(out)
}

// DownloadFile issues a GET to the specified URL and streams the
// response body into the file at path, reading at most chunkSize bytes
// at a time. It returns the number of bytes written.
//
// Failures before the response headers arrive are retried like any
// other call. Once the body starts streaming, a failure is returned as
// is and the partly written file is removed. The attempt timeout only
// bounds the wait for the response headers.
func (c *Client) DownloadFile(ctx context.Context, url, path string, chunkSize int, opts ...request.Option) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	p, err := c.NewPlan(ctx, http.MethodGet, url, opts...)
	if err != nil {
		return 0, err
	}
	e, err := c.execute(p, true)
	if err != nil {
		return 0, err
	}
	if _, err = c.finish(e); err != nil {
		return 0, err
	}
	body := e.Response.Body
	defer func() {
		_ = body.Close()
	}()

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("requests: create download file: %w", err)
	}

	n, err := copyChunks(p, f, body, chunkSize)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("requests: close download file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(path)
		return n, err
	}

	c.logger().Info().
		Str("request_id", e.ID).
		Str("url", p.URL.Redacted()).
		Str("path", path).
		Int64("bytes", n).
		Msg("file downloaded")
	return n, nil
}

func copyChunks(p *request.Plan, dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	buf := make([]byte, chunkSize)
	var n int64
	for {
		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, err := dst.Write(buf[:nr])
			n += int64(nw)
			if err != nil {
				return n, fmt.Errorf("requests: write download file: %w", err)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return n, nil
		}
		if readErr != nil {
			return n, classify(p, false, 0, readErr)
		}
	}
}

// A Result is the outcome of one call made by BatchGet. Exactly one of
// Response and Err is non-nil.
type Result struct {
	URL      string
	Response *Response
	Err      error
}

// BatchGet issues a GET to each of the specified URLs concurrently and
// waits for all of them. The results are in the same order as urls. A
// failed call does not stop or cancel the others; its error is
// reported in its Result.
//
// At most BatchConcurrency calls run at once, if it is positive.
func (c *Client) BatchGet(ctx context.Context, urls []string, opts ...request.Option) []Result {
	results := make([]Result, len(urls))

	var g errgroup.Group
	if c.BatchConcurrency > 0 {
		g.SetLimit(c.BatchConcurrency)
	}
	for i, u := range urls {
		g.Go(func() error {
			resp, err := c.Get(ctx, u, opts...)
			results[i] = Result{URL: u, Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
