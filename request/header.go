// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "net/http"

// MergeHeader returns a new header holding the session header with the
// call header laid over it.
//
// Keys are compared case-insensitively. For every key the call sets,
// its values replace the session's values; session keys the call does
// not set are kept. Neither input is modified, and the result shares
// no slices with them.
func MergeHeader(session, call http.Header) http.Header {
	out := make(http.Header, len(session)+len(call))
	copyHeader(out, session)
	for k := range call {
		out.Del(k)
	}
	copyHeader(out, call)
	return out
}

// HeaderFromMap converts a simple string map into a canonical header.
func HeaderFromMap(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
