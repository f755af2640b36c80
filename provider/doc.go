// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package provider manages the lifecycle of the client handles
// (connection pools) that send request attempts.
//
// Shared owns one lazily created handle that is reused across calls
// and recreated on demand after Close. Scoped builds an ephemeral
// handle per attempt for calls that set a proxy, cookies, or disable
// TLS verification, and closes it when the attempt's Lease is
// released. Selector picks between the two per plan.
package provider
