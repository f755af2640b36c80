// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for setting the timeout of each
// attempt of an execution, including retries. A timeout set on the
// call or session always takes precedence; see Resolve.
package timeout
