// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package config loads client settings from defaults, a YAML file, and
environment variables.

A settings file looks like this:

	timeout: 5s
	max_retries: 4
	backoff:
	  base: 250ms
	  max: 10s
	  jitter: true
	headers:
	  User-Agent: my-service/1.0
	proxies:
	  http: http://proxy.internal:3128
	  https: http://proxy.internal:3128
	rate:
	  limit: 20
	  burst: 5
	log:
	  level: debug

Use requests.NewClient to build a client from Settings.
*/
package config
