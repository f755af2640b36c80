// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// Overrides collects the settings given by a single call. It is filled
// in by Options and consumed by NewPlan.
type Overrides struct {
	Params             url.Values
	Header             http.Header
	Form               url.Values
	JSON               interface{}
	Body               []byte
	ContentType        string
	Cookies            []*http.Cookie
	Proxy              *Proxy
	NoRedirects        bool
	InsecureSkipVerify bool
	Timeout            time.Duration

	hasJSON bool
	hasBody bool
}

// An Option sets one call-level setting. Options are applied in the
// order given, so a later option wins over an earlier one for the same
// setting.
type Option func(o *Overrides) error

// Params adds query parameters to the request URL. Parameters already
// present in the URL are kept.
func Params(params map[string]string) Option {
	return func(o *Overrides) error {
		for k, v := range params {
			o.param(k, v)
		}
		return nil
	}
}

// Param adds one query parameter to the request URL.
func Param(key, value string) Option {
	return func(o *Overrides) error {
		o.param(key, value)
		return nil
	}
}

// Headers sets request headers for this call. Each key replaces any
// session default header with the same case-insensitive name.
func Headers(h map[string]string) Option {
	return func(o *Overrides) error {
		for k, v := range h {
			o.header().Set(k, v)
		}
		return nil
	}
}

// Header sets one request header for this call.
func Header(key, value string) Option {
	return func(o *Overrides) error {
		o.header().Set(key, value)
		return nil
	}
}

// Form sets a URL-encoded form body. The Content-Type header defaults
// to application/x-www-form-urlencoded.
//
// Form may not be combined with JSON or Body.
func Form(data map[string]string) Option {
	return func(o *Overrides) error {
		if o.Form == nil {
			o.Form = url.Values{}
		}
		for k, v := range data {
			o.Form.Set(k, v)
		}
		return nil
	}
}

// FormValues is like Form but accepts multi-valued form data.
func FormValues(data url.Values) Option {
	return func(o *Overrides) error {
		if o.Form == nil {
			o.Form = url.Values{}
		}
		for k, vs := range data {
			o.Form[k] = append(o.Form[k], vs...)
		}
		return nil
	}
}

// JSON sets a JSON-encoded body. The Content-Type header defaults to
// application/json.
//
// JSON may not be combined with Form or Body.
func JSON(v interface{}) Option {
	return func(o *Overrides) error {
		o.JSON = v
		o.hasJSON = true
		return nil
	}
}

// Body sets a raw body. Parameter body may be nil, a string, []byte,
// io.Reader, or io.ReadCloser (see BodyBytes). If contentType is not
// empty it becomes the Content-Type header default.
//
// Body may not be combined with Form or JSON.
func Body(contentType string, body interface{}) Option {
	return func(o *Overrides) error {
		b, err := BodyBytes(body)
		if err != nil {
			return &ConfigError{Field: "body", Err: err}
		}
		o.Body = b
		o.ContentType = contentType
		o.hasBody = true
		return nil
	}
}

// Cookies sends the given cookies with this call. Calls with cookies
// use an ephemeral client handle so the cookies never reach the shared
// one.
func Cookies(cookies map[string]string) Option {
	return func(o *Overrides) error {
		for name, value := range cookies {
			o.Cookies = append(o.Cookies, &http.Cookie{Name: name, Value: value})
		}
		return nil
	}
}

// Cookie sends one cookie with this call.
func Cookie(c *http.Cookie) Option {
	return func(o *Overrides) error {
		if c == nil {
			return errors.New("nil cookie")
		}
		o.Cookies = append(o.Cookies, c)
		return nil
	}
}

// ProxyURL routes this call through a single proxy for all schemes.
func ProxyURL(raw string) Option {
	return func(o *Overrides) error {
		p, err := ParseProxy(raw)
		if err != nil {
			return err
		}
		o.Proxy = p
		return nil
	}
}

// ProxyPerScheme routes this call through per-scheme proxies. Keys may
// be "http", "https", "http://", "https://", or "all".
func ProxyPerScheme(m map[string]string) Option {
	return func(o *Overrides) error {
		p, err := ParseProxyMap(m)
		if err != nil {
			return err
		}
		o.Proxy = p
		return nil
	}
}

// NoRedirects disables redirect following. A 3xx response is returned
// as is.
func NoRedirects() Option {
	return FollowRedirects(false)
}

// FollowRedirects sets whether redirects are followed. The default is
// true.
func FollowRedirects(follow bool) Option {
	return func(o *Overrides) error {
		o.NoRedirects = !follow
		return nil
	}
}

// InsecureSkipVerify disables TLS certificate verification for this
// call.
func InsecureSkipVerify() Option {
	return func(o *Overrides) error {
		o.InsecureSkipVerify = true
		return nil
	}
}

// Timeout sets the per-attempt timeout for this call, replacing the
// session timeout.
func Timeout(d time.Duration) Option {
	return func(o *Overrides) error {
		if d < 0 {
			return errors.New("negative timeout")
		}
		o.Timeout = d
		return nil
	}
}

// BasicAuth sets the Authorization header to use HTTP Basic
// Authentication with the provided username and password.
func BasicAuth(username, password string) Option {
	return func(o *Overrides) error {
		o.header().Set("Authorization", "Basic "+basicAuth(username, password))
		return nil
	}
}

func (o *Overrides) header() http.Header {
	if o.Header == nil {
		o.Header = make(http.Header)
	}
	return o.Header
}

func (o *Overrides) param(k, v string) {
	if o.Params == nil {
		o.Params = url.Values{}
	}
	o.Params.Add(k, v)
}

// basicAuth is lifted verbatim from net/http/client.go.
//
// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// "To receive authorization, the client sends the userid and password,
// separated by a single colon (":") character, within a base64
// encoded string in the credentials."
// It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}
