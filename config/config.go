// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of the environment variables Load reads.
// A double underscore separates nested keys, so
// ASYNC_REQUESTS_BACKOFF__BASE sets backoff.base and
// ASYNC_REQUESTS_MAX_RETRIES sets max_retries.
const EnvPrefix = "ASYNC_REQUESTS_"

// Settings describes a client. The zero value is not valid; start from
// Default, or use Load or Parse, which fill in the defaults.
type Settings struct {
	// Timeout is the per-attempt timeout.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	// MaxRetries is the attempt budget of each call.
	MaxRetries int `koanf:"max_retries" validate:"gte=1"`
	Backoff    Backoff `koanf:"backoff"`
	// Headers are the default headers sent with every call.
	Headers map[string]string `koanf:"headers"`
	// Proxy is a proxy URL used for every scheme.
	Proxy string `koanf:"proxy" validate:"omitempty,url"`
	// Proxies maps schemes (http, https, all) to proxy URLs. It wins
	// over Proxy when both are set.
	Proxies            map[string]string `koanf:"proxies" validate:"omitempty,dive,keys,oneof=http https http:// https:// all *,endkeys,url"`
	InsecureSkipVerify bool              `koanf:"insecure_skip_verify"`
	// RequestIDHeader names the header carrying the call ID, if any.
	RequestIDHeader string `koanf:"request_id_header"`
	Rate            Rate   `koanf:"rate"`
	Batch           Batch  `koanf:"batch"`
	Log             Log    `koanf:"log"`
}

// Backoff configures the wait between attempts: Base doubled for each
// failed attempt, capped at Max if Max is set, and randomized between
// zero and that value if Jitter is set.
type Backoff struct {
	Base   time.Duration `koanf:"base" validate:"gt=0"`
	Max    time.Duration `koanf:"max" validate:"omitempty,gtefield=Base"`
	Jitter bool          `koanf:"jitter"`
}

// Rate configures client-side rate limiting. A zero Limit disables it.
type Rate struct {
	// Limit is the number of attempts allowed per second.
	Limit float64 `koanf:"limit" validate:"gte=0"`
	// Burst is the number of attempts allowed at once.
	Burst int `koanf:"burst" validate:"gte=0"`
}

// Batch configures BatchGet.
type Batch struct {
	// Concurrency caps concurrent calls. Zero means no cap.
	Concurrency int `koanf:"concurrency" validate:"gte=0"`
}

// Log configures the client logger.
type Log struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Pretty bool   `koanf:"pretty"`
}

func defaults() map[string]any {
	return map[string]any{
		"timeout":              "10s",
		"max_retries":          3,
		"backoff.base":         "500ms",
		"backoff.max":          "0s",
		"backoff.jitter":       false,
		"insecure_skip_verify": false,
		"request_id_header":    "",
		"rate.limit":           0,
		"rate.burst":           0,
		"batch.concurrency":    0,
		"log.level":            "info",
		"log.pretty":           false,
	}
}

// Default returns the default settings.
func Default() *Settings {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		panic(err)
	}
	s, err := unmarshal(k)
	if err != nil {
		panic(err)
	}
	return s
}

// Load reads settings from, in increasing order of priority, the
// defaults, the YAML file at path (skipped if path is empty), and the
// environment variables starting with EnvPrefix.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

// Parse reads settings from YAML laid over the defaults. Environment
// variables are ignored.
func Parse(b []byte) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return unmarshal(k)
}

// LoadFile is like Load but fails if path does not exist.
func LoadFile(path string) (*Settings, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return Load(path)
}

var validate = validator.New()

// Validate checks s against the field constraints.
func Validate(s *Settings) error {
	if s == nil {
		return errors.New("nil settings")
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

func unmarshal(k *koanf.Koanf) (*Settings, error) {
	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// transformEnv turns ASYNC_REQUESTS_BACKOFF__BASE into backoff.base.
func transformEnv(k, v string) (string, any) {
	k = strings.TrimPrefix(k, EnvPrefix)
	k = strings.ReplaceAll(strings.ToLower(k), "__", ".")
	return k, v
}
