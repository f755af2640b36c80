// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger("warn", false, &buf)

		logger.Info().Msg("hidden")
		logger.Warn().Msg("shown")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"message":"shown"`)
		assert.Contains(t, out, `"component":"requests"`)
		assert.Contains(t, out, `"time":`)
	})
	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger("debug", true, &buf)

		logger.Debug().Msg("hello")

		assert.Contains(t, buf.String(), "hello")
		assert.NotContains(t, buf.String(), `"message"`)
	})
	t.Run("unknown level", func(t *testing.T) {
		logger := NewLogger("loud", false, &bytes.Buffer{})
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})
	t.Run("disabled", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger("disabled", false, &buf)
		logger.Error().Msg("nope")
		assert.Empty(t, buf.String())
	})
}
