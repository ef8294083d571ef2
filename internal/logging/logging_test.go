package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJSONLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("warn", "json", &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("chat", "x").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"chat":"x"`)
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("loud", "json", &buf)

	log.Debug().Msg("debug")
	log.Info().Msg("info")

	assert.NotContains(t, buf.String(), `"message":"debug"`)
	assert.Contains(t, buf.String(), `"message":"info"`)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "***", Redact("123"))
	assert.Equal(t, "9234...c.us", Redact("923440690209@c.us"))
}
