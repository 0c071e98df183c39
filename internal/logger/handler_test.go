package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandlerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(New(&buf, "pretty", "debug"))

	log.Info("login attempt", "email", "a@x.com", "password", "pw1", "Authorization", "Bearer abc")

	out := buf.String()
	assert.Contains(t, out, "a@x.com")
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "pw1")
	assert.NotContains(t, out, "Bearer abc")
}

func TestJSONHandlerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(New(&buf, "json", "info"))

	log.Info("issued", "subject", "a@x.com", "token", "eyJhbGciOi")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "a@x.com", line["subject"])
	assert.Equal(t, redacted, line["token"])
}

func TestPrettyHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(New(&buf, "pretty", "warn"))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandlerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil)).With("component", "gate").WithGroup("req")

	log.Info("checked", "state", "authenticated")

	assert.Contains(t, buf.String(), "component")
	assert.Contains(t, buf.String(), "req.state")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
