package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLogger_WritesCategoriesAndExtras(t *testing.T) {
	var buf bytes.Buffer
	l := newZapLogger(&LoggerConfig{Level: "debug", Encoding: "json"}, &buf)

	l.Info(RabbitMQ, Publish, "published", map[ExtraKey]any{Exchange: "lifetravel_agent"})
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "published", entry["msg"])
	assert.Equal(t, "RabbitMQ", entry["Category"])
	assert.Equal(t, "Publish", entry["SubCategory"])
	assert.Equal(t, "lifetravel_agent", entry["Exchange"])
}

func TestZapLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newZapLogger(&LoggerConfig{Level: "warn"}, &buf)

	l.Info(General, Startup, "hidden", nil)
	require.NoError(t, l.Sync())
	assert.Empty(t, buf.String())

	l.Warn(General, Startup, "shown", nil)
	require.NoError(t, l.Sync())
	assert.Contains(t, buf.String(), "shown")
}

func TestZeroLogger_WritesCategoriesAndExtras(t *testing.T) {
	var buf bytes.Buffer
	l := newZeroLogger(&LoggerConfig{Level: "info"}, &buf)

	l.Warn(WebSocket, Frame, "bad frame", map[ExtraKey]any{SessionID: "abc"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bad frame", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "WebSocket", entry["Category"])
	assert.Equal(t, "abc", entry["SessionId"])
}

func TestNewLogger_UnknownPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewLogger(&LoggerConfig{Logger: "logrus"})
	})
}
