package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, "json").Info("hello", "file", "GSM1.txt")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "GSM1.txt", rec["file"])

	buf.Reset()
	New(&buf, slog.LevelInfo, "text").Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn, "text")
	l.Info("quiet")
	assert.Empty(t, buf.String())
	l.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	l := New(&bytes.Buffer{}, slog.LevelDebug, "text")
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
