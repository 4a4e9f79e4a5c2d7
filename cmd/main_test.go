package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestEnvBool(t *testing.T) {
	logs := captureLogs(t)

	t.Setenv("PUSHER_USE_TLS", "")
	require.True(t, envBool("PUSHER_USE_TLS", true))

	t.Setenv("PUSHER_USE_TLS", "false")
	require.False(t, envBool("PUSHER_USE_TLS", true))
	require.Empty(t, logs.String())

	t.Setenv("PUSHER_USE_TLS", "flase")
	require.True(t, envBool("PUSHER_USE_TLS", true))
	require.Contains(t, logs.String(), "invalid boolean environment variable")
	require.Contains(t, logs.String(), "PUSHER_USE_TLS")
	require.Contains(t, logs.String(), "flase")
}

func TestEnvOr(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "  ")
	require.Equal(t, "gpt-3.5-turbo", envOr("OPENAI_MODEL", "gpt-3.5-turbo"))

	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	require.Equal(t, "gpt-4o-mini", envOr("OPENAI_MODEL", "gpt-3.5-turbo"))
}
