package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveString(t *testing.T) {
	assert.Equal(t, "flag", resolveString("flag", "config", "default"))
	assert.Equal(t, "config", resolveString("", "config", "default"))
	assert.Equal(t, "", resolveString("", ""))
}

func TestCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"catalog"}, {"effective"}, {"plan"}, {"apply"}, {"export"}, {"import"},
		{"audit", "list"}, {"audit", "stats"}, {"audit", "purge"},
		{"serve"}, {"version"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestLoggerLevels(t *testing.T) {
	t.Cleanup(func() { verbose, quiet = 0, false })

	verbose, quiet = 0, false
	assert.False(t, logger().Enabled(t.Context(), slog.LevelInfo))

	verbose = 2
	assert.True(t, logger().Enabled(t.Context(), slog.LevelDebug))

	verbose, quiet = 0, true
	assert.False(t, logger().Enabled(t.Context(), slog.LevelWarn))
}
