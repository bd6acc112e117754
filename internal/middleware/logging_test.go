package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheFirstGuy/AncestrE/internal/command"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggingPassesThrough(t *testing.T) {
	buf := captureLogs(t)
	calls := 0
	inner := &command.Func{
		Label:  "bump",
		Do:     func() error { calls++; return nil },
		UndoFn: func() error { calls--; return nil },
	}

	cmd := Logging("Smiths", inner)
	assert.Equal(t, "bump", cmd.Name())

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 1, calls)
	require.NoError(t, cmd.Undo())
	assert.Equal(t, 0, calls)

	out := buf.String()
	assert.Contains(t, out, "Command ok")
	assert.Contains(t, out, "command=bump")
	assert.Contains(t, out, "op=execute")
	assert.Contains(t, out, "op=undo")
	assert.Contains(t, out, "family=Smiths")
}

func TestLoggingReportsErrors(t *testing.T) {
	buf := captureLogs(t)
	boom := errors.New("boom")
	cmd := Logging("Smiths", &command.Func{Label: "fail", Do: func() error { return boom }})

	assert.ErrorIs(t, cmd.Execute(), boom)
	assert.Contains(t, buf.String(), "Command error")
	assert.Contains(t, buf.String(), "error=boom")
}
