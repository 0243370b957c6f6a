package nearest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	newBuffered := func(level slog.Level) (*Logger, *bytes.Buffer) {
		var buf bytes.Buffer
		return NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
	}

	t.Run("AssignCompleted", func(t *testing.T) {
		l, buf := newBuffered(slog.LevelDebug)
		l.WithWorkers(4).LogAssign(context.Background(), 10, 3, 4, time.Millisecond, nil)

		out := buf.String()
		assert.Contains(t, out, "assign completed")
		assert.Contains(t, out, "sources=10")
		assert.Contains(t, out, "targets=3")
		assert.Contains(t, out, "workers=4")
	})

	t.Run("AssignFailed", func(t *testing.T) {
		l, buf := newBuffered(slog.LevelInfo)
		l.LogAssign(context.Background(), 1, 0, 1, 0, ErrEmptyTargetSet)

		out := buf.String()
		assert.Contains(t, out, "level=ERROR")
		assert.Contains(t, out, "assign failed")
		assert.Contains(t, out, "empty target set")
	})

	t.Run("DebugSuppressedAtInfo", func(t *testing.T) {
		l, buf := newBuffered(slog.LevelInfo)
		l.LogAssign(context.Background(), 10, 3, 1, time.Millisecond, nil)
		l.LogMutual(context.Background(), 2, 2, nil)
		assert.Empty(t, buf.String())
	})

	t.Run("Mutual", func(t *testing.T) {
		l, buf := newBuffered(slog.LevelDebug)
		l.WithRunID("abc").LogMutual(context.Background(), 2, 0, errors.New("team a: boom"))

		out := buf.String()
		assert.Contains(t, out, "mutual assign failed")
		assert.Contains(t, out, "run_id=abc")
		assert.Contains(t, out, "team_a=2")
		assert.Contains(t, out, "team_b=0")
	})

	t.Run("Constructors", func(t *testing.T) {
		assert.NotNil(t, NewLogger(nil))
		assert.NotNil(t, NewJSONLogger(slog.LevelWarn))
		assert.NotNil(t, NewTextLogger(slog.LevelWarn))

		noop := NoopLogger()
		noop.LogAssign(context.Background(), 1, 1, 1, 0, nil)
	})
}
