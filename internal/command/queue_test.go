package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheFirstGuy/AncestrE/internal/models"
)

// startQueue runs a queue worker for the duration of the test.
func startQueue(t *testing.T, size, capacity int) *Queue {
	t.Helper()

	q := NewQueue(size, capacity)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Error("worker did not stop")
		}
	})
	return q
}

func flush(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx))
}

// counter is a trivially reversible command.
func increment(n *int) Command {
	return &Func{
		Label:  "increment",
		Do:     func() error { *n++; return nil },
		UndoFn: func() error { *n--; return nil },
	}
}

func TestQueueUndoRedo(t *testing.T) {
	q := startQueue(t, 0, 0)
	fam := models.NewFamily("Smiths")

	p1 := models.NewPerson("John", nil, "Smith", models.Male, time.Time{}, nil)
	p2 := models.NewPerson("Mary", nil, "Smith", models.Female, time.Time{}, nil)

	require.NoError(t, q.Submit(AddPerson(fam, p1)))
	require.NoError(t, q.Submit(AddPerson(fam, p2)))
	flush(t, q)
	assert.Equal(t, 2, fam.Len())
	assert.Equal(t, 2, q.UndoLen())

	require.NoError(t, q.Undo())
	require.NoError(t, q.Undo())
	flush(t, q)
	assert.Equal(t, 0, fam.Len())
	assert.Equal(t, 0, q.UndoLen())
	assert.Equal(t, 2, q.RedoLen())

	require.NoError(t, q.Redo())
	flush(t, q)
	assert.True(t, fam.IsMember(p1), "C1 is reapplied first")
	assert.False(t, fam.IsMember(p2))

	require.NoError(t, q.Redo())
	flush(t, q)
	assert.True(t, fam.IsMember(p2))
	assert.Equal(t, 2, q.UndoLen())
	assert.Equal(t, 0, q.RedoLen())
}

func TestQueueEmptyHistoryIsNoOp(t *testing.T) {
	q := startQueue(t, 0, 0)
	n := 0

	require.NoError(t, q.Undo())
	require.NoError(t, q.Redo())
	flush(t, q)
	assert.Zero(t, n)
	assert.Zero(t, q.UndoLen())
	assert.Zero(t, q.RedoLen())
}

func TestQueueBoundedHistory(t *testing.T) {
	q := startQueue(t, 10, 100)
	n := 0

	for i := 0; i < 150; i++ {
		require.NoError(t, q.Submit(increment(&n)))
	}
	flush(t, q)
	assert.Equal(t, 150, n)
	assert.Equal(t, 100, q.UndoLen())

	for i := 0; i < 120; i++ {
		require.NoError(t, q.Undo())
	}
	flush(t, q)
	assert.Equal(t, 50, n, "only the 100 most recent commands are undoable")
	assert.Zero(t, q.UndoLen())
	assert.Equal(t, 100, q.RedoLen())
}

func TestQueueSubmitClearsRedo(t *testing.T) {
	q := startQueue(t, 0, 0)
	n := 0

	require.NoError(t, q.Submit(increment(&n)))
	require.NoError(t, q.Submit(increment(&n)))
	require.NoError(t, q.Undo())
	flush(t, q)
	require.Equal(t, 1, q.RedoLen())

	require.NoError(t, q.Submit(increment(&n)))
	require.NoError(t, q.Redo())
	flush(t, q)
	assert.Equal(t, 2, n, "stale redo must not replay")
	assert.Zero(t, q.RedoLen())
	assert.Equal(t, 2, q.UndoLen())
}

func TestQueueSetCapacity(t *testing.T) {
	q := startQueue(t, 0, 10)
	n := 0
	for i := 0; i < 8; i++ {
		require.NoError(t, q.Submit(increment(&n)))
	}
	require.NoError(t, q.SetCapacity(3))
	flush(t, q)
	assert.Equal(t, 3, q.UndoLen())
	assert.Equal(t, 3, q.Capacity())

	assert.Error(t, q.SetCapacity(0))
}

func TestQueueFailedCommand(t *testing.T) {
	q := startQueue(t, 0, 0)
	boom := errors.New("boom")
	before := testutil.ToFloat64(commandsTotal.WithLabelValues("failing", resultError))

	require.NoError(t, q.Submit(&Func{Label: "failing", Do: func() error { return boom }}))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := q.Flush(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, q.UndoLen(), "failed commands are not undoable")
	assert.Equal(t, before+1, testutil.ToFloat64(commandsTotal.WithLabelValues("failing", resultError)))

	// Errors are reported once.
	flush(t, q)
}

func TestQueueStopped(t *testing.T) {
	q := NewQueue(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Run(ctx), context.Canceled)
	assert.ErrorIs(t, q.Run(context.Background()), ErrAlreadyRunning)

	n := 0
	assert.ErrorIs(t, q.Submit(increment(&n)), ErrStopped)
	assert.ErrorIs(t, q.Flush(context.Background()), ErrStopped)
	assert.Error(t, q.Submit(nil))
}

func TestQueueUndoNames(t *testing.T) {
	q := startQueue(t, 0, 0)
	fam := models.NewFamily("x")
	p := models.NewPerson("A", nil, "B", models.Male, time.Time{}, nil)

	require.NoError(t, q.Submit(AddPerson(fam, p)))
	require.NoError(t, q.Submit(UpdatePerson(p, models.Attributes{FirstName: "C"})))
	flush(t, q)
	assert.Equal(t, []string{"update_person", "add_person"}, q.UndoNames())
}
