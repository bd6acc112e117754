package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the number of requests buffered ahead of the worker.
const DefaultQueueSize = 100

var (
	// ErrStopped is returned once the worker has exited.
	ErrStopped = errors.New("command queue stopped")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("command queue already running")
)

type opKind int

const (
	opExecute opKind = iota
	opUndo
	opRedo
	opCapacity
	opBarrier
)

type request struct {
	op       opKind
	cmd      Command
	capacity int
	done     chan struct{}
}

// Queue serializes commands onto a single worker and keeps bounded undo and
// redo histories.
//
// Submit, Undo, Redo and SetCapacity only enqueue requests; they are applied
// in order by the goroutine running Run. Use Flush to wait for them.
//
// A successfully executed new command clears the redo stack.
type Queue struct {
	requests chan request
	stopped  chan struct{}
	running  atomic.Bool

	mu   sync.Mutex // guards undo, redo and errs
	undo *History[Command]
	redo *History[Command]
	errs []error
}

// NewQueue creates a Queue buffering up to size requests, with undo and redo
// histories of the given capacity. Non-positive values select the defaults.
func NewQueue(size, capacity int) *Queue {
	if size < 1 {
		size = DefaultQueueSize
	}
	return &Queue{
		requests: make(chan request, size),
		stopped:  make(chan struct{}),
		undo:     NewHistory[Command](capacity),
		redo:     NewHistory[Command](capacity),
	}
}

// Run executes queued requests until ctx is cancelled. It blocks on the
// request channel while idle. Run may only be called once per Queue.
func (q *Queue) Run(ctx context.Context) error {
	if !q.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(q.stopped)

	slog.Debug("Command worker started")
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Command worker stopped", "reason", ctx.Err())
			return ctx.Err()
		case req := <-q.requests:
			q.handle(req)
		}
	}
}

// Submit enqueues cmd for execution. It blocks while the buffer is full.
func (q *Queue) Submit(cmd Command) error {
	if cmd == nil {
		return errors.New("cannot submit nil command")
	}
	return q.enqueue(request{op: opExecute, cmd: cmd})
}

// Undo enqueues a request to revert the most recent command.
// It is a no-op when there is nothing to undo.
func (q *Queue) Undo() error {
	return q.enqueue(request{op: opUndo})
}

// Redo enqueues a request to re-apply the most recently undone command.
// It is a no-op when there is nothing to redo.
func (q *Queue) Redo() error {
	return q.enqueue(request{op: opRedo})
}

// SetCapacity enqueues a resize of both history stacks. Shrinking evicts
// the oldest entries once the request is applied.
func (q *Queue) SetCapacity(capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("history capacity must be at least 1, got %d", capacity)
	}
	return q.enqueue(request{op: opCapacity, capacity: capacity})
}

// Flush waits until every request enqueued before it has been applied.
// It returns the errors raised by commands since the previous Flush.
func (q *Queue) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := q.enqueueContext(ctx, request{op: opBarrier, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stopped:
		return ErrStopped
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	err := errors.Join(q.errs...)
	q.errs = nil
	return err
}

// UndoLen returns the number of commands that can be undone.
func (q *Queue) UndoLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.undo.Len()
}

// RedoLen returns the number of commands that can be redone.
func (q *Queue) RedoLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.redo.Len()
}

// Capacity returns the current history capacity.
func (q *Queue) Capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.undo.Capacity()
}

// UndoNames returns the names of undoable commands, most recent first.
func (q *Queue) UndoNames() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return names(q.undo.Items())
}

func (q *Queue) enqueue(req request) error {
	return q.enqueueContext(context.Background(), req)
}

func (q *Queue) enqueueContext(ctx context.Context, req request) error {
	select {
	case <-q.stopped:
		return ErrStopped
	default:
	}
	select {
	case q.requests <- req:
		return nil
	case <-q.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) handle(req request) {
	switch req.op {
	case opExecute:
		q.execute(req.cmd)
	case opUndo:
		q.undoOne()
	case opRedo:
		q.redoOne()
	case opCapacity:
		q.resize(req.capacity)
	case opBarrier:
		close(req.done)
	}
}

func (q *Queue) execute(cmd Command) {
	if err := cmd.Execute(); err != nil {
		slog.Warn("Command failed", "command", cmd.Name(), "error", err)
		commandsTotal.WithLabelValues(cmd.Name(), resultError).Inc()
		q.record(fmt.Errorf("failed to execute %s: %w", cmd.Name(), err))
		return
	}
	commandsTotal.WithLabelValues(cmd.Name(), resultOK).Inc()
	slog.Debug("Command executed", "command", cmd.Name())

	q.mu.Lock()
	defer q.mu.Unlock()
	if evicted := q.undo.Push(cmd); evicted > 0 {
		historyEvictionsTotal.WithLabelValues(stackUndo).Add(float64(evicted))
	}
	q.redo.Clear()
	q.observeDepth()
}

func (q *Queue) undoOne() {
	q.mu.Lock()
	cmd, ok := q.undo.Pop()
	q.mu.Unlock()
	if !ok {
		historyOperationsTotal.WithLabelValues(stackUndo, resultEmpty).Inc()
		return
	}

	if err := cmd.Undo(); err != nil {
		slog.Warn("Undo failed", "command", cmd.Name(), "error", err)
		historyOperationsTotal.WithLabelValues(stackUndo, resultError).Inc()
		q.record(fmt.Errorf("failed to undo %s: %w", cmd.Name(), err))
		q.mu.Lock()
		q.undo.Push(cmd)
		q.mu.Unlock()
		return
	}
	historyOperationsTotal.WithLabelValues(stackUndo, resultOK).Inc()
	slog.Debug("Command undone", "command", cmd.Name())

	q.mu.Lock()
	defer q.mu.Unlock()
	if evicted := q.redo.Push(cmd); evicted > 0 {
		historyEvictionsTotal.WithLabelValues(stackRedo).Add(float64(evicted))
	}
	q.observeDepth()
}

func (q *Queue) redoOne() {
	q.mu.Lock()
	cmd, ok := q.redo.Pop()
	q.mu.Unlock()
	if !ok {
		historyOperationsTotal.WithLabelValues(stackRedo, resultEmpty).Inc()
		return
	}

	if err := cmd.Execute(); err != nil {
		slog.Warn("Redo failed", "command", cmd.Name(), "error", err)
		historyOperationsTotal.WithLabelValues(stackRedo, resultError).Inc()
		q.record(fmt.Errorf("failed to redo %s: %w", cmd.Name(), err))
		q.mu.Lock()
		q.redo.Push(cmd)
		q.mu.Unlock()
		return
	}
	historyOperationsTotal.WithLabelValues(stackRedo, resultOK).Inc()
	slog.Debug("Command redone", "command", cmd.Name())

	q.mu.Lock()
	defer q.mu.Unlock()
	if evicted := q.undo.Push(cmd); evicted > 0 {
		historyEvictionsTotal.WithLabelValues(stackUndo).Add(float64(evicted))
	}
	q.observeDepth()
}

func (q *Queue) resize(capacity int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, s := range []struct {
		name string
		h    *History[Command]
	}{{stackUndo, q.undo}, {stackRedo, q.redo}} {
		evicted, err := s.h.SetCapacity(capacity)
		if err != nil {
			q.errs = append(q.errs, err)
			return
		}
		if evicted > 0 {
			historyEvictionsTotal.WithLabelValues(s.name).Add(float64(evicted))
		}
	}
	slog.Info("History capacity changed", "capacity", capacity)
	q.observeDepth()
}

func (q *Queue) record(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errs = append(q.errs, err)
}

// observeDepth must be called with q.mu held.
func (q *Queue) observeDepth() {
	historyDepth.WithLabelValues(stackUndo).Set(float64(q.undo.Len()))
	historyDepth.WithLabelValues(stackRedo).Set(float64(q.redo.Len()))
}

func names(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name()
	}
	return out
}
