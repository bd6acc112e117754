package command

import "fmt"

// DefaultCapacity is the number of commands kept in each history stack.
const DefaultCapacity = 100

// History is a bounded LIFO stack. Pushing onto a full stack evicts the
// oldest entry instead of failing.
//
// History is not safe for concurrent use.
type History[T any] struct {
	items    []T // oldest first
	capacity int
}

// NewHistory creates a History holding at most capacity entries.
// Non-positive capacities fall back to DefaultCapacity.
func NewHistory[T any](capacity int) *History[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &History[T]{capacity: capacity}
}

// Push adds v on top, evicting the oldest entries past capacity.
// It returns the number of evicted entries.
func (h *History[T]) Push(v T) int {
	h.items = append(h.items, v)
	return h.trim()
}

// Pop removes and returns the most recent entry.
func (h *History[T]) Pop() (T, bool) {
	var zero T
	if len(h.items) == 0 {
		return zero, false
	}
	last := len(h.items) - 1
	v := h.items[last]
	h.items[last] = zero
	h.items = h.items[:last]
	return v, true
}

// Len returns the number of entries.
func (h *History[T]) Len() int {
	return len(h.items)
}

// Capacity returns the maximum number of entries.
func (h *History[T]) Capacity() int {
	return h.capacity
}

// SetCapacity changes the maximum size, evicting the oldest excess entries
// immediately. It returns the number of evicted entries.
func (h *History[T]) SetCapacity(capacity int) (int, error) {
	if capacity < 1 {
		return 0, fmt.Errorf("history capacity must be at least 1, got %d", capacity)
	}
	h.capacity = capacity
	return h.trim(), nil
}

// Clear drops every entry.
func (h *History[T]) Clear() {
	clear(h.items)
	h.items = h.items[:0]
}

// Items returns the entries, most recent first.
func (h *History[T]) Items() []T {
	out := make([]T, len(h.items))
	for i, v := range h.items {
		out[len(h.items)-1-i] = v
	}
	return out
}

func (h *History[T]) trim() int {
	excess := len(h.items) - h.capacity
	if excess <= 0 {
		return 0
	}
	n := copy(h.items, h.items[excess:])
	clear(h.items[n:])
	h.items = h.items[:n]
	return excess
}
