// Package ring provides a fixed-capacity FIFO window.
package ring

// Window keeps the last Cap() items pushed into it. Pushing into a full
// window evicts the oldest item. Not safe for concurrent use; owners
// guard it with their own lock.
type Window[T any] struct {
	buf   []T
	start int
	size  int
}

// NewWindow returns an empty window holding at most capacity items.
// A capacity below 1 is treated as 1.
func NewWindow[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest item if the window is full.
func (w *Window[T]) Push(v T) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = v
		w.size++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

// Len returns the number of items held.
func (w *Window[T]) Len() int { return w.size }

// Cap returns the capacity.
func (w *Window[T]) Cap() int { return len(w.buf) }

// Items returns a copy of the held items, oldest first.
func (w *Window[T]) Items() []T {
	out := make([]T, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// Last returns up to n of the newest items, oldest first.
func (w *Window[T]) Last(n int) []T {
	items := w.Items()
	if n < len(items) && n >= 0 {
		return items[len(items)-n:]
	}
	return items
}
