package buffer

// Window is a bounded FIFO of recent samples used for rolling averages.
// It is owned by a single goroutine and performs no locking.
type Window[T any] struct {
	data     []T
	capacity int
}

// New creates a new Window with the specified capacity. Capacities below one
// are raised to one.
func New[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &Window[T]{
		data:     make([]T, 0, capacity+1),
		capacity: capacity,
	}
}

// Push appends an item at the tail. If the window is over capacity, the
// oldest item is dropped.
func (w *Window[T]) Push(item T) {
	w.data = append(w.data, item)
	if len(w.data) > w.capacity {
		// Drop oldest (shift left), reusing the backing array
		copy(w.data, w.data[1:])
		w.data = w.data[:w.capacity]
	}
}

// Len returns the current number of items.
func (w *Window[T]) Len() int {
	return len(w.data)
}

// Each calls fn for every item, oldest first.
func (w *Window[T]) Each(fn func(T)) {
	for _, item := range w.data {
		fn(item)
	}
}

// MeanFloat64 returns the arithmetic mean of a float window, or 0 when empty.
func MeanFloat64(w *Window[float64]) float64 {
	if w.Len() == 0 {
		return 0
	}
	var sum float64
	w.Each(func(v float64) { sum += v })
	return sum / float64(w.Len())
}

// MeanUint64 returns the truncating integer mean of a counter window, or 0
// when empty.
func MeanUint64(w *Window[uint64]) uint64 {
	if w.Len() == 0 {
		return 0
	}
	var sum uint64
	w.Each(func(v uint64) { sum += v })
	return sum / uint64(w.Len())
}
