package analytics

import (
	"sync"

	"OptionPulse/internal/domain/models"
)

// DefaultWindowCapacity bounds the retained sample history. Capacity is a
// sample count, independent of wall-clock span.
const DefaultWindowCapacity = 300

// Window is a bounded ring buffer of price samples. The tick-processing path
// is the only writer; readers take snapshot copies.
type Window struct {
	mu   sync.RWMutex
	buf  []models.PriceSample
	head int
	size int
}

// NewWindow creates a ring buffer with the given capacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &Window{buf: make([]models.PriceSample, capacity)}
}

// Append adds a sample, evicting the oldest when full.
func (w *Window) Append(s models.PriceSample) {
	w.mu.Lock()
	w.buf[(w.head+w.size)%len(w.buf)] = s
	if w.size < len(w.buf) {
		w.size++
	} else {
		w.head = (w.head + 1) % len(w.buf)
	}
	w.mu.Unlock()
}

// Len returns the number of retained samples.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

// Latest returns the most recent sample.
func (w *Window) Latest() (models.PriceSample, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.size == 0 {
		return models.PriceSample{}, false
	}
	return w.buf[(w.head+w.size-1)%len(w.buf)], true
}

// Last returns up to n most recent samples in chronological order.
// The returned slice is a copy and safe to use concurrently.
func (w *Window) Last(n int) []models.PriceSample {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if n > w.size {
		n = w.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]models.PriceSample, n)
	start := w.size - n
	for i := 0; i < n; i++ {
		out[i] = w.buf[(w.head+start+i)%len(w.buf)]
	}
	return out
}

// Reset drops all samples.
func (w *Window) Reset() {
	w.mu.Lock()
	w.head, w.size = 0, 0
	w.mu.Unlock()
}
