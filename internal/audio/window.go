// SPDX-License-Identifier: MIT
package audio

// Windower cuts a continuous sample stream into consecutive, non-overlapping
// windows of a fixed size. When a write completes a window the window is
// handed to the sink and the rest of that write is dropped, so every window
// starts at a callback boundary.
type Windower struct {
	buf  []float32
	n    int
	sink func(window []float32)
}

// NewWindower pre-allocates one window of size samples. The sink must not
// retain the slice after returning.
func NewWindower(size int, sink func(window []float32)) *Windower {
	return &Windower{
		buf:  make([]float32, size),
		sink: sink,
	}
}

// Write appends samples and emits at most one window.
func (w *Windower) Write(samples []float32) {
	n := copy(w.buf[w.n:], samples)
	w.n += n
	if w.n < len(w.buf) {
		return
	}
	w.sink(w.buf)
	w.n = 0
}

// Buffered returns how many samples the current window holds.
func (w *Windower) Buffered() int {
	return w.n
}

// Size returns the window length.
func (w *Windower) Size() int {
	return len(w.buf)
}

// Reset drops the partially filled window.
func (w *Windower) Reset() {
	w.n = 0
}
