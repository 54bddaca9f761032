package logging

import (
	"os"
	"sync"
)

// RingBuffer is a fixed-size io.Writer that keeps only the most recent
// bytes, dropping the oldest once capacity is reached. Safe for concurrent
// writers.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []byte
	start int // index of the oldest byte
	count int // bytes currently held
}

// NewRingBuffer returns a buffer holding at most size bytes.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 1024 * 1024
	}
	return &RingBuffer{
		buf: make([]byte, size),
	}
}

// Write appends p, evicting the oldest bytes if the buffer is full. It never
// fails and always reports len(p) written.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(p)
	size := len(rb.buf)

	if n >= size {
		// Larger than the whole buffer: keep only the tail
		copy(rb.buf, p[n-size:])
		rb.start = 0
		rb.count = size
		return n, nil
	}

	writeAt := (rb.start + rb.count) % size
	tail := size - writeAt
	if n <= tail {
		copy(rb.buf[writeAt:], p)
	} else {
		copy(rb.buf[writeAt:], p[:tail])
		copy(rb.buf, p[tail:])
	}

	rb.count += n
	if rb.count > size {
		// Overwrote the oldest bytes; advance start past them
		rb.start = (rb.start + rb.count - size) % size
		rb.count = size
	}

	return n, nil
}

// Bytes copies out the held bytes, oldest first.
func (rb *RingBuffer) Bytes() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]byte, rb.count)
	size := len(rb.buf)
	tail := size - rb.start
	if rb.count <= tail {
		copy(out, rb.buf[rb.start:rb.start+rb.count])
	} else {
		copy(out, rb.buf[rb.start:])
		copy(out[tail:], rb.buf[:rb.count-tail])
	}
	return out
}

// DumpToFile writes the held bytes to path, oldest first.
func (rb *RingBuffer) DumpToFile(path string) error {
	return os.WriteFile(path, rb.Bytes(), 0o644)
}
