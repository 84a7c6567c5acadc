// Package pool provides unified high-performance object pooling for pgbulk.
// It offers zero-allocation memory management with automatic object recycling,
// reducing garbage collection pressure on the hot encode-and-flush path.
//
// The package provides:
//   - Generic type-safe object pooling with Pool[T]
//   - A pre-configured global pool for writer byte buffers
//   - Statistics for monitoring pool efficiency
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and automatic reset
// functionality. The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		hits      int64
	}
}

// New creates a new typed pool with custom allocation and reset functions.
// The new function is called when the pool is empty and a new object is
// needed. The reset function, if non-nil, is called before returning an
// object to the pool.
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   newFn,
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return newFn()
	}
	return p
}

// Get retrieves an object from the pool. If the pool is empty, it creates
// a new object using the factory function provided in New.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	obj := p.pool.Get().(T)
	atomic.AddInt64(&p.stats.hits, 1)
	return obj
}

// Put returns an object to the pool for reuse. If a reset function was
// provided during pool creation, it is called before the object is
// returned to the pool.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns current pool statistics: total objects created, objects
// currently checked out, and successful Get operations.
func (p *Pool[T]) Stats() (allocated, inUse, hits int64) {
	return atomic.LoadInt64(&p.stats.allocated),
		atomic.LoadInt64(&p.stats.inUse),
		atomic.LoadInt64(&p.stats.hits)
}

// defaultBufferCapacity sizes fresh writer buffers; one batch of encoded
// rows typically fits without regrowth.
const defaultBufferCapacity = 64 * 1024

// byteBufferPool recycles writer output buffers across batches.
var byteBufferPool = New(
	func() *ByteBuffer {
		return &ByteBuffer{B: make([]byte, 0, defaultBufferCapacity)}
	},
	func(b *ByteBuffer) { b.B = b.B[:0] },
)

// ByteBuffer is a reusable byte slice wrapper handed out by GetByteBuffer.
type ByteBuffer struct {
	B []byte
}

// Len returns the number of bytes accumulated in the buffer
func (b *ByteBuffer) Len() int { return len(b.B) }

// Reset truncates the buffer without releasing its capacity
func (b *ByteBuffer) Reset() { b.B = b.B[:0] }

// GetByteBuffer retrieves a buffer from the global byte buffer pool
func GetByteBuffer() *ByteBuffer {
	return byteBufferPool.Get()
}

// PutByteBuffer returns a buffer to the global byte buffer pool
func PutByteBuffer(b *ByteBuffer) {
	byteBufferPool.Put(b)
}
