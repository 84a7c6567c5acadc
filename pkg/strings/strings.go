// Package strings provides high-performance, zero-copy string utilities with pooling for pgbulk
package strings

import (
	"reflect"
	"unsafe"
)

// BytesToString converts byte slice to string without allocation
// WARNING: The returned string shares memory with the byte slice.
// Do not modify the byte slice after calling this function.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return *(*string)(unsafe.Pointer(&b))
}

// StringToBytes converts string to byte slice without allocation
// WARNING: The returned byte slice shares memory with the string.
// Do not modify the returned slice.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	sh := (*reflect.StringHeader)(unsafe.Pointer(&s))
	bh := reflect.SliceHeader{
		Data: sh.Data,
		Len:  sh.Len,
		Cap:  sh.Len,
	}
	return *(*[]byte)(unsafe.Pointer(&bh))
}

// Builder provides efficient string building with zero-copy operations
type Builder struct {
	buf []byte
}

// NewBuilder creates a new string builder
func NewBuilder(capacity int) *Builder {
	return &Builder{
		buf: make([]byte, 0, capacity),
	}
}

// WriteString appends a string to the builder
func (b *Builder) WriteString(s string) {
	b.buf = append(b.buf, StringToBytes(s)...)
}

// WriteBytes appends bytes to the builder
func (b *Builder) WriteBytes(data []byte) {
	b.buf = append(b.buf, data...)
}

// WriteByte appends a single byte
func (b *Builder) WriteByte(c byte) {
	b.buf = append(b.buf, c)
}

// Write implements io.Writer interface
func (b *Builder) Write(p []byte) (n int, err error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// String returns the built string. The result is an owned copy and stays
// valid after the builder is reset or returned to a pool.
func (b *Builder) String() string {
	return string(b.buf)
}

// Bytes returns the underlying byte slice
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Len returns the length of the built string
func (b *Builder) Len() int {
	return len(b.buf)
}

// Cap returns the capacity of the underlying buffer
func (b *Builder) Cap() int {
	return cap(b.buf)
}

// Reset resets the builder for reuse
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

// Grow grows the buffer capacity
func (b *Builder) Grow(n int) {
	if cap(b.buf)-len(b.buf) < n {
		newSize := len(b.buf) + 2*cap(b.buf) + n
		newBuf := make([]byte, len(b.buf), newSize)
		copy(newBuf, b.buf)
		b.buf = newBuf
	}
}

// Pool manages a pool of string builders
type Pool struct {
	builders chan *Builder
	capacity int
}

// NewPool creates a new builder pool
func NewPool(poolSize, builderCapacity int) *Pool {
	p := &Pool{
		builders: make(chan *Builder, poolSize),
		capacity: builderCapacity,
	}

	// Pre-populate the pool
	for i := 0; i < poolSize; i++ {
		p.builders <- NewBuilder(builderCapacity)
	}

	return p
}

// Get retrieves a builder from the pool, allocating a fresh one when empty
func (p *Pool) Get() *Builder {
	select {
	case b := <-p.builders:
		return b
	default:
		return NewBuilder(p.capacity)
	}
}

// Put returns a builder to the pool after resetting it
func (p *Pool) Put(b *Builder) {
	b.Reset()
	select {
	case p.builders <- b:
	default:
		// Pool is full, let the builder be garbage collected
	}
}
