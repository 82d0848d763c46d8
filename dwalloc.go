// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dwalloc implements a dynamic memory allocator managing a
// single contiguous, monotonically growable heap obtained from a
// lower-level Arena. It exposes the classical four-operation interface
// -- Allocate, Free, Reallocate, ZeroedAllocate -- with byte-granularity
// requests and strict 8-byte payload alignment.
//
// The design is a textbook implicit-heap-with-explicit-free-list
// allocator: boundary tags on every block, an offset-linked LIFO free
// list threaded through free payloads, first-fit placement with
// splitting, and immediate boundary-tag coalescing. It commits to this
// single design rather than best-fit, segregated size classes, or
// deferred coalescing -- it is meant to be read, not to win benchmarks.
//
// A Heap is single-mutator: no operation may be reentered, and a Heap
// must not be shared across goroutines without external
// synchronization. The heap only grows; shrinking it back to the Arena
// is out of scope.
package dwalloc

import (
	"fmt"
	"math/bits"
	"os"
)

// trace gates per-call debug logging to stderr. Flip to true when
// chasing a corruption by hand; leave false otherwise.
const trace = false

// Heap is a boundary-tagged, first-fit allocator growing against an
// Arena. Construct with NewHeap and call Init before using it; the zero
// value is not ready for use (unlike the arena-per-size-class design
// this package's texture is borrowed from, a Heap needs a concrete
// Arena to grow against, so it cannot default itself into existence).
type Heap struct {
	arena    Arena
	base     uintptr // prologue payload address; anchor for free-list offsets
	freelist uint32  // offset of the free-list head, 0 == empty
}

// NewHeap returns a Heap that will grow against a. Call Init before
// performing any allocation.
func NewHeap(a Arena) *Heap {
	return &Heap{arena: a}
}

// Init obtains the heap's sentinels and first chunk from the arena.
func (h *Heap) Init() error {
	base, ok := h.arena.Grow(2 * dwordSize)
	if !ok {
		return fmt.Errorf("dwalloc: arena exhausted during init")
	}

	// layout: [pad(4) | prologue header(4) | prologue footer(4) | epilogue header(4)]
	storeWord(base, 0)
	prologue := base + 2*wordSize
	writeBlock(prologue, dwordSize, true)
	storeWord(prologue+uintptr(dwordSize)-wordSize, pack(0, true))

	h.base = prologue
	h.freelist = 0

	if h.extend(chunkSize) == 0 {
		return fmt.Errorf("dwalloc: arena exhausted extending initial chunk")
	}
	return nil
}

// Allocate returns the address of a newly allocated, 8-byte-aligned
// payload of at least n bytes, or (0, false) if n is zero or the arena
// is exhausted.
func (h *Heap) Allocate(n uint32) (bp uintptr, ok bool) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "dwalloc: Allocate(%d) -> %#x, %v\n", n, bp, ok) }()
	}
	if n == 0 {
		return 0, false
	}

	a := requiredSize(n)
	if bp := h.findFit(a); bp != 0 {
		h.place(bp, a)
		return bp, true
	}

	grow := a
	if grow < chunkSize {
		grow = chunkSize
	}
	bp = h.extend(grow)
	if bp == 0 {
		return 0, false
	}
	h.place(bp, a)
	return bp, true
}

// Free releases the payload previously returned by Allocate,
// Reallocate or ZeroedAllocate. bp == 0 is a no-op. Freeing an address
// that was not returned by this Heap, or freeing it twice, is
// undefined behaviour and is not detected.
func (h *Heap) Free(bp uintptr) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "dwalloc: Free(%#x)\n", bp) }()
	}
	if bp == 0 {
		return
	}

	size := sizeOf(bp)
	writeBlock(bp, size, false)
	setPred(bp, 0)
	setSucc(bp, 0)
	bp = h.coalesce(bp)
	h.insertFree(bp)
}

// Reallocate resizes the block at bp to hold n bytes, preserving its
// content up to the smaller of the old and new sizes. bp == 0 behaves
// like Allocate(n). n == 0 frees bp and returns (0, false). On
// allocation failure when growing, bp is left untouched and (0, false)
// is returned.
func (h *Heap) Reallocate(bp uintptr, n uint32) (r uintptr, ok bool) {
	if trace {
		defer func() {
			fmt.Fprintf(os.Stderr, "dwalloc: Reallocate(%#x, %d) -> %#x, %v\n", bp, n, r, ok)
		}()
	}
	if bp == 0 {
		return h.Allocate(n)
	}
	if n == 0 {
		h.Free(bp)
		return 0, false
	}

	old := sizeOf(bp)
	a := align(n)
	if a < minBlockSize {
		a = minBlockSize
	}

	if old >= a {
		if old-a < minBlockSize {
			return bp, true
		}
		writeBlock(bp, a, true)
		tail := bp + uintptr(a)
		writeBlock(tail, old-a, false)
		setPred(tail, 0)
		setSucc(tail, 0)
		tail = h.coalesce(tail)
		h.insertFree(tail)
		return bp, true
	}

	newBp, ok := h.Allocate(n)
	if !ok {
		return 0, false
	}
	oldPayload := old - dwordSize
	newPayload := a - dwordSize
	n2 := oldPayload
	if newPayload < n2 {
		n2 = newPayload
	}
	copyBytes(newBp, bp, n2)
	h.Free(bp)
	return newBp, true
}

// ZeroedAllocate is like Allocate(count*size) except the returned
// payload is zeroed. It returns (0, false) if count*size overflows a
// uint32, matching the spec's correction of the original's unchecked
// multiply.
func (h *Heap) ZeroedAllocate(count, size uint32) (uintptr, bool) {
	hi, lo := bits.Mul32(count, size)
	if hi != 0 {
		return 0, false
	}
	bp, ok := h.Allocate(lo)
	if !ok {
		return 0, false
	}
	zeroBytes(bp, lo)
	return bp, true
}
