// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwalloc

// extend grows the heap by max(need, chunkSize) bytes, rounded up to a
// multiple of the doubleword. It formats the new
// region as one free block, rewrites the heap's epilogue past it,
// coalesces with whatever physically precedes it (which may itself be
// free), enrolls the result in the free list and returns it. Returns 0
// if the arena cannot grow.
func (h *Heap) extend(need uint32) uintptr {
	size := need
	if size < chunkSize {
		size = chunkSize
	}
	size = (size + 7) &^ 7

	bp, ok := h.arena.Grow(int(size))
	if !ok {
		return 0
	}

	// The newly granted bytes start exactly where the old epilogue
	// header used to live, so bp (the address Grow returns) becomes
	// this block's payload address directly.
	writeBlock(bp, size, false)
	storeWord(bp+uintptr(size)-wordSize, pack(0, true)) // fresh epilogue
	setPred(bp, 0)
	setSucc(bp, 0)

	bp = h.coalesce(bp)
	h.insertFree(bp)
	return bp
}
