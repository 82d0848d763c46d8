// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwalloc

// place carves an allocation of size a out of the free block bp (whose
// size is already known to be >= a) and unlinks bp from the free list.
// If the remainder is at least minBlockSize, bp is split: the head
// becomes the allocated block and the tail is formed into a new free
// block and reinserted. Otherwise the whole block is handed to the
// caller allocated. No coalescing of the tail is needed: the block to
// its right was already allocated, or coalescing would have merged it
// in already.
func (h *Heap) place(bp uintptr, a uint32) {
	h.unlinkFree(bp)
	c := sizeOf(bp)
	if rem := c - a; rem >= minBlockSize {
		writeBlock(bp, a, true)
		tail := nextPhysical(bp)
		writeBlock(tail, rem, false)
		h.insertFree(tail)
		return
	}
	writeBlock(bp, c, true)
}
