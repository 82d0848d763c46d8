// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwalloc

// coalesce merges bp with any free physical neighbours. bp's
// header/footer already mark it free but bp is not yet on the free
// list, and neither are its free neighbours removed from it by the
// time coalesce is called (they still are, and coalesce unlinks them
// as needed). The prologue and epilogue are always allocated, so
// coalescing never crosses the heap's boundaries. Returns the
// (possibly moved) resulting block; the caller is responsible for
// inserting it into the free list.
func (h *Heap) coalesce(bp uintptr) uintptr {
	prev := prevPhysical(bp)
	next := nextPhysical(bp)
	prevFree := !isAlloc(prev)
	nextFree := !isAlloc(next) // the epilogue's alloc bit is always set, so this never crosses it
	size := sizeOf(bp)

	switch {
	case !prevFree && !nextFree:
		return bp
	case !prevFree && nextFree:
		h.unlinkFree(next)
		size += sizeOf(next)
		writeBlock(bp, size, false)
		return bp
	case prevFree && !nextFree:
		h.unlinkFree(prev)
		size += sizeOf(prev)
		writeBlock(prev, size, false)
		return prev
	default:
		h.unlinkFree(next)
		h.unlinkFree(prev)
		size += sizeOf(next) + sizeOf(prev)
		writeBlock(prev, size, false)
		return prev
	}
}
