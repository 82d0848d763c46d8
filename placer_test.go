// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwalloc

import "testing"

// TestPlaceSplits carves a small request out of a large free block and
// expects a free tail to remain.
func TestPlaceSplits(t *testing.T) {
	h := newTestHeap(t)
	bp := h.addrOf(h.freelist)
	free := sizeOf(bp)
	a := requiredSize(32)
	if free-a < minBlockSize {
		t.Fatalf("test assumption violated: free block (%d) too small to split after carving %d", free, a)
	}

	h.place(bp, a)
	if !isAlloc(bp) {
		t.Fatal("placed block not marked allocated")
	}
	if g := sizeOf(bp); g != a {
		t.Fatalf("placed block size = %d, want %d", g, a)
	}

	tail := nextPhysical(bp)
	if isAlloc(tail) {
		t.Fatal("split remainder not marked free")
	}
	if g, e := sizeOf(tail), free-a; g != e {
		t.Fatalf("split remainder size = %d, want %d", g, e)
	}
	if !freeListHasSize(h, free-a) {
		t.Fatal("split remainder not reinserted into the free list")
	}

	h.Free(bp)
	mustCheck(t, h)
}

// TestPlaceConsumesWhole carves a request that leaves a remainder
// smaller than minBlockSize: the whole free block must go to the
// caller instead of being split.
func TestPlaceConsumesWhole(t *testing.T) {
	h := newTestHeap(t)
	bp := h.addrOf(h.freelist)
	free := sizeOf(bp)
	a := free // request exactly what is available: remainder is 0

	h.place(bp, a)
	if !isAlloc(bp) {
		t.Fatal("placed block not marked allocated")
	}
	if g := sizeOf(bp); g != free {
		t.Fatalf("whole-consumed block size = %d, want %d (no split)", g, free)
	}
	if h.freelist != 0 {
		t.Fatal("free list should be empty after consuming its only block whole")
	}

	h.Free(bp)
	mustCheck(t, h)
}

func TestFindFitFirstFit(t *testing.T) {
	h := newTestHeap(t)
	// Interleave allocated spacers between a, b and c so freeing them
	// leaves three distinct, non-adjacent free blocks instead of one
	// coalesced block.
	a, _ := h.Allocate(16)
	_, _ = h.Allocate(16) // spacer, stays allocated
	b, _ := h.Allocate(200)
	_, _ = h.Allocate(16) // spacer, stays allocated
	c, _ := h.Allocate(16)

	h.Free(a)
	h.Free(c)
	h.Free(b)

	// The free list is LIFO: b is now the head, with c (merged with the
	// free chunk remainder that followed it) and a behind it. A request that only a or c could satisfy must
	// still be granted from b if b arrives first and qualifies;
	// first-fit picks whichever qualifying block it meets first
	// walking from the head, not the tightest fit.
	if got := h.findFit(8); got != b {
		t.Fatalf("findFit(8) = %#x, want the free-list head %#x (first-fit, not best-fit)", got, b)
	}

	largest := uint32(0)
	for off := h.freelist; off != 0; off = succOf(h.addrOf(off)) {
		if s := sizeOf(h.addrOf(off)); s > largest {
			largest = s
		}
	}
	if got := h.findFit(largest + 1); got != 0 {
		t.Fatalf("findFit(%d) = %#x, want 0 (nothing satisfies a request larger than every free block)", largest+1, got)
	}
}
