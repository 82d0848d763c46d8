// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwalloc

import "testing"

// TestCoalesceNoNeighboursFree carves three same-sized blocks out of one
// chunk and frees only the middle one: both neighbours stay allocated,
// so coalesce must return the block unchanged and in place.
func TestCoalesceNoNeighboursFree(t *testing.T) {
	h := newTestHeap(t)
	a, _ := h.Allocate(32)
	b, _ := h.Allocate(32)
	c, _ := h.Allocate(32)
	_ = a
	_ = c

	size := sizeOf(b)
	h.Free(b)
	mustCheck(t, h)

	if isAlloc(b) {
		t.Fatal("b still marked allocated after Free")
	}
	if g := sizeOf(b); g != size {
		t.Fatalf("isolated free block size changed: got %d, want %d (no neighbour was free, so no merge should happen)", g, size)
	}
	if !freeListHasSize(h, size) {
		t.Fatal("freed isolated block not found on the free list at its original size")
	}
}

// TestCoalescePrevFree frees a then b: b's left neighbour a is free, its
// right neighbour c is allocated, so the merge must grow leftward and
// the surviving block pointer must be a.
func TestCoalescePrevFree(t *testing.T) {
	h := newTestHeap(t)
	a, _ := h.Allocate(32)
	b, _ := h.Allocate(32)
	c, _ := h.Allocate(32)

	sizeA, sizeB := sizeOf(a), sizeOf(b)

	h.Free(a)
	h.Free(b)
	mustCheck(t, h)

	if isAlloc(a) {
		t.Fatal("merged block a not marked free")
	}
	if g, e := sizeOf(a), sizeA+sizeB; g != e {
		t.Fatalf("merged block size = %d, want %d", g, e)
	}
	if nextPhysical(a) != c {
		t.Fatalf("next-physical(a) = %#x after merge, want c (%#x)", nextPhysical(a), c)
	}
	if !isAlloc(c) {
		t.Fatal("c should still be allocated")
	}
}

// TestCoalesceNextFree frees b then a: a's right neighbour b is free,
// its left neighbour is the prologue (allocated), so the merge must
// grow rightward while the surviving block pointer stays a.
func TestCoalesceNextFree(t *testing.T) {
	h := newTestHeap(t)
	a, _ := h.Allocate(32)
	b, _ := h.Allocate(32)
	c, _ := h.Allocate(32)

	sizeA, sizeB := sizeOf(a), sizeOf(b)

	h.Free(b)
	h.Free(a)
	mustCheck(t, h)

	if isAlloc(a) {
		t.Fatal("merged block a not marked free")
	}
	if g, e := sizeOf(a), sizeA+sizeB; g != e {
		t.Fatalf("merged block size = %d, want %d", g, e)
	}
	if nextPhysical(a) != c {
		t.Fatalf("next-physical(a) = %#x after merge, want c (%#x)", nextPhysical(a), c)
	}
}

// TestCoalesceBothFree frees a, then c, then b last: freeing b must
// merge all three (and whatever chunk remainder trails c) into one
// block anchored at a.
func TestCoalesceBothFree(t *testing.T) {
	h := newTestHeap(t)
	a, _ := h.Allocate(32)
	b, _ := h.Allocate(32)
	c, _ := h.Allocate(32)

	sizeA, sizeB, sizeC := sizeOf(a), sizeOf(b), sizeOf(c)
	tailFree := nextPhysical(c)
	sizeTail := uint32(0)
	if !isAlloc(tailFree) {
		sizeTail = sizeOf(tailFree)
	}

	h.Free(a)
	h.Free(c)
	h.Free(b)
	mustCheck(t, h)

	if isAlloc(a) {
		t.Fatal("merged block a not marked free")
	}
	want := sizeA + sizeB + sizeC + sizeTail
	if g := sizeOf(a); g != want {
		t.Fatalf("fully merged block size = %d, want %d", g, want)
	}
	if n := freeListLen(h); n != 1 {
		t.Fatalf("free list has %d entries after merging everything, want 1", n)
	}
}
