// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwalloc

import (
	"fmt"
	"log"
	"os"
)

// CheckError aggregates every structural violation Check found in a
// single pass over the heap.
type CheckError struct {
	Violations []string
}

func (e *CheckError) Error() string {
	if len(e.Violations) == 1 {
		return "dwalloc: " + e.Violations[0]
	}
	return fmt.Sprintf("dwalloc: %d invariant violations, first: %s", len(e.Violations), e.Violations[0])
}

// Check walks the physical heap from the prologue to the epilogue and
// the free list from its head, cross-validating the two. It returns
// nil if the heap is structurally sound, or a *CheckError listing every
// violation found otherwise. If verbose, each violation is additionally
// logged to stderr as it is found.
func (h *Heap) Check(verbose bool) error {
	var logger *log.Logger
	if verbose {
		logger = log.New(os.Stderr, "dwalloc: check: ", 0)
	}

	var violations []string
	report := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		violations = append(violations, msg)
		if logger != nil {
			logger.Print(msg)
		}
	}

	lo, hi := h.arena.Lo(), h.arena.Hi()

	physicalFree := h.walkPhysical(hi, report)
	listFree := h.walkFreeList(lo, hi, report)

	if physicalFree != listFree {
		report("free block count mismatch: physical walk found %d, free list found %d", physicalFree, listFree)
	}

	if len(violations) > 0 {
		return &CheckError{Violations: violations}
	}
	return nil
}

// walkPhysical traverses every block from the prologue to the
// epilogue, verifying alignment, header/footer agreement and coalescing
// maximality. It returns the number of free blocks it found.
func (h *Heap) walkPhysical(hi uintptr, report func(string, ...interface{})) int {
	free := 0
	bp := h.base
	for {
		size := sizeOf(bp)
		if size == 0 {
			if bp != hi {
				report("epilogue found at %#x, expected heap top %#x", bp, hi)
			}
			return free
		}

		if bp%dwordSize != 0 {
			report("block at %#x is not 8-byte aligned", bp)
		}
		if size%dwordSize != 0 {
			report("block at %#x has size %d, not a multiple of 8", bp, size)
		}
		if bp != h.base && size < minBlockSize {
			report("block at %#x has size %d below the minimum %d", bp, size, minBlockSize)
		}
		if header, footer := blockHeader(bp), blockFooter(bp, size); header != footer {
			report("block at %#x: header %#x != footer %#x", bp, header, footer)
		}

		next := bp + uintptr(size)
		if !isAlloc(bp) {
			free++
			if next != hi && !isAlloc(next) {
				report("adjacent free blocks at %#x and %#x: not coalesced", bp, next)
			}
		}
		if next <= bp || next > hi {
			report("block at %#x: next-physical %#x out of heap range", bp, next)
			return free
		}
		bp = next
	}
}

// walkFreeList traverses the free list from its head, verifying bounds,
// the allocated flag and link reciprocity. It returns the number of
// blocks it found.
func (h *Heap) walkFreeList(lo, hi uintptr, report func(string, ...interface{})) int {
	count := 0
	seen := map[uint32]bool{}
	for off := h.freelist; off != 0; {
		if seen[off] {
			report("free list cycle detected at offset %d", off)
			break
		}
		seen[off] = true

		bp := h.addrOf(off)
		if bp < lo || bp >= hi {
			report("free list node %#x out of heap bounds [%#x,%#x)", bp, lo, hi)
			break
		}
		if isAlloc(bp) {
			report("free list node %#x has its allocated bit set", bp)
		}
		count++

		succ := succOf(bp)
		if succ != 0 && predOf(h.addrOf(succ)) != off {
			report("free list link broken: pred(succ(%#x)) != offset(%#x)", bp, bp)
		}
		off = succ
	}
	return count
}
