// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwalloc

import "unsafe"

const (
	wordSize     = 4  // header/footer/link word size
	dwordSize    = 8  // payload alignment granularity
	minBlockSize = 16 // header(4) + two link words(4+4) + footer(4)
	chunkSize    = 256

	allocBit = uint32(1)
	sizeMask = ^uint32(7)
)

// loadWord and storeWord alias raw heap bytes at addr as a 4-byte
// word. addr must be word-aligned and must fall within memory granted
// by an Arena's Grow.
func loadWord(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

func storeWord(addr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = v
}

// blockSize extracts the size field (low 3 bits zero) from a
// header/footer word.
func blockSize(w uint32) uint32 { return w & sizeMask }

// blockAlloc extracts the allocated flag from a header/footer word.
func blockAlloc(w uint32) bool { return w&allocBit != 0 }

// pack encodes size and the allocated flag into one header/footer word.
func pack(size uint32, alloc bool) uint32 {
	if alloc {
		return size | allocBit
	}
	return size
}

// align rounds n up to the block size required to host an n-byte
// request: 8 bytes of header+footer overhead, payload rounded to a
// multiple of the doubleword.
func align(n uint32) uint32 { return (n + 15) &^ 7 }

// requiredSize is the total block size chosen for a payload request of
// n bytes: max(minBlockSize, align(n)).
func requiredSize(n uint32) uint32 {
	if n <= 8 {
		return minBlockSize
	}
	return align(n)
}

func headerAddr(bp uintptr) uintptr               { return bp - wordSize }
func footerAddr(bp uintptr, size uint32) uintptr  { return bp + uintptr(size) - dwordSize }

func blockHeader(bp uintptr) uint32              { return loadWord(headerAddr(bp)) }
func blockFooter(bp uintptr, size uint32) uint32 { return loadWord(footerAddr(bp, size)) }

// sizeOf and isAlloc read a live block's boundary tag via its header.
func sizeOf(bp uintptr) uint32 { return blockSize(blockHeader(bp)) }
func isAlloc(bp uintptr) bool  { return blockAlloc(blockHeader(bp)) }

// writeBlock rewrites both the header and the footer of the block at
// bp to encode (size, alloc).
func writeBlock(bp uintptr, size uint32, alloc bool) {
	w := pack(size, alloc)
	storeWord(headerAddr(bp), w)
	storeWord(footerAddr(bp, size), w)
}

// nextPhysical returns the payload address of the block physically
// following bp. If bp is the heap's last real block, the result is the
// epilogue's pseudo-payload address (its header sits 4 bytes below).
func nextPhysical(bp uintptr) uintptr { return bp + uintptr(sizeOf(bp)) }

// prevPhysical returns the payload address of the block physically
// preceding bp, read from that block's footer (the 4 bytes immediately
// before bp's own header).
func prevPhysical(bp uintptr) uintptr {
	prevFooter := loadWord(bp - dwordSize)
	return bp - uintptr(blockSize(prevFooter))
}

// predOf, succOf, setPred and setSucc access the free-list link words
// stored in the first two words of a free block's payload.
func predOf(bp uintptr) uint32 { return loadWord(bp) }
func succOf(bp uintptr) uint32 { return loadWord(bp + wordSize) }

func setPred(bp uintptr, off uint32) { storeWord(bp, off) }
func setSucc(bp uintptr, off uint32) { storeWord(bp+wordSize, off) }

// offsetOf and addrOf convert between real addresses and the 32-bit
// heap-relative offsets free-list links are stored as. offset 0 is
// reserved as "null"; it can never name a real free block because h.base
// is the prologue's payload and the prologue is never free.
func (h *Heap) offsetOf(bp uintptr) uint32 { return uint32(bp - h.base) }

func (h *Heap) addrOf(off uint32) uintptr {
	if off == 0 {
		return 0
	}
	return h.base + uintptr(off)
}

// copyBytes and zeroBytes operate directly on raw heap addresses.
func copyBytes(dst, src uintptr, n uint32) {
	if n == 0 {
		return
	}
	d := unsafe.Slice((*byte)(unsafe.Pointer(dst)), n)
	s := unsafe.Slice((*byte)(unsafe.Pointer(src)), n)
	copy(d, s)
}

func zeroBytes(bp uintptr, n uint32) {
	if n == 0 {
		return
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(bp)), n)
	for i := range b {
		b[i] = 0
	}
}
