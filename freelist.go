// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwalloc

// insertFree adds bp to the head of the free list. bp's header/footer
// must already mark it free; bp must not currently be linked.
func (h *Heap) insertFree(bp uintptr) {
	setPred(bp, 0)
	setSucc(bp, h.freelist)
	if h.freelist != 0 {
		setPred(h.addrOf(h.freelist), h.offsetOf(bp))
	}
	h.freelist = h.offsetOf(bp)
}

// unlinkFree removes bp from the free list. bp must currently be
// linked.
func (h *Heap) unlinkFree(bp uintptr) {
	p, n := predOf(bp), succOf(bp)
	switch {
	case p != 0 && n != 0:
		setSucc(h.addrOf(p), n)
		setPred(h.addrOf(n), p)
	case p == 0 && n != 0:
		h.freelist = n
		setPred(h.addrOf(n), 0)
	case p != 0 && n == 0:
		setSucc(h.addrOf(p), 0)
	default:
		h.freelist = 0
	}
}
