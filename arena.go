// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwalloc

// Arena is the page-granularity provider the allocator grows its heap
// against. It owns OS-level memory acquisition; the allocator itself
// never talks to the operating system directly.
//
// Grow must return a stable address: once returned, the bytes in
// [base, base+n) stay valid and never move for the lifetime of the
// Arena. n is always a multiple of the doubleword (8) when called by
// the allocator. Arena implementations are not required to be safe for
// concurrent use, matching the allocator's own single-mutator model.
type Arena interface {
	// Grow appends n bytes to the heap and returns the address of the
	// first new byte. ok is false if the arena cannot satisfy the
	// request (its reservation is exhausted, a syscall failed, ...).
	Grow(n int) (base uintptr, ok bool)

	// Lo reports the lowest address ever returned by Grow.
	Lo() uintptr

	// Hi reports the address one past the last byte ever granted by
	// Grow. Hi is non-decreasing across the Arena's lifetime.
	Hi() uintptr

	// Size reports Hi() - Lo().
	Size() int
}
