// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

//go:build windows

// Modifications (c) 2017 The Memory Authors.
// Further modifications adapt a per-size-class page mapper into a
// single upfront reservation grown by a committed high-water mark, to
// serve as dwalloc's Arena.

package dwalloc

import (
	"errors"
	"os"
	"syscall"
	"unsafe"
)

// DefaultArenaCapacity is the address space NewMMapArena reserves
// upfront when given a non-positive capacity.
const DefaultArenaCapacity = 1 << 30 // 1 GiB

// We keep this map so that we can get back the original handle from
// the memory address on Close.
var handleMap = map[uintptr]syscall.Handle{}

// MMapArena is an Arena backed by a single file-mapping reservation.
// Grow never remaps or moves the view; it only advances a committed
// high-water mark inside the reservation, so addresses it hands out
// are stable for the Arena's lifetime.
type MMapArena struct {
	mem       []byte
	base      uintptr
	committed int
}

// NewMMapArena reserves capacity bytes (or DefaultArenaCapacity if
// capacity <= 0) and returns an Arena ready to grow within it.
func NewMMapArena(capacity int) (*MMapArena, error) {
	if capacity <= 0 {
		capacity = DefaultArenaCapacity
	}
	b, err := mmapReserve(capacity)
	if err != nil {
		return nil, err
	}
	return &MMapArena{mem: b, base: uintptr(unsafe.Pointer(&b[0]))}, nil
}

// Grow implements Arena.
func (a *MMapArena) Grow(n int) (uintptr, bool) {
	if n < 0 || a.committed+n > len(a.mem) {
		return 0, false
	}
	base := a.base + uintptr(a.committed)
	a.committed += n
	return base, true
}

// Lo implements Arena.
func (a *MMapArena) Lo() uintptr { return a.base }

// Hi implements Arena.
func (a *MMapArena) Hi() uintptr { return a.base + uintptr(a.committed) }

// Size implements Arena.
func (a *MMapArena) Size() int { return a.committed }

// Close releases the reservation. It is not necessary to Close an
// MMapArena when exiting a process.
func (a *MMapArena) Close() error {
	if a.mem == nil {
		return nil
	}
	err := munmap(unsafe.Pointer(&a.mem[0]), len(a.mem))
	a.mem = nil
	return err
}

// mmapReserve maps size bytes of fresh, zeroed, page-file-backed
// memory. CreateFileMapping/MapViewOfFile is the Windows two-step
// equivalent of an anonymous POSIX mmap.
func mmapReserve(size int) ([]byte, error) {
	flProtect := uint32(syscall.PAGE_READWRITE)
	dwDesiredAccess := uint32(syscall.FILE_MAP_WRITE)

	maxSizeHigh := uint32(int64(size) >> 32)
	maxSizeLow := uint32(int64(size) & 0xFFFFFFFF)
	h, errno := syscall.CreateFileMapping(syscall.Handle(^uintptr(0)), nil, flProtect, maxSizeHigh, maxSizeLow, nil)
	if h == 0 {
		return nil, os.NewSyscallError("CreateFileMapping", errno)
	}

	addr, errno := syscall.MapViewOfFile(h, dwDesiredAccess, 0, 0, uintptr(size))
	if addr == 0 {
		return nil, os.NewSyscallError("MapViewOfFile", errno)
	}

	handleMap[addr] = h
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func munmap(addr unsafe.Pointer, size int) error {
	// As soon as we unmap the view, the OS is free to give the same
	// addr to another new map.
	err := syscall.UnmapViewOfFile(uintptr(addr))
	if err != nil {
		return err
	}

	handle, ok := handleMap[uintptr(addr)]
	if !ok {
		// should be impossible; we would've errored above
		return errors.New("unknown base address")
	}
	delete(handleMap, uintptr(addr))

	e := syscall.CloseHandle(handle)
	return os.NewSyscallError("CloseHandle", e)
}
