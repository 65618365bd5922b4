package silo

import "unsafe"

// unsafeColumnPointer is a thin wrapper around the base address of one
// archetype column. It exists so every byte-offset computation for row
// access goes through one place instead of scattering
// unsafe.Add/uintptr arithmetic across the package.
type unsafeColumnPointer struct {
	ptr unsafe.Pointer
}

// at returns the address of the row-th element, elemSize bytes apart.
func (p unsafeColumnPointer) at(row int, elemSize uintptr) unsafe.Pointer {
	return unsafe.Add(p.ptr, uintptr(row)*elemSize)
}

func (p unsafeColumnPointer) isNil() bool { return p.ptr == nil }
