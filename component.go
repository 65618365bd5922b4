package silo

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/bark"
)

// ComponentTypeId is the stable 16-bit identifier for one registered
// component type, derived from a hash of the type's fully qualified
// name and folded to 16 bits.
type ComponentTypeId uint16

// Component is implemented by every type that can be stored as an
// archetype column. Any Go type satisfies it; the alias exists so call
// sites read as domain code rather than bare `any`.
type Component = any

// DropHandler zeroes out count contiguous, fully-initialized component
// values starting at ptr, releasing whatever references they hold so
// the backing array can be reused or garbage collected. It must be
// safe to call on any contiguous run of fully-initialized components.
// The handler this package installs (zeroingDropHandler) zeroes values
// of every type, including types that hold no pointers; it is never a
// no-op for a non-empty run.
type DropHandler func(ptr unsafeColumnPointer, count int)

// CloneHandler duplicates count contiguous component values from src
// to dst. Optional: nil when a component type has no need to be
// cloned independently of the generic byte copy push/swap/transfer use.
type CloneHandler func(dst, src unsafeColumnPointer, count int)

// ComponentDescriptor is an immutable value object describing one
// component type: its identity, its memory layout, and the functions
// needed to drop or clone a run of its values. Descriptors are cheap
// to copy and compare -- ID equality is identity equality, enforced at
// registration time.
type ComponentDescriptor struct {
	ID    ComponentTypeId
	Name  string
	Size  uintptr
	Align uintptr

	drop  DropHandler
	clone CloneHandler
	goTyp reflect.Type
}

// Drop invokes the descriptor's drop handler, or does nothing if the
// component type carries none.
func (d ComponentDescriptor) Drop(ptr unsafeColumnPointer, count int) {
	if d.drop != nil {
		d.drop(ptr, count)
	}
}

// Clonable reports whether this descriptor carries a clone handler.
func (d ComponentDescriptor) Clonable() bool { return d.clone != nil }

// Clone invokes the descriptor's clone handler. Callers must check
// Clonable first; there is no fallback for components without one.
func (d ComponentDescriptor) Clone(dst, src unsafeColumnPointer, count int) {
	d.clone(dst, src, count)
}

var (
	componentRegistryMu sync.RWMutex
	componentsByType    = map[reflect.Type]ComponentDescriptor{}
	componentsByID      = map[ComponentTypeId]reflect.Type{}
)

// descriptorForType returns the (possibly newly registered)
// ComponentDescriptor for a Go type, detecting ComponentTypeId
// collisions between distinct types on first use.
func descriptorForType(t reflect.Type) ComponentDescriptor {
	componentRegistryMu.RLock()
	if d, ok := componentsByType[t]; ok {
		componentRegistryMu.RUnlock()
		return d
	}
	componentRegistryMu.RUnlock()

	componentRegistryMu.Lock()
	defer componentRegistryMu.Unlock()

	if d, ok := componentsByType[t]; ok {
		return d
	}

	name := typeName(t)
	id := deriveComponentTypeID(name)
	if existing, ok := componentsByID[id]; ok && existing != t {
		panic(bark.AddTrace(ComponentCollisionError{
			ExistingName: typeName(existing),
			NewName:      name,
			ID:           id,
		}))
	}

	d := ComponentDescriptor{
		ID:    id,
		Name:  name,
		Size:  t.Size(),
		Align: uintptr(t.Align()),
		drop:  zeroingDropHandler(t),
		goTyp: t,
	}
	componentsByType[t] = d
	componentsByID[id] = t
	return d
}

// typeName returns the fully qualified name used to derive a
// ComponentTypeId: package path plus type name, so two types with the
// same bare name in different packages never collide by name alone.
func typeName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return fmt.Sprintf("%s.%s", t.PkgPath(), t.Name())
}

// deriveComponentTypeID hashes name with FNV-1a-64 and folds the
// result into 16 bits by XOR-folding each 16-bit lane.
func deriveComponentTypeID(name string) ComponentTypeId {
	h := fnv1a64([]byte(name))
	folded := uint16(h) ^ uint16(h>>16) ^ uint16(h>>32) ^ uint16(h>>48)
	return ComponentTypeId(folded)
}

const (
	fnvOffset64 uint64 = 14695981039346656037
	fnvPrime64  uint64 = 1099511628211
)

// fnv1a64 is the standard FNV-1a 64-bit hash, used both to derive a
// ComponentTypeId from a type name and to fold an ArchetypeId from a
// sorted sequence of them (see archetypeIDFromSorted).
func fnv1a64(data []byte) uint64 {
	h := fnvOffset64
	for _, b := range data {
		h ^= uint64(b)
		h *= fnvPrime64
	}
	return h
}

// zeroingDropHandler returns a DropHandler that clears count
// contiguous values of type t. This is the idiomatic Go stand-in for
// the destructor dispatch a manually-managed language needs here: it
// drops any references the component held so the GC can reclaim them,
// and resets value semantics for reused slots. It applies uniformly
// regardless of whether t itself contains pointers -- zeroing a small
// POD value is cheap, and keeping drop dispatch uniform avoids a
// second code path purely for "trivially destructible" types.
func zeroingDropHandler(t reflect.Type) DropHandler {
	size := t.Size()
	zero := reflect.Zero(t)
	return func(ptr unsafeColumnPointer, count int) {
		if ptr.isNil() || count == 0 {
			return
		}
		for i := 0; i < count; i++ {
			reflect.NewAt(t, ptr.at(i, size)).Elem().Set(zero)
		}
	}
}
