package silo

import (
	"reflect"
	"sync"
	"unsafe"
)

// ComponentGroup is a caller-supplied set of component slots, together
// with the permutation that maps declaration order into an
// archetype's sorted column order. It is the Go stand-in for the
// compile-time tuple plumbing described in §4/§9: Group1..Group6 (see
// group_generated.go) are the fixed-arity typed façades, and
// DynamicGroup is the one dynamic fallback that covers every arity up
// to MaxComponentsPerEntity via (ComponentTypeId, pointer) pairs.
//
// sortedPointers is unexported: an archetype op either copies bytes
// out of these addresses (PushEntity, WriteEntity) or into them
// (ReadComponentsExact), so implementers must hold addressable
// storage -- every constructor here returns a pointer for that reason.
type ComponentGroup interface {
	Descriptor() ArchetypeDescriptor
	sortedPointers(dest *[MaxComponentsPerEntity]unsafe.Pointer)
	declarationIDs() []ComponentTypeId
}

// groupLayout is the compile-time view §4 describes: a canonical
// ArchetypeDescriptor for a fixed, ordered list of Go types, plus the
// permutation mapping declaration order into that descriptor's sorted
// column order. Go has no const-eval hook to compute this once per
// type instantiation, so it is memoized on first use instead.
type groupLayout struct {
	descriptor ArchetypeDescriptor
	toSorted   []int
	ids        []ComponentTypeId
}

var (
	groupLayoutMu    sync.RWMutex
	groupLayoutCache = map[string]groupLayout{}
)

// groupLayoutFor memoizes the groupLayout for a fixed set of Go types,
// keyed by their declaration-order type names.
func groupLayoutFor(types ...reflect.Type) groupLayout {
	key := groupCacheKey(types)

	groupLayoutMu.RLock()
	if l, ok := groupLayoutCache[key]; ok {
		groupLayoutMu.RUnlock()
		return l
	}
	groupLayoutMu.RUnlock()

	descs := make([]ComponentDescriptor, len(types))
	for i, t := range types {
		descs[i] = descriptorForType(t)
	}
	descriptor, err := ArchetypeDescriptorFromUnsorted(descs...)
	if err != nil {
		// A GroupN is built from MaxComponentsPerEntity-bounded, statically
		// distinct Go type parameters; the only way this can fail is a
		// caller repeating a type across one GroupN's type parameters,
		// which is a programming error at the call site.
		panic("silo: " + err.Error())
	}
	toSorted := make([]int, len(types))
	ids := make([]ComponentTypeId, len(types))
	for i := range types {
		ids[i] = descs[i].ID
		idx, _ := descriptor.IndexOf(descs[i].ID)
		toSorted[i] = idx
	}

	layout := groupLayout{descriptor: descriptor, toSorted: toSorted, ids: ids}
	groupLayoutMu.Lock()
	groupLayoutCache[key] = layout
	groupLayoutMu.Unlock()
	return layout
}

func groupCacheKey(types []reflect.Type) string {
	b := make([]byte, 0, 64)
	for i, t := range types {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, typeName(t)...)
	}
	return string(b)
}

// DynamicGroup is the type-erased fallback ComponentGroup: an
// unordered-by-construction, caller-declared list of component
// pointers, used when an arity beyond the generated Group1..Group6
// façades is needed (up to MaxComponentsPerEntity).
type DynamicGroup struct {
	ids        []ComponentTypeId
	pointers   []unsafe.Pointer
	descriptor ArchetypeDescriptor
	toSorted   []int
}

// NewDynamicGroup builds a DynamicGroup from pointers to caller-owned
// component values. Each element of values must be a non-nil pointer
// to a distinct, registered component type.
func NewDynamicGroup(values ...any) (*DynamicGroup, error) {
	if len(values) == 0 || len(values) > MaxComponentsPerEntity {
		return nil, InvalidDescriptorError{Reason: "dynamic group arity out of bounds"}
	}
	descs := make([]ComponentDescriptor, len(values))
	ids := make([]ComponentTypeId, len(values))
	ptrs := make([]unsafe.Pointer, len(values))
	for i, v := range values {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return nil, InvalidDescriptorError{Reason: "dynamic group element must be a non-nil pointer"}
		}
		elemType := rv.Type().Elem()
		d := descriptorForType(elemType)
		descs[i] = d
		ids[i] = d.ID
		ptrs[i] = rv.UnsafePointer()
	}
	descriptor, err := ArchetypeDescriptorFromUnsorted(descs...)
	if err != nil {
		return nil, err
	}
	toSorted := make([]int, len(ids))
	for i, id := range ids {
		idx, _ := descriptor.IndexOf(id)
		toSorted[i] = idx
	}
	return &DynamicGroup{ids: ids, pointers: ptrs, descriptor: descriptor, toSorted: toSorted}, nil
}

// Descriptor implements ComponentGroup.
func (g *DynamicGroup) Descriptor() ArchetypeDescriptor { return g.descriptor }

func (g *DynamicGroup) sortedPointers(dest *[MaxComponentsPerEntity]unsafe.Pointer) {
	for i, ptr := range g.pointers {
		dest[g.toSorted[i]] = ptr
	}
}

func (g *DynamicGroup) declarationIDs() []ComponentTypeId { return g.ids }

// columnView exposes one archetype column as a base pointer plus
// stride, the dynamic-fallback equivalent of a typed slice. Callers
// reinterpret At(i) as *T for the component type they expect at ID.
type columnView struct {
	ID     ComponentTypeId
	base   unsafe.Pointer
	stride uintptr
	Len    int
}

// At returns the address of the i-th element in this column.
func (c columnView) At(i int) unsafe.Pointer {
	return unsafe.Add(c.base, uintptr(i)*c.stride)
}

// sortByDeclarationOrder is a small helper used by the fuzzy-match
// path to report columnViews in the same order components were asked
// for, not sorted order -- matching what a typed GroupN facade would
// return for Query<(C, A)> style requests (see Archetype.GetFuzzySlices).
func sortByDeclarationOrder(ids []ComponentTypeId, views []columnView) []columnView {
	out := make([]columnView, len(ids))
	byID := make(map[ComponentTypeId]columnView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}
