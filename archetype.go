package silo

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// wrapAllocationPanic recovers a panic from an allocation path and
// re-panics it as a bark-traced AllocationFailureError, the same
// "detect, trace, panic" shape query.go/entity.go use in the teacher --
// except here the error is synthesized from a recovered runtime panic
// rather than returned by a prior call, since Go has no distinct
// allocation-failure error to catch ahead of time. Leaves an
// already-wrapped AllocationFailureError alone instead of nesting it
// again, so a panic from newColumn inside reallocate's loop surfaces
// with one trace, not two.
func wrapAllocationPanic(context string) {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(error); ok {
		var existing AllocationFailureError
		if errors.As(err, &existing) {
			panic(r)
		}
	}
	panic(bark.AddTrace(AllocationFailureError{Reason: fmt.Sprintf("%s: %v", context, r)}))
}

// column is one archetype's storage for a single component type: a
// contiguous, GC-managed array of capacity elements of the column's Go
// type. Allocating via reflect.New(reflect.ArrayOf(...)).Elem() keeps
// the backing memory on the normal Go heap (scanned and moved-never,
// but properly tracked by the GC), instead of reaching for
// malloc/free -- there is no manual free in Go, so "dealloc" below
// means "drop the reference and let the collector reclaim it".
type column struct {
	desc ComponentDescriptor
	arr  reflect.Value
	base unsafe.Pointer
}

func newColumn(desc ComponentDescriptor, capacity int) column {
	defer wrapAllocationPanic(fmt.Sprintf("allocating column %q at capacity %d", desc.Name, capacity))
	arr := reflect.New(reflect.ArrayOf(capacity, desc.goTyp)).Elem()
	var base unsafe.Pointer
	if capacity > 0 {
		base = arr.Addr().UnsafePointer()
	}
	return column{desc: desc, arr: arr, base: base}
}

func (c *column) elem(row int) reflect.Value { return c.arr.Index(row) }

func (c *column) rowPtr(row int) unsafe.Pointer {
	return unsafe.Add(c.base, uintptr(row)*c.desc.Size)
}

func (c *column) drop(row int) {
	c.desc.Drop(unsafeColumnPointer{ptr: c.rowPtr(row)}, 1)
}

// swapRows exchanges the values at rows i and j. Goes through reflect
// rather than a raw byte swap so pointer-bearing component types keep
// correct GC write barriers across the move.
func (c *column) swapRows(i, j int) {
	if i == j {
		return
	}
	tmp := reflect.New(c.desc.goTyp).Elem()
	tmp.Set(c.arr.Index(i))
	c.arr.Index(i).Set(c.arr.Index(j))
	c.arr.Index(j).Set(tmp)
}

func (c *column) view(length int) columnView {
	return columnView{ID: c.desc.ID, base: c.base, stride: c.desc.Size, Len: length}
}

// Archetype is the columnar storage for every entity sharing one exact
// component set. Rows are index-aligned across all columns and the
// metadata slice: row r's components live at offset r in every
// column, and row r's EntityMetadata lives at entityMetadata[r].
//
// FirstShardIndex/LastShardIndex are reserved for an optional
// second-level shard partitioning; silo stores them but never
// interprets them.
type Archetype struct {
	descriptor ArchetypeDescriptor
	columns    []column

	entityMetadata []EntityMetadata
	entityCount    uint32
	capacity       uint32

	FirstShardIndex uint32
	LastShardIndex  uint32
}

func newArchetype(descriptor ArchetypeDescriptor) *Archetype {
	comps := descriptor.Components()
	columns := make([]column, len(comps))
	for i, desc := range comps {
		columns[i] = newColumn(desc, 0)
	}
	return &Archetype{descriptor: descriptor, columns: columns}
}

// Descriptor returns this archetype's ArchetypeDescriptor.
func (a *Archetype) Descriptor() ArchetypeDescriptor { return a.descriptor }

// Len returns the number of live rows.
func (a *Archetype) Len() int { return int(a.entityCount) }

// Cap returns the number of allocated rows.
func (a *Archetype) Cap() int { return int(a.capacity) }

// IsFull reports whether the next push requires a grow.
func (a *Archetype) IsFull() bool { return a.entityCount >= a.capacity }

func (a *Archetype) checkExact(group ComponentGroup) error {
	if group.Descriptor().ID() != a.descriptor.ID() {
		return InvalidDescriptorError{Reason: "group descriptor does not match archetype descriptor"}
	}
	return nil
}

// writeRowFrom copies group's values into row's slot in sorted column
// order, bytewise transferring ownership out of the caller's values.
func (a *Archetype) writeRowFrom(row int, group ComponentGroup) {
	debugAssertExact(a, group)
	var ptrs [MaxComponentsPerEntity]unsafe.Pointer
	group.sortedPointers(&ptrs)
	for i, desc := range a.descriptor.Components() {
		src := reflect.NewAt(desc.goTyp, ptrs[i]).Elem()
		a.columns[i].elem(row).Set(src)
	}
}

// readRowInto copies row's values out into group's backing memory, in
// sorted column order -- the inverse of writeRowFrom.
func (a *Archetype) readRowInto(row int, group ComponentGroup) {
	debugAssertExact(a, group)
	var ptrs [MaxComponentsPerEntity]unsafe.Pointer
	group.sortedPointers(&ptrs)
	for i, desc := range a.descriptor.Components() {
		dst := reflect.NewAt(desc.goTyp, ptrs[i]).Elem()
		dst.Set(a.columns[i].elem(row))
	}
}

// AllocateRow reserves a new row, growing capacity first if the
// archetype is full (doubling from Config.DefaultArchetypeAllocationSize),
// and writes metadata to it. Every column at the new row keeps its
// zero value until the caller fills it in -- used directly by
// PushEntity, and by add/remove-component transitions that populate
// the row via CopyCommonComponents and WriteEntity afterward.
func (a *Archetype) AllocateRow(metadata EntityMetadata) (int, error) {
	if a.IsFull() {
		delta := Config.DefaultArchetypeAllocationSize()
		if a.capacity > delta {
			delta = a.capacity
		}
		if err := a.ResizeCapacity(int(delta)); err != nil {
			return 0, err
		}
	}
	row := int(a.entityCount)
	a.entityMetadata[row] = metadata
	a.entityCount++
	return row, nil
}

// PushEntity appends a new row built from group's values, growing
// capacity first if the archetype is full. Returns the new row index.
func (a *Archetype) PushEntity(metadata EntityMetadata, group ComponentGroup) (int, error) {
	if err := a.checkExact(group); err != nil {
		return 0, err
	}
	row, err := a.AllocateRow(metadata)
	if err != nil {
		return 0, err
	}
	a.writeRowFrom(row, group)
	return row, nil
}

// WriteEntity overwrites an existing row with group's values, without
// growing capacity or changing entity count and without dropping
// whatever previously occupied the slot. Used by transitions that have
// already taken over the destination row.
func (a *Archetype) WriteEntity(row int, metadata EntityMetadata, group ComponentGroup) error {
	if err := a.checkExact(group); err != nil {
		return err
	}
	a.writeRowFrom(row, group)
	a.entityMetadata[row] = metadata
	return nil
}

// ReadComponentsExact copies row's components out into group's backing
// memory, in group's declaration order. Does not affect entity count.
func (a *Archetype) ReadComponentsExact(row int, group ComponentGroup) error {
	if err := a.checkExact(group); err != nil {
		return err
	}
	a.readRowInto(row, group)
	return nil
}

// SwapEntities exchanges rows i and j across every column and the
// metadata slice. Calling it twice with the same arguments is a no-op.
func (a *Archetype) SwapEntities(i, j int) {
	if i == j {
		return
	}
	for c := range a.columns {
		a.columns[c].swapRows(i, j)
	}
	a.entityMetadata[i], a.entityMetadata[j] = a.entityMetadata[j], a.entityMetadata[i]
}

// DropEntity invokes every column's drop handler on row, without
// touching entity count or row layout.
func (a *Archetype) DropEntity(row int) {
	for c := range a.columns {
		a.columns[c].drop(row)
	}
}

// DropEntities drops every live row and resets entity count to zero.
// Capacity is left allocated; column memory is never shrunk by
// deletion, only by an explicit ResizeCapacity/Dealloc.
func (a *Archetype) DropEntities() {
	for row := 0; row < int(a.entityCount); row++ {
		a.DropEntity(row)
	}
	a.entityCount = 0
}

// SwapDrop removes row: if row is the last live row it is dropped in
// place; otherwise the last row is swapped into row first, then
// dropped from its vacated slot. Reports whether a swap occurred and,
// if so, the handle that moved -- the caller's EntityRegistry must
// update that handle's row to row before any further lookup.
func (a *Archetype) SwapDrop(row int) (swapped bool, movedHandle EntityHandle) {
	last := int(a.entityCount) - 1
	if row == last {
		a.DropEntity(row)
		a.entityCount--
		return false, 0
	}
	movedHandle = a.entityMetadata[last].Handle
	a.SwapEntities(row, last)
	a.DropEntity(last)
	a.entityCount--
	return true, movedHandle
}

// SwapRemove behaves like SwapDrop but first copies row's components
// out into group (group's descriptor must equal this archetype's)
// instead of dropping them.
func (a *Archetype) SwapRemove(row int, group ComponentGroup) (swapped bool, movedHandle EntityHandle, err error) {
	if err := a.checkExact(group); err != nil {
		return false, 0, err
	}
	a.readRowInto(row, group)
	swapped, movedHandle = a.SwapDrop(row)
	return swapped, movedHandle, nil
}

// GetComponent returns the address of row's component with the given
// type id, or false if this archetype has no such column. Go pointers
// carry no const qualifier, so this single method serves both the
// read and the write access spec.md describes separately.
func (a *Archetype) GetComponent(row int, id ComponentTypeId) (unsafe.Pointer, bool) {
	idx, ok := a.descriptor.IndexOf(id)
	if !ok {
		return nil, false
	}
	return a.columns[idx].rowPtr(row), true
}

// GetComponent returns a typed pointer to row's T component, looked up
// by T's registered ComponentTypeId.
func GetComponent[T any](a *Archetype, row int) (*T, bool) {
	desc := descriptorForType(reflect.TypeFor[T]())
	ptr, ok := a.GetComponent(row, desc.ID)
	if !ok {
		return nil, false
	}
	return (*T)(ptr), true
}

// GetSlicesExact returns one columnView per component in group, in
// group's declaration order, each of length Len(). Fails if group's
// descriptor does not exactly equal this archetype's.
func (a *Archetype) GetSlicesExact(group ComponentGroup) ([]columnView, error) {
	if err := a.checkExact(group); err != nil {
		return nil, err
	}
	ids := group.declarationIDs()
	views := make([]columnView, len(ids))
	for i, id := range ids {
		idx, _ := a.descriptor.IndexOf(id)
		views[i] = a.columns[idx].view(int(a.entityCount))
	}
	return views, nil
}

// GetFuzzySlices returns one columnView per component in group, in
// group's declaration order, for a group whose descriptor is a strict
// subset of this archetype's. Matching walks both sorted id sequences
// with a single two-pointer merge in O(len(archetype)+len(group)),
// never a nested scan.
func (a *Archetype) GetFuzzySlices(group ComponentGroup) ([]columnView, error) {
	groupDesc := group.Descriptor()
	if !a.descriptor.IsSupersetOf(groupDesc) {
		return nil, InvalidDescriptorError{Reason: "group is not a subset of this archetype"}
	}
	aComps := a.descriptor.Components()
	gComps := groupDesc.Components()
	matched := make([]columnView, 0, len(gComps))
	i, j := 0, 0
	for i < len(aComps) && j < len(gComps) {
		switch {
		case aComps[i].ID == gComps[j].ID:
			matched = append(matched, a.columns[i].view(int(a.entityCount)))
			i++
			j++
		case aComps[i].ID < gComps[j].ID:
			i++
		default:
			j++
		}
	}
	return sortByDeclarationOrder(group.declarationIDs(), matched), nil
}

// CopyCommonComponents copies, for every component id present in both
// src's and dst's descriptors, src's srcRow value into dst's dstRow
// slot. Used by transition helpers when an entity moves from one
// archetype to another because a component was added or removed.
func (dst *Archetype) CopyCommonComponents(src *Archetype, srcRow, dstRow int) {
	for i, desc := range src.descriptor.Components() {
		dstIdx, ok := dst.descriptor.IndexOf(desc.ID)
		if !ok {
			continue
		}
		dst.columns[dstIdx].elem(dstRow).Set(src.columns[i].elem(srcRow))
	}
}

// ResizeCapacity changes capacity by delta. A resulting capacity <= 0
// deallocates the archetype outright (an explicit request, not an
// overflow). A resulting capacity at or beyond
// Config.MaxEntitiesPerArchetype returns CapacityExhaustedError and
// leaves every existing row untouched -- unlike the source this was
// distilled from, silo never silently deallocates live rows just
// because a resize target was too large.
func (a *Archetype) ResizeCapacity(delta int) error {
	newCap := int64(a.capacity) + int64(delta)
	if newCap <= 0 {
		a.Dealloc()
		return nil
	}
	if newCap >= int64(Config.MaxEntitiesPerArchetype()) {
		return CapacityExhaustedError{Reason: "resize would exceed max entities per archetype"}
	}
	a.reallocate(uint32(newCap))
	return nil
}

func (a *Archetype) reallocate(newCap uint32) {
	defer wrapAllocationPanic(fmt.Sprintf("reallocating archetype %v to capacity %d", a.descriptor.ID(), newCap))
	keep := a.entityCount
	if keep > newCap {
		keep = newCap
	}

	comps := a.descriptor.Components()
	newColumns := make([]column, len(comps))
	for i, desc := range comps {
		nc := newColumn(desc, int(newCap))
		if keep > 0 {
			reflect.Copy(nc.arr.Slice(0, int(keep)), a.columns[i].arr.Slice(0, int(keep)))
		}
		newColumns[i] = nc
	}
	a.columns = newColumns

	newMeta := make([]EntityMetadata, newCap)
	copy(newMeta, a.entityMetadata[:keep])
	a.entityMetadata = newMeta

	a.capacity = newCap
	if a.entityCount > keep {
		a.entityCount = keep
	}
}

// Dealloc drops every live row and releases all column and metadata
// storage, resetting capacity to zero. There is no manual free in Go;
// releasing means dropping the last reference and letting the
// collector reclaim the backing arrays.
func (a *Archetype) Dealloc() {
	a.DropEntities()
	comps := a.descriptor.Components()
	for i, desc := range comps {
		a.columns[i] = newColumn(desc, 0)
	}
	a.entityMetadata = nil
	a.capacity = 0
}
