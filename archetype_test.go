package silo

import (
	"errors"
	"testing"

	"github.com/TheBitDrifter/bark"
)

// Fixture component types shared across this package's test files,
// matching spec.md's concrete scenarios: TagA is a 1-byte tag, NumB a
// 4-byte int, NumC an 8-byte int, NumD a 2-byte int.
type TagA struct{ V byte }
type NumB struct{ V int32 }
type NumC struct{ V int64 }
type NumD struct{ V int16 }

// TestSpawnAndRead is scenario S1: spawning (A,B,C) and reading it
// back yields the exact values pushed, with entity_count == 1.
func TestSpawnAndRead(t *testing.T) {
	registry := Factory.NewArchetypeRegistry()
	group := NewGroup3(TagA{V: 1}, NumB{V: 42}, NumC{V: 7})

	_, arche, err := registry.FindOrCreate(group.Descriptor())
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	row, err := arche.PushEntity(EntityMetadata{Handle: 1}, group)
	if err != nil {
		t.Fatalf("PushEntity: %v", err)
	}
	if row != 0 {
		t.Fatalf("row = %d, want 0", row)
	}
	if arche.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", arche.Len())
	}

	out := &Group3[TagA, NumB, NumC]{}
	if err := arche.ReadComponentsExact(row, out); err != nil {
		t.Fatalf("ReadComponentsExact: %v", err)
	}
	if out.V1.V != 1 || out.V2.V != 42 || out.V3.V != 7 {
		t.Errorf("read back (%d,%d,%d), want (1,42,7)", out.V1.V, out.V2.V, out.V3.V)
	}
}

// TestPermutationInvariance is scenario S2 plus testable property 1:
// the archetype id and underlying storage are independent of the
// caller's declaration order.
func TestPermutationInvariance(t *testing.T) {
	g1 := NewGroup3(TagA{V: 1}, NumB{V: 42}, NumC{V: 7})
	g2 := NewGroup3(NumB{V: 42}, NumC{V: 7}, TagA{V: 1})

	if g1.Descriptor().ID() != g2.Descriptor().ID() {
		t.Fatalf("archetype ids differ across permutations: %v != %v", g1.Descriptor().ID(), g2.Descriptor().ID())
	}

	registry := Factory.NewArchetypeRegistry()
	_, arche, err := registry.FindOrCreate(g2.Descriptor())
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	row, err := arche.PushEntity(EntityMetadata{Handle: 1}, g2)
	if err != nil {
		t.Fatalf("PushEntity: %v", err)
	}

	query := NewGroup3[NumC, TagA, NumB](NumC{}, TagA{}, NumB{})
	if err := arche.ReadComponentsExact(row, query); err != nil {
		t.Fatalf("ReadComponentsExact: %v", err)
	}
	if query.V1.V != 7 || query.V2.V != 1 || query.V3.V != 42 {
		t.Errorf("read back (C=%d,A=%d,B=%d), want (7,1,42)", query.V1.V, query.V2.V, query.V3.V)
	}
}

// TestSwapDropMiddle is scenario S3: dropping the middle row of three
// swaps the last row into its place and reports the moved handle.
func TestSwapDropMiddle(t *testing.T) {
	registry := Factory.NewArchetypeRegistry()
	desc := NewGroup1(NumB{}).Descriptor()
	_, arche, err := registry.FindOrCreate(desc)
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	h1, h2, h3 := EntityHandle(1), EntityHandle(2), EntityHandle(3)
	r1, err := arche.PushEntity(EntityMetadata{Handle: h1}, NewGroup1(NumB{V: 10}))
	if err != nil {
		t.Fatalf("push h1: %v", err)
	}
	r2, err := arche.PushEntity(EntityMetadata{Handle: h2}, NewGroup1(NumB{V: 20}))
	if err != nil {
		t.Fatalf("push h2: %v", err)
	}
	_, err = arche.PushEntity(EntityMetadata{Handle: h3}, NewGroup1(NumB{V: 30}))
	if err != nil {
		t.Fatalf("push h3: %v", err)
	}

	swapped, moved := arche.SwapDrop(r2)
	if !swapped {
		t.Fatalf("expected a swap to occur")
	}
	if moved != h3 {
		t.Fatalf("moved handle = %v, want %v", moved, h3)
	}
	if arche.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", arche.Len())
	}

	b0, ok := GetComponent[NumB](arche, r1)
	if !ok || b0.V != 10 {
		t.Errorf("row %d = %+v, want V=10", r1, b0)
	}
	b1, ok := GetComponent[NumB](arche, r2)
	if !ok || b1.V != 30 {
		t.Errorf("row %d = %+v, want V=30 (h3's data)", r2, b1)
	}
}

// TestSwapDropLast confirms testable property 4's "no handle moves"
// branch: dropping the last row reports no swap.
func TestSwapDropLast(t *testing.T) {
	registry := Factory.NewArchetypeRegistry()
	desc := NewGroup1(NumB{}).Descriptor()
	_, arche, _ := registry.FindOrCreate(desc)

	r0, _ := arche.PushEntity(EntityMetadata{Handle: 1}, NewGroup1(NumB{V: 1}))
	swapped, moved := arche.SwapDrop(r0)
	if swapped {
		t.Fatalf("expected no swap when dropping the last row")
	}
	if moved != 0 {
		t.Fatalf("moved handle = %v, want zero value", moved)
	}
	if arche.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", arche.Len())
	}
}

// TestSwapEntitiesSymmetry is testable property 3: swapping the same
// pair of rows twice is a byte-level no-op.
func TestSwapEntitiesSymmetry(t *testing.T) {
	registry := Factory.NewArchetypeRegistry()
	group := NewGroup2(TagA{}, NumB{})
	_, arche, _ := registry.FindOrCreate(group.Descriptor())

	r0, _ := arche.PushEntity(EntityMetadata{Handle: 1}, NewGroup2(TagA{V: 1}, NumB{V: 100}))
	r1, _ := arche.PushEntity(EntityMetadata{Handle: 2}, NewGroup2(TagA{V: 2}, NumB{V: 200}))

	arche.SwapEntities(r0, r1)
	arche.SwapEntities(r0, r1)

	a0, _ := GetComponent[TagA](arche, r0)
	b0, _ := GetComponent[NumB](arche, r0)
	a1, _ := GetComponent[TagA](arche, r1)
	b1, _ := GetComponent[NumB](arche, r1)
	if a0.V != 1 || b0.V != 100 || a1.V != 2 || b1.V != 200 {
		t.Errorf("double swap was not a no-op: row0=%+v/%+v row1=%+v/%+v", a0, b0, a1, b1)
	}
}

// TestAddComponentTransition is scenario S4 and testable property 5:
// adding a component resolves a distinct destination archetype, and
// the shared columns survive the move intact.
func TestAddComponentTransition(t *testing.T) {
	registry := Factory.NewArchetypeRegistry()
	srcGroup := NewGroup2(TagA{V: 1}, NumB{V: 42})
	srcIdx, src, err := registry.FindOrCreate(srcGroup.Descriptor())
	if err != nil {
		t.Fatalf("FindOrCreate(src): %v", err)
	}
	srcRow, err := src.PushEntity(EntityMetadata{Handle: 1}, srcGroup)
	if err != nil {
		t.Fatalf("PushEntity(src): %v", err)
	}

	cDesc := FactoryNewComponentDescriptor[NumC]()
	_, destIdx, dest, err := registry.FindOrCreateAdding(srcIdx, cDesc)
	if err != nil {
		t.Fatalf("FindOrCreateAdding: %v", err)
	}
	if destIdx == srcIdx {
		t.Fatalf("expected a distinct destination archetype")
	}

	destRow, err := dest.AllocateRow(EntityMetadata{Handle: 1})
	if err != nil {
		t.Fatalf("AllocateRow(dest): %v", err)
	}
	dest.CopyCommonComponents(src, srcRow, destRow)

	cPtr, ok := GetComponent[NumC](dest, destRow)
	if !ok {
		t.Fatalf("expected a NumC column in the destination archetype")
	}
	*cPtr = NumC{V: 7}

	if swapped, _ := src.SwapDrop(srcRow); swapped {
		t.Fatalf("expected no swap removing the only row of the source archetype")
	}
	if src.Len() != 0 {
		t.Errorf("source archetype Len() = %d, want 0", src.Len())
	}

	gotA, _ := GetComponent[TagA](dest, destRow)
	gotB, _ := GetComponent[NumB](dest, destRow)
	gotC, _ := GetComponent[NumC](dest, destRow)
	if gotA.V != 1 || gotB.V != 42 || gotC.V != 7 {
		t.Errorf("destination row = (%v,%v,%v), want (1,42,7)", gotA, gotB, gotC)
	}
}

// TestGrowthDoubling is scenario S5: with a default allocation size of
// 2, five pushes grow capacity 2 -> 4 -> 8 and every row reads back.
func TestGrowthDoubling(t *testing.T) {
	original := Config.DefaultArchetypeAllocationSize()
	Config.SetDefaultArchetypeAllocationSize(2)
	defer Config.SetDefaultArchetypeAllocationSize(original)

	registry := Factory.NewArchetypeRegistry()
	group := NewGroup1(NumB{})
	_, arche, err := registry.FindOrCreate(group.Descriptor())
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	wantCaps := []int{2, 2, 4, 4, 8}
	for i := 0; i < 5; i++ {
		if _, err := arche.PushEntity(EntityMetadata{Handle: EntityHandle(i + 1)}, NewGroup1(NumB{V: int32(i)})); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
		if arche.Cap() != wantCaps[i] {
			t.Errorf("after push %d: Cap() = %d, want %d", i, arche.Cap(), wantCaps[i])
		}
	}
	for i := 0; i < 5; i++ {
		b, ok := GetComponent[NumB](arche, i)
		if !ok || b.V != int32(i) {
			t.Errorf("row %d = %+v, want V=%d", i, b, i)
		}
	}
}

// TestFuzzyQuery is scenario S6: a query over a strict subset of an
// archetype's columns returns exactly those columns, in request order,
// with no leakage from the columns not requested.
func TestFuzzyQuery(t *testing.T) {
	registry := Factory.NewArchetypeRegistry()
	full := NewGroup4(TagA{}, NumB{}, NumC{}, NumD{})
	_, arche, err := registry.FindOrCreate(full.Descriptor())
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	for i := 0; i < 4; i++ {
		g := NewGroup4(TagA{V: byte(i)}, NumB{V: int32(i * 10)}, NumC{V: int64(i * 100)}, NumD{V: int16(i * 1000)})
		if _, err := arche.PushEntity(EntityMetadata{Handle: EntityHandle(i + 1)}, g); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	fuzzy, err := NewDynamicGroup(new(NumC), new(TagA))
	if err != nil {
		t.Fatalf("NewDynamicGroup: %v", err)
	}
	views, err := arche.GetFuzzySlices(fuzzy)
	if err != nil {
		t.Fatalf("GetFuzzySlices: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("len(views) = %d, want 2", len(views))
	}

	cView, aView := views[0], views[1]
	if cView.Len != 4 || aView.Len != 4 {
		t.Fatalf("view lengths = (%d,%d), want (4,4)", cView.Len, aView.Len)
	}
	for row := 0; row < 4; row++ {
		c := (*NumC)(cView.At(row))
		a := (*TagA)(aView.At(row))
		if c.V != int64(row*100) || a.V != byte(row) {
			t.Errorf("row %d: C=%+v A=%+v", row, c, a)
		}
	}
}

// TestSwapRemoveYieldsValues confirms SwapRemove both moves the row
// like SwapDrop and hands the removed row's bytes back to the caller.
func TestSwapRemoveYieldsValues(t *testing.T) {
	registry := Factory.NewArchetypeRegistry()
	group := NewGroup2(TagA{}, NumB{})
	_, arche, _ := registry.FindOrCreate(group.Descriptor())

	h1, h2 := EntityHandle(1), EntityHandle(2)
	r1, _ := arche.PushEntity(EntityMetadata{Handle: h1}, NewGroup2(TagA{V: 1}, NumB{V: 10}))
	_, _ = arche.PushEntity(EntityMetadata{Handle: h2}, NewGroup2(TagA{V: 2}, NumB{V: 20}))

	out := &Group2[TagA, NumB]{}
	swapped, moved, err := arche.SwapRemove(r1, out)
	if err != nil {
		t.Fatalf("SwapRemove: %v", err)
	}
	if !swapped || moved != h2 {
		t.Fatalf("swapped=%v moved=%v, want true/%v", swapped, moved, h2)
	}
	if out.V1.V != 1 || out.V2.V != 10 {
		t.Errorf("removed values = %+v, want A=1,B=10", out)
	}
	if arche.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", arche.Len())
	}
	remaining, ok := GetComponent[TagA](arche, 0)
	if !ok || remaining.V != 2 {
		t.Errorf("remaining row A = %+v, want 2", remaining)
	}
}

// TestDealloc drops every live row and resets capacity to zero.
func TestDealloc(t *testing.T) {
	registry := Factory.NewArchetypeRegistry()
	group := NewGroup1(NumB{})
	_, arche, _ := registry.FindOrCreate(group.Descriptor())
	arche.PushEntity(EntityMetadata{Handle: 1}, NewGroup1(NumB{V: 1}))
	arche.PushEntity(EntityMetadata{Handle: 2}, NewGroup1(NumB{V: 2}))

	arche.Dealloc()
	if arche.Len() != 0 || arche.Cap() != 0 {
		t.Fatalf("after Dealloc: Len()=%d Cap()=%d, want 0/0", arche.Len(), arche.Cap())
	}
}

// TestResizeCapacityExhausted is the REDESIGN FLAG behavior: growing
// past Config.MaxEntitiesPerArchetype returns CapacityExhaustedError
// and leaves existing rows untouched, instead of silently
// deallocating them.
func TestResizeCapacityExhausted(t *testing.T) {
	originalAlloc := Config.DefaultArchetypeAllocationSize()
	originalMax := Config.MaxEntitiesPerArchetype()
	Config.SetDefaultArchetypeAllocationSize(2)
	Config.SetMaxEntitiesPerArchetype(4)
	defer Config.SetDefaultArchetypeAllocationSize(originalAlloc)
	defer Config.SetMaxEntitiesPerArchetype(originalMax)

	registry := Factory.NewArchetypeRegistry()
	group := NewGroup1(NumB{})
	_, arche, _ := registry.FindOrCreate(group.Descriptor())
	arche.PushEntity(EntityMetadata{Handle: 1}, NewGroup1(NumB{V: 99}))

	err := arche.ResizeCapacity(10)
	if _, ok := err.(CapacityExhaustedError); !ok {
		t.Fatalf("ResizeCapacity error = %v, want CapacityExhaustedError", err)
	}
	if arche.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (rows must survive a rejected resize)", arche.Len())
	}
	b, ok := GetComponent[NumB](arche, 0)
	if !ok || b.V != 99 {
		t.Errorf("surviving row = %+v, want V=99", b)
	}
}

// TestDescriptorMismatchIsAnError exercises, through PushEntity, the
// checkExact boundary that PushEntity/WriteEntity/ReadComponentsExact/
// GetSlicesExact share: a group whose descriptor doesn't match the
// archetype is rejected, never silently misinterpreted.
func TestDescriptorMismatchIsAnError(t *testing.T) {
	registry := Factory.NewArchetypeRegistry()
	_, arche, _ := registry.FindOrCreate(NewGroup1(NumB{}).Descriptor())

	_, err := arche.PushEntity(EntityMetadata{Handle: 1}, NewGroup2(TagA{}, NumB{}))
	if _, ok := err.(InvalidDescriptorError); !ok {
		t.Fatalf("PushEntity error = %v, want InvalidDescriptorError", err)
	}
}

// TestNewColumnWrapsAllocationPanic confirms newColumn turns a bad
// allocation request into a bark-traced AllocationFailureError instead
// of letting the bare reflect panic escape.
func TestNewColumnWrapsAllocationPanic(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a panic from a negative column capacity")
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("recovered value = %v (%T), want an error", r, r)
		}
		var alloc AllocationFailureError
		if !errors.As(err, &alloc) {
			t.Fatalf("recovered error = %v, want it to unwrap to AllocationFailureError", err)
		}
	}()
	newColumn(FactoryNewComponentDescriptor[NumB](), -1)
}

// TestWrapAllocationPanicDoesNotDoubleWrap confirms a panic that is
// already an AllocationFailureError (as newColumn would raise it)
// passes through a second wrapAllocationPanic call -- such as
// reallocate's own, further up the same call stack -- unchanged,
// instead of nesting a second AllocationFailureError around the first.
func TestWrapAllocationPanicDoesNotDoubleWrap(t *testing.T) {
	inner := bark.AddTrace(AllocationFailureError{Reason: "allocating column \"NumB\" at capacity -1: boom"})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected the original panic to propagate")
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("recovered value = %v (%T), want an error", r, r)
		}
		var alloc AllocationFailureError
		if !errors.As(err, &alloc) || alloc.Reason != "allocating column \"NumB\" at capacity -1: boom" {
			t.Fatalf("recovered error = %v, want the inner AllocationFailureError preserved verbatim", err)
		}
	}()
	defer wrapAllocationPanic("reallocating archetype")
	panic(inner)
}
