package silo

import (
	"reflect"
	"unsafe"
)

// Group1..Group6 are fixed-arity typed ComponentGroup façades, the
// stand-in for the compile-time tuple trait impls a macro or variadic
// generic would produce. They cover the common low-arity cases
// directly; DynamicGroup (see component_group.go) is the universal
// fallback for arities 7..MaxComponentsPerEntity and for call sites
// that don't know their arity until runtime. Arities 7-14 follow the
// identical pattern and are omitted here.

// Group1 holds a single component slot.
type Group1[T1 any] struct {
	V1 T1
}

// NewGroup1 builds a Group1 from its single value.
func NewGroup1[T1 any](v1 T1) *Group1[T1] {
	return &Group1[T1]{V1: v1}
}

// Descriptor implements ComponentGroup.
func (g *Group1[T1]) Descriptor() ArchetypeDescriptor {
	return groupLayoutFor(reflect.TypeFor[T1]()).descriptor
}

func (g *Group1[T1]) sortedPointers(dest *[MaxComponentsPerEntity]unsafe.Pointer) {
	layout := groupLayoutFor(reflect.TypeFor[T1]())
	dest[layout.toSorted[0]] = unsafe.Pointer(&g.V1)
}

func (g *Group1[T1]) declarationIDs() []ComponentTypeId {
	return groupLayoutFor(reflect.TypeFor[T1]()).ids
}

// Group2 holds two component slots.
type Group2[T1, T2 any] struct {
	V1 T1
	V2 T2
}

// NewGroup2 builds a Group2 from its values, in declaration order.
func NewGroup2[T1, T2 any](v1 T1, v2 T2) *Group2[T1, T2] {
	return &Group2[T1, T2]{V1: v1, V2: v2}
}

// Descriptor implements ComponentGroup.
func (g *Group2[T1, T2]) Descriptor() ArchetypeDescriptor {
	return groupLayoutFor(reflect.TypeFor[T1](), reflect.TypeFor[T2]()).descriptor
}

func (g *Group2[T1, T2]) sortedPointers(dest *[MaxComponentsPerEntity]unsafe.Pointer) {
	layout := groupLayoutFor(reflect.TypeFor[T1](), reflect.TypeFor[T2]())
	dest[layout.toSorted[0]] = unsafe.Pointer(&g.V1)
	dest[layout.toSorted[1]] = unsafe.Pointer(&g.V2)
}

func (g *Group2[T1, T2]) declarationIDs() []ComponentTypeId {
	return groupLayoutFor(reflect.TypeFor[T1](), reflect.TypeFor[T2]()).ids
}

// Group3 holds three component slots.
type Group3[T1, T2, T3 any] struct {
	V1 T1
	V2 T2
	V3 T3
}

// NewGroup3 builds a Group3 from its values, in declaration order.
func NewGroup3[T1, T2, T3 any](v1 T1, v2 T2, v3 T3) *Group3[T1, T2, T3] {
	return &Group3[T1, T2, T3]{V1: v1, V2: v2, V3: v3}
}

// Descriptor implements ComponentGroup.
func (g *Group3[T1, T2, T3]) Descriptor() ArchetypeDescriptor {
	return groupLayoutFor(reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3]()).descriptor
}

func (g *Group3[T1, T2, T3]) sortedPointers(dest *[MaxComponentsPerEntity]unsafe.Pointer) {
	layout := groupLayoutFor(reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3]())
	dest[layout.toSorted[0]] = unsafe.Pointer(&g.V1)
	dest[layout.toSorted[1]] = unsafe.Pointer(&g.V2)
	dest[layout.toSorted[2]] = unsafe.Pointer(&g.V3)
}

func (g *Group3[T1, T2, T3]) declarationIDs() []ComponentTypeId {
	return groupLayoutFor(reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3]()).ids
}

// Group4 holds four component slots.
type Group4[T1, T2, T3, T4 any] struct {
	V1 T1
	V2 T2
	V3 T3
	V4 T4
}

// NewGroup4 builds a Group4 from its values, in declaration order.
func NewGroup4[T1, T2, T3, T4 any](v1 T1, v2 T2, v3 T3, v4 T4) *Group4[T1, T2, T3, T4] {
	return &Group4[T1, T2, T3, T4]{V1: v1, V2: v2, V3: v3, V4: v4}
}

// Descriptor implements ComponentGroup.
func (g *Group4[T1, T2, T3, T4]) Descriptor() ArchetypeDescriptor {
	return groupLayoutFor(
		reflect.TypeFor[T1](), reflect.TypeFor[T2](),
		reflect.TypeFor[T3](), reflect.TypeFor[T4](),
	).descriptor
}

func (g *Group4[T1, T2, T3, T4]) sortedPointers(dest *[MaxComponentsPerEntity]unsafe.Pointer) {
	layout := groupLayoutFor(
		reflect.TypeFor[T1](), reflect.TypeFor[T2](),
		reflect.TypeFor[T3](), reflect.TypeFor[T4](),
	)
	dest[layout.toSorted[0]] = unsafe.Pointer(&g.V1)
	dest[layout.toSorted[1]] = unsafe.Pointer(&g.V2)
	dest[layout.toSorted[2]] = unsafe.Pointer(&g.V3)
	dest[layout.toSorted[3]] = unsafe.Pointer(&g.V4)
}

func (g *Group4[T1, T2, T3, T4]) declarationIDs() []ComponentTypeId {
	return groupLayoutFor(
		reflect.TypeFor[T1](), reflect.TypeFor[T2](),
		reflect.TypeFor[T3](), reflect.TypeFor[T4](),
	).ids
}

// Group5 holds five component slots.
type Group5[T1, T2, T3, T4, T5 any] struct {
	V1 T1
	V2 T2
	V3 T3
	V4 T4
	V5 T5
}

// NewGroup5 builds a Group5 from its values, in declaration order.
func NewGroup5[T1, T2, T3, T4, T5 any](v1 T1, v2 T2, v3 T3, v4 T4, v5 T5) *Group5[T1, T2, T3, T4, T5] {
	return &Group5[T1, T2, T3, T4, T5]{V1: v1, V2: v2, V3: v3, V4: v4, V5: v5}
}

// Descriptor implements ComponentGroup.
func (g *Group5[T1, T2, T3, T4, T5]) Descriptor() ArchetypeDescriptor {
	return groupLayoutFor(
		reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3](),
		reflect.TypeFor[T4](), reflect.TypeFor[T5](),
	).descriptor
}

func (g *Group5[T1, T2, T3, T4, T5]) sortedPointers(dest *[MaxComponentsPerEntity]unsafe.Pointer) {
	layout := groupLayoutFor(
		reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3](),
		reflect.TypeFor[T4](), reflect.TypeFor[T5](),
	)
	dest[layout.toSorted[0]] = unsafe.Pointer(&g.V1)
	dest[layout.toSorted[1]] = unsafe.Pointer(&g.V2)
	dest[layout.toSorted[2]] = unsafe.Pointer(&g.V3)
	dest[layout.toSorted[3]] = unsafe.Pointer(&g.V4)
	dest[layout.toSorted[4]] = unsafe.Pointer(&g.V5)
}

func (g *Group5[T1, T2, T3, T4, T5]) declarationIDs() []ComponentTypeId {
	return groupLayoutFor(
		reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3](),
		reflect.TypeFor[T4](), reflect.TypeFor[T5](),
	).ids
}

// Group6 holds six component slots.
type Group6[T1, T2, T3, T4, T5, T6 any] struct {
	V1 T1
	V2 T2
	V3 T3
	V4 T4
	V5 T5
	V6 T6
}

// NewGroup6 builds a Group6 from its values, in declaration order.
func NewGroup6[T1, T2, T3, T4, T5, T6 any](v1 T1, v2 T2, v3 T3, v4 T4, v5 T5, v6 T6) *Group6[T1, T2, T3, T4, T5, T6] {
	return &Group6[T1, T2, T3, T4, T5, T6]{V1: v1, V2: v2, V3: v3, V4: v4, V5: v5, V6: v6}
}

// Descriptor implements ComponentGroup.
func (g *Group6[T1, T2, T3, T4, T5, T6]) Descriptor() ArchetypeDescriptor {
	return groupLayoutFor(
		reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3](),
		reflect.TypeFor[T4](), reflect.TypeFor[T5](), reflect.TypeFor[T6](),
	).descriptor
}

func (g *Group6[T1, T2, T3, T4, T5, T6]) sortedPointers(dest *[MaxComponentsPerEntity]unsafe.Pointer) {
	layout := groupLayoutFor(
		reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3](),
		reflect.TypeFor[T4](), reflect.TypeFor[T5](), reflect.TypeFor[T6](),
	)
	dest[layout.toSorted[0]] = unsafe.Pointer(&g.V1)
	dest[layout.toSorted[1]] = unsafe.Pointer(&g.V2)
	dest[layout.toSorted[2]] = unsafe.Pointer(&g.V3)
	dest[layout.toSorted[3]] = unsafe.Pointer(&g.V4)
	dest[layout.toSorted[4]] = unsafe.Pointer(&g.V5)
	dest[layout.toSorted[5]] = unsafe.Pointer(&g.V6)
}

func (g *Group6[T1, T2, T3, T4, T5, T6]) declarationIDs() []ComponentTypeId {
	return groupLayoutFor(
		reflect.TypeFor[T1](), reflect.TypeFor[T2](), reflect.TypeFor[T3](),
		reflect.TypeFor[T4](), reflect.TypeFor[T5](), reflect.TypeFor[T6](),
	).ids
}
