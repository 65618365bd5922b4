package silo

// EntityRegistry is the external mapping from a stable EntityHandle to
// its current (archetype, row) location. It is implemented by the
// Registry façade, not by this package. This package never calls
// Relocate itself: SwapDrop and SwapRemove return whether a row
// migrated and the moved handle (read from EntityMetadata), and the
// caller must pass that to Relocate before any further lookup on the
// moved handle.
type EntityRegistry interface {
	Allocate() EntityHandle
	Free(handle EntityHandle)
	Locate(handle EntityHandle) (archetype ArchetypeIndex, row int, ok bool)
	Relocate(handle EntityHandle, archetype ArchetypeIndex, row int)
}

// ShardRegistry is an optional second-level partitioning of an
// archetype's rows into fixed-size chunks. An Archetype only stores
// the [FirstShardIndex, LastShardIndex] range; it never interprets it.
// Implemented by a façade package, not by this one.
type ShardRegistry interface {
	Range(first, last uint32) ShardRange
}

// ShardRange is a forward-iterable, contiguous index range into a
// ShardRegistry.
type ShardRange interface {
	Next() (index uint32, ok bool)
}
