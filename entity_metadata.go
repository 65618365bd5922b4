package silo

// EntityHandle is the stable identifier a surrounding EntityRegistry
// hands out to callers. Silo never allocates or interprets handles; it
// only stores whichever value the caller supplied at push time and
// reports it back when a row migrates (see EntityMetadata and
// Archetype.SwapDrop).
type EntityHandle uint64

// EntityMetadata is the per-row bookkeeping an Archetype owns. It is
// swapped whenever rows swap, so the surrounding EntityRegistry must
// observe any row migration reported by SwapDrop/SwapRemove and
// update its (archetype, row) map before any further lookup.
type EntityMetadata struct {
	Handle EntityHandle
}
