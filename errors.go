package silo

import "fmt"

// InvalidDescriptorError is returned when a component list cannot form
// a valid ArchetypeDescriptor: zero-length, a duplicate ComponentTypeId,
// or a length beyond MaxComponentsPerEntity.
type InvalidDescriptorError struct {
	Reason string
}

func (e InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid archetype descriptor: %s", e.Reason)
}

// CapacityExhaustedError is returned when an operation would exceed a
// configured ceiling: too many distinct archetypes, or too many rows
// in one archetype.
type CapacityExhaustedError struct {
	Reason string
}

func (e CapacityExhaustedError) Error() string {
	return fmt.Sprintf("capacity exhausted: %s", e.Reason)
}

// UnknownEntityError is returned by collaborators when a handle is not
// present in the EntityRegistry. Silo itself never raises this -- it
// has no notion of entity handles beyond what EntityMetadata carries --
// but the error kind is part of the façade contract in §6/§7.
type UnknownEntityError struct {
	Handle EntityHandle
}

func (e UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity: %v", e.Handle)
}

// AlreadyHasComponentError is returned when add_component targets a
// component the entity's archetype already carries.
type AlreadyHasComponentError struct {
	ComponentTypeID ComponentTypeId
}

func (e AlreadyHasComponentError) Error() string {
	return fmt.Sprintf("entity already has component type %d", e.ComponentTypeID)
}

// MissingComponentError is returned when remove_component targets a
// component the entity's archetype does not carry.
type MissingComponentError struct {
	ComponentTypeID ComponentTypeId
}

func (e MissingComponentError) Error() string {
	return fmt.Sprintf("entity is missing component type %d", e.ComponentTypeID)
}

// AllocationFailureError is raised when a column or metadata allocation
// fails during a resize. It always panics, wrapped in a bark trace
// (see wrapAllocationPanic in archetype.go) -- by the time this fires,
// a reallocation is partway through and column pointers may be in an
// undefined state, so there is no safe way to return it as a normal
// error and keep running.
type AllocationFailureError struct {
	Reason string
}

func (e AllocationFailureError) Error() string {
	return fmt.Sprintf("allocation failure: %s", e.Reason)
}

// ComponentCollisionError is raised (and only ever panics, wrapped in
// a bark trace) when two distinct component types fold to the same
// ComponentTypeId. This can only be detected the first time both types
// are registered in the same process, so it is fatal rather than a
// recoverable error -- there is no safe way to continue once two
// columns would alias the same id.
type ComponentCollisionError struct {
	ExistingName string
	NewName      string
	ID           ComponentTypeId
}

func (e ComponentCollisionError) Error() string {
	return fmt.Sprintf(
		"component type id collision: %q and %q both hash to id %d",
		e.ExistingName, e.NewName, e.ID,
	)
}
