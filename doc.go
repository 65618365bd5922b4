/*
Package silo implements the archetype storage core of an
archetype-based Entity-Component registry.

Silo groups entities by the exact set of component types they carry and
lays each group out as structure-of-arrays columns, so that iterating
entities with a given component combination touches only contiguous,
densely-packed memory.

Core Concepts:

  - ComponentDescriptor: identity plus size/align/drop for one component type.
  - ArchetypeDescriptor: a canonicalized, sorted set of component descriptors.
  - Archetype: columnar row storage for every entity sharing one ArchetypeDescriptor.
  - ArchetypeRegistry: the deduplicating catalogue that finds or creates archetypes
    and resolves add/remove-component transitions between them.

Silo is a storage engine, not a façade: entity id allocation and the
stable-handle-to-(archetype,row) map belong to a surrounding Registry
built on top of this package (see EntityRegistry in collaborators.go).
Silo only ever sees archetype indices and row numbers handed to it by
that caller.

Basic Usage:

	registry := Factory.NewArchetypeRegistry()

	position := FactoryNewComponentDescriptor[Position]()
	velocity := FactoryNewComponentDescriptor[Velocity]()

	descriptor, err := ArchetypeDescriptorFromUnsorted(position, velocity)
	if err != nil {
		// handle InvalidDescriptorError
	}

	_, archetype, err := registry.FindOrCreate(descriptor)
	if err != nil {
		// handle CapacityExhaustedError
	}

	group := NewGroup2(Position{X: 1}, Velocity{X: 2})
	row, err := archetype.PushEntity(EntityMetadata{Handle: 1}, group)

Silo is the storage engine underneath a higher-level Bappa-style ECS
façade, but also works standalone wherever an archetype table is needed.
*/
package silo
