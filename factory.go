package silo

import "reflect"

// factory is the single blessed entry point for constructing silo's
// exported types, mirroring the teacher's factory pattern. Go does not
// support type parameters on methods, so the generic constructors
// (FactoryNewComponentDescriptor, NewGroup1..NewGroup6, NewDynamicGroup)
// stay free functions, exactly as the teacher's own FactoryNewComponent
// and FactoryNewCache do.
type factory struct{}

// Factory is the global factory instance for creating silo components.
var Factory factory

// NewArchetypeRegistry creates a new, empty ArchetypeRegistry.
func (f factory) NewArchetypeRegistry() *ArchetypeRegistry {
	return newArchetypeRegistry()
}

// FactoryNewComponentDescriptor registers (if not already registered)
// and returns the ComponentDescriptor for T.
func FactoryNewComponentDescriptor[T any]() ComponentDescriptor {
	return descriptorForType(reflect.TypeFor[T]())
}
