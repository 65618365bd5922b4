//go:build !silo_debug_assertions

package silo

func debugAssertExact(a *Archetype, group ComponentGroup) {}
