//go:build silo_debug_assertions

package silo

import "testing"

func TestDebugAssertExactPanicsOnMismatch(t *testing.T) {
	registry := Factory.NewArchetypeRegistry()
	_, arche, _ := registry.FindOrCreate(NewGroup1(regA{}).Descriptor())

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic from the debug assertion on a mismatched descriptor")
		}
	}()
	arche.writeRowFrom(0, NewGroup1(regB{}))
}
