// Package builtins declares the extension point the VM core calls into for
// builtin-backed memory cells (range-check, Pedersen, ...). Concrete
// builtins are out of this core's scope - hint and builtin *execution* is a
// Non-goal - but the VM still owns the hook so a caller assembling a full
// runner can register real builtins without touching vm_core.go.
package builtins

import "github.com/feltlabs/cairo-vm-core/pkg/vm/memory"

// BuiltinRunner is implemented by a concrete builtin (range-check, Pedersen,
// ...). The VM consults the builtin whose segment owns an address before
// falling back to its own operand deduction.
type BuiltinRunner interface {
	// Base returns the first address of the builtin's memory segment.
	Base() memory.Relocatable
	// Name returns the builtin's name.
	Name() string
	// InitializeSegments creates the builtin's memory segment and records its base.
	InitializeSegments(*memory.MemorySegmentManager)
	// InitialStack returns the builtin's initial stack contents.
	InitialStack() []memory.MaybeRelocatable
	// DeduceMemoryCell attempts to deduce the value of addr. Returns
	// (nil, nil) when the builtin has no deduction for this cell, a value
	// and nil on a successful deduction, or nil and an error if the
	// deduction itself is invalid (e.g. malformed Pedersen input).
	DeduceMemoryCell(addr memory.Relocatable, mem *memory.Memory) (*memory.MaybeRelocatable, error)
	// AddValidationRule registers the builtin's memory validation rule.
	AddValidationRule(*memory.Memory)
}
