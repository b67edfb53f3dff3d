// Package memory implements the Cairo VM's segmented, write-once memory:
// Relocatable addresses, MaybeRelocatable words, and the Memory map itself.
package memory

import (
	"github.com/feltlabs/cairo-vm-core/pkg/vmerr"
)

// A Set to store Relocatable values
type AddressSet map[Relocatable]bool

func NewAddressSet() AddressSet {
	return make(AddressSet)
}

func (set AddressSet) Add(element Relocatable) {
	set[element] = true
}

func (set AddressSet) Contains(element Relocatable) bool {
	return set[element]
}

// A function that validates a memory address and returns a list of validated addresses
type ValidationRule func(*Memory, Relocatable) ([]Relocatable, error)

// Memory represents the Cairo VM's memory: write-once, segmented, and
// value-keyed. Keys are Relocatable values compared structurally - a plain
// map key, never object identity, so two Relocatables built separately but
// holding the same (segment, offset) always alias the same cell.
type Memory struct {
	data               map[Relocatable]MaybeRelocatable
	numSegments        int
	validationRules    map[int]ValidationRule
	validatedAddresses AddressSet
}

func NewMemory() *Memory {
	return &Memory{
		data:               make(map[Relocatable]MaybeRelocatable),
		validatedAddresses: NewAddressSet(),
		validationRules:    make(map[int]ValidationRule),
	}
}

func (m *Memory) NumSegments() int {
	return m.numSegments
}

// addSegment increments the segment count and returns the fresh segment's
// base address. Unexported: callers go through MemorySegmentManager.
func (m *Memory) addSegment() Relocatable {
	addr := Relocatable{SegmentIndex: m.numSegments, Offset: 0}
	m.numSegments++
	return addr
}

// Insert writes val at addr. Fails with SegmentOutOfBounds if the segment
// was never allocated, or WriteOnce if the cell already holds a different
// value. Re-inserting an equal value succeeds - the deduction cascade
// depends on this to re-derive a value already present without erroring.
func (m *Memory) Insert(addr Relocatable, val MaybeRelocatable) error {
	if addr.SegmentIndex < 0 || addr.SegmentIndex >= m.numSegments {
		return vmerr.Newf(vmerr.SegmentOutOfBounds, "segment %d is not allocated (have %d segments)", addr.SegmentIndex, m.numSegments)
	}

	if prev, ok := m.data[addr]; ok {
		if !prev.IsEqual(val) {
			return vmerr.Newf(vmerr.WriteOnce, "memory at %s is write-once: existing value %s differs from %s", addr, prev, val)
		}
		return m.validateAddress(addr)
	}

	m.data[addr] = val
	return m.validateAddress(addr)
}

// Get returns the stored word, or ok=false if the cell is empty - including
// when the address's segment was never allocated. That is not itself an
// error: a later opcode assertion is what turns an undefined operand into
// one.
func (m *Memory) Get(addr Relocatable) (MaybeRelocatable, bool) {
	val, ok := m.data[addr]
	return val, ok
}

// AddValidationRule registers rule to run on every address inserted into segmentIndex.
func (m *Memory) AddValidationRule(segmentIndex int, rule ValidationRule) {
	m.validationRules[segmentIndex] = rule
}

// validateAddress applies the validation rule for addr's segment, if any.
// Skips addresses already validated.
func (m *Memory) validateAddress(addr Relocatable) error {
	if addr.SegmentIndex < 0 || m.validatedAddresses.Contains(addr) {
		return nil
	}
	rule, ok := m.validationRules[addr.SegmentIndex]
	if !ok {
		return nil
	}
	validated, err := rule(m, addr)
	if err != nil {
		return err
	}
	for _, a := range validated {
		m.validatedAddresses.Add(a)
	}
	return nil
}

// ValidateExistingMemory (re-)applies validation rules to every memory
// address, skipping ones already validated. Useful after a builtin
// validation rule is registered on a segment that already has data.
func (m *Memory) ValidateExistingMemory() error {
	for addr := range m.data {
		if err := m.validateAddress(addr); err != nil {
			return err
		}
	}
	return nil
}
