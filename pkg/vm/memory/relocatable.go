package memory

import (
	"fmt"

	"github.com/feltlabs/cairo-vm-core/pkg/field"
	"github.com/feltlabs/cairo-vm-core/pkg/vmerr"
)

// Relocatable is a segmented address: (segment_index, offset), both
// non-negative once the VM actually dereferences them. Two Relocatables
// with equal fields are the same address - this type is used as a plain map
// key (see Memory), never compared by identity.
type Relocatable struct {
	SegmentIndex int
	Offset       int
}

func (r Relocatable) String() string {
	return fmt.Sprintf("%d:%d", r.SegmentIndex, r.Offset)
}

// AddInt returns r with n added to its offset. Fails with OffsetUnderflow
// if the resulting offset would be negative.
func (r Relocatable) AddInt(n int) (Relocatable, error) {
	newOffset := r.Offset + n
	if newOffset < 0 {
		return Relocatable{}, vmerr.Newf(vmerr.OffsetUnderflow, "offset %d + %d underflows", r.Offset, n)
	}
	return Relocatable{SegmentIndex: r.SegmentIndex, Offset: newOffset}, nil
}

// AddUint is AddInt for an already-non-negative displacement (instruction
// sizes, builtin cell counts).
func (r Relocatable) AddUint(n int) (Relocatable, error) {
	return r.AddInt(n)
}

// AddFelt adds a field element to r, reading the felt as a signed
// displacement (see field.Element.ToI64). Fails with TypeMismatch if the
// felt does not fit a machine int, or OffsetUnderflow if it drives the
// offset negative.
func (r Relocatable) AddFelt(f field.Element) (Relocatable, error) {
	n, ok := f.ToI64()
	if !ok {
		return Relocatable{}, vmerr.New(vmerr.TypeMismatch, "felt does not fit a relocatable offset")
	}
	return r.AddInt(int(n))
}

// SubFelt subtracts a field element from r (see AddFelt).
func (r Relocatable) SubFelt(f field.Element) (Relocatable, error) {
	return r.AddFelt(field.Zero().Sub(f))
}

// SubRelocatable returns the field element equal to r's offset minus o's
// offset. Requires both addresses share a segment.
func (r Relocatable) SubRelocatable(o Relocatable) (field.Element, error) {
	if r.SegmentIndex != o.SegmentIndex {
		return field.Element{}, vmerr.Newf(vmerr.SegmentMismatch, "cannot subtract relocatables across segments %d and %d", r.SegmentIndex, o.SegmentIndex)
	}
	return field.FromInt64(int64(r.Offset - o.Offset)), nil
}

// AddMaybeRelocatable adds a Word to r: the word must be a Felt (Relocatable
// + Relocatable is undefined, as in MaybeRelocatable.Add).
func (r Relocatable) AddMaybeRelocatable(m MaybeRelocatable) (Relocatable, error) {
	f, ok := m.GetFelt()
	if !ok {
		return Relocatable{}, vmerr.New(vmerr.TypeMismatch, "cannot add a relocatable to a relocatable")
	}
	return r.AddFelt(f)
}

// IsZero reports whether r is the zero offset of segment zero - the
// Jnz "dst is zero" rule treats this the same as a zero felt.
func (r Relocatable) IsZero() bool {
	return r.SegmentIndex == 0 && r.Offset == 0
}
