package memory

import (
	"fmt"

	"github.com/feltlabs/cairo-vm-core/pkg/field"
	"github.com/feltlabs/cairo-vm-core/pkg/vmerr"
)

// MaybeRelocatable is a VM word: exactly one of a field element or a
// relocatable address. It is a tagged struct rather than an interface or a
// sentinel-valued field - the field is a real domain, so it cannot double
// as an "absent" marker.
type MaybeRelocatable struct {
	felt        *field.Element
	relocatable *Relocatable
}

// NewFromFelt wraps a field element as a word.
func NewFromFelt(f field.Element) MaybeRelocatable {
	return MaybeRelocatable{felt: &f}
}

// NewFromRelocatable wraps a relocatable address as a word.
func NewFromRelocatable(r Relocatable) MaybeRelocatable {
	return MaybeRelocatable{relocatable: &r}
}

// GetFelt returns the wrapped field element, if any.
func (m MaybeRelocatable) GetFelt() (field.Element, bool) {
	if m.felt == nil {
		return field.Element{}, false
	}
	return *m.felt, true
}

// GetRelocatable returns the wrapped relocatable address, if any.
func (m MaybeRelocatable) GetRelocatable() (Relocatable, bool) {
	if m.relocatable == nil {
		return Relocatable{}, false
	}
	return *m.relocatable, true
}

// IsZero reports whether the word is "the" zero: the zero felt, or the
// relocatable pointing at offset 0 of segment 0 (the Jnz rule needs both).
func (m MaybeRelocatable) IsZero() bool {
	if f, ok := m.GetFelt(); ok {
		return f.IsZero()
	}
	if r, ok := m.GetRelocatable(); ok {
		return r.IsZero()
	}
	return false
}

// IsEqual compares by value, never by identity - required for the
// write-once equality check and for the AssertEq opcode assertion.
func (m MaybeRelocatable) IsEqual(o MaybeRelocatable) bool {
	if f1, ok := m.GetFelt(); ok {
		f2, ok2 := o.GetFelt()
		return ok2 && f1.Equal(f2)
	}
	if r1, ok := m.GetRelocatable(); ok {
		r2, ok2 := o.GetRelocatable()
		return ok2 && r1 == r2
	}
	return false
}

func (m MaybeRelocatable) String() string {
	if f, ok := m.GetFelt(); ok {
		return f.String()
	}
	if r, ok := m.GetRelocatable(); ok {
		return r.String()
	}
	return "<empty word>"
}

// Add dispatches Word + Word per the arithmetic rules: Felt+Felt is field
// addition, Relocatable+Felt is offset arithmetic, anything else is
// undefined.
func (m MaybeRelocatable) Add(o MaybeRelocatable) (MaybeRelocatable, error) {
	if f1, ok := m.GetFelt(); ok {
		if f2, ok2 := o.GetFelt(); ok2 {
			return NewFromFelt(f1.Add(f2)), nil
		}
		return MaybeRelocatable{}, vmerr.New(vmerr.TypeMismatch, "cannot add a relocatable to a felt")
	}
	if r1, ok := m.GetRelocatable(); ok {
		if f2, ok2 := o.GetFelt(); ok2 {
			newR, err := r1.AddFelt(f2)
			if err != nil {
				return MaybeRelocatable{}, err
			}
			return NewFromRelocatable(newR), nil
		}
		return MaybeRelocatable{}, vmerr.New(vmerr.TypeMismatch, "cannot add two relocatables")
	}
	return MaybeRelocatable{}, vmerr.New(vmerr.TypeMismatch, "empty word in addition")
}

// Sub dispatches Word - Word: Felt-Felt, Relocatable-Felt, and
// Relocatable-Relocatable (same segment only) are defined; everything else
// is a TypeMismatch.
func (m MaybeRelocatable) Sub(o MaybeRelocatable) (MaybeRelocatable, error) {
	if f1, ok := m.GetFelt(); ok {
		if f2, ok2 := o.GetFelt(); ok2 {
			return NewFromFelt(f1.Sub(f2)), nil
		}
		return MaybeRelocatable{}, vmerr.New(vmerr.TypeMismatch, "cannot subtract a relocatable from a felt")
	}
	if r1, ok := m.GetRelocatable(); ok {
		if f2, ok2 := o.GetFelt(); ok2 {
			newR, err := r1.SubFelt(f2)
			if err != nil {
				return MaybeRelocatable{}, err
			}
			return NewFromRelocatable(newR), nil
		}
		if r2, ok2 := o.GetRelocatable(); ok2 {
			diff, err := r1.SubRelocatable(r2)
			if err != nil {
				return MaybeRelocatable{}, err
			}
			return NewFromFelt(diff), nil
		}
	}
	return MaybeRelocatable{}, vmerr.New(vmerr.TypeMismatch, "empty word in subtraction")
}

// Mul is only defined for Felt * Felt.
func (m MaybeRelocatable) Mul(o MaybeRelocatable) (MaybeRelocatable, error) {
	f1, ok1 := m.GetFelt()
	f2, ok2 := o.GetFelt()
	if !ok1 || !ok2 {
		return MaybeRelocatable{}, vmerr.New(vmerr.TypeMismatch, "cannot multiply a relocatable")
	}
	return NewFromFelt(f1.Mul(f2)), nil
}

// Div is only defined for Felt / Felt; fails with DivisionByZero for a zero
// divisor.
func (m MaybeRelocatable) Div(o MaybeRelocatable) (MaybeRelocatable, error) {
	f1, ok1 := m.GetFelt()
	f2, ok2 := o.GetFelt()
	if !ok1 || !ok2 {
		return MaybeRelocatable{}, vmerr.New(vmerr.TypeMismatch, "cannot divide a relocatable")
	}
	res, err := f1.Div(f2)
	if err != nil {
		return MaybeRelocatable{}, err
	}
	return NewFromFelt(res), nil
}

// GoString supports %#v in test failure messages.
func (m MaybeRelocatable) GoString() string {
	return fmt.Sprintf("MaybeRelocatable(%s)", m.String())
}
