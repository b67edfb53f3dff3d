// Package field implements the Cairo prime field element (Felt), the word
// type of the VM: the unique residue in [0, p) for
//
//	p = 2^251 + 17*2^192 + 1
//
// Element is backed by github.com/consensys/gnark-crypto's stark-curve base
// field type - the same curve StarkNet (and therefore Cairo) uses, so its
// modulus is this exact prime without any hand-rolled reduction.
package field

import (
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"

	"github.com/feltlabs/cairo-vm-core/pkg/vmerr"
)

// Element is an immutable element of the Cairo prime field. The zero value
// is the field's zero element.
type Element struct {
	inner fp.Element
}

// Modulus returns a fresh copy of p.
func Modulus() *big.Int {
	return fp.Modulus()
}

// Zero returns the additive identity.
func Zero() Element {
	return Element{}
}

// One returns the multiplicative identity.
func One() Element {
	var e Element
	e.inner.SetOne()
	return e
}

// FromUint64 reduces v mod p. Since v is already non-negative and p is much
// larger than 2^64, this never wraps.
func FromUint64(v uint64) Element {
	var e Element
	e.inner.SetUint64(v)
	return e
}

// FromInt64 reduces v mod p, folding negative values into [0, p): construction
// from any integer i yields i mod p.
func FromInt64(v int64) Element {
	return FromBigInt(big.NewInt(v))
}

// FromBigInt reduces v mod p via Euclidean division, so the result always
// lands in [0, p) regardless of gnark-crypto's own handling of negative
// big.Int inputs.
func FromBigInt(v *big.Int) Element {
	reduced := new(big.Int).Mod(v, Modulus())
	var e Element
	e.inner.SetBigInt(reduced)
	return e
}

// FromDecString parses a base-10 (optionally signed) integer string.
func FromDecString(s string) (Element, error) {
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Element{}, vmerr.Newf(vmerr.InstructionEncodingError, "invalid decimal string %q", s)
	}
	return FromBigInt(bi), nil
}

// FromHex parses a hex string, with or without a leading "0x".
func FromHex(s string) (Element, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	bi, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return Element{}, vmerr.Newf(vmerr.InstructionEncodingError, "invalid hex string %q", s)
	}
	return FromBigInt(bi), nil
}

// FromLeBytes interprets bytes as a little-endian integer mod p.
func FromLeBytes(bytes *[32]byte) Element {
	be := *bytes
	for i, j := 0, len(be)-1; i < j; i, j = i+1, j-1 {
		be[i], be[j] = be[j], be[i]
	}
	var e Element
	e.inner.SetBytes(be[:])
	return e
}

// FromBeBytes interprets bytes as a big-endian integer mod p.
func FromBeBytes(bytes *[32]byte) Element {
	var e Element
	e.inner.SetBytes(bytes[:])
	return e
}

// ToLeBytes returns the little-endian 32-byte representation.
func (a Element) ToLeBytes() *[32]byte {
	be := a.inner.Bytes()
	for i, j := 0, len(be)-1; i < j; i, j = i+1, j-1 {
		be[i], be[j] = be[j], be[i]
	}
	return &be
}

// ToBeBytes returns the big-endian 32-byte representation.
func (a Element) ToBeBytes() *[32]byte {
	be := a.inner.Bytes()
	return &be
}

// IsZero reports whether a is the additive identity.
func (a Element) IsZero() bool {
	return a.inner.IsZero()
}

// Equal reports value equality, not identity.
func (a Element) Equal(b Element) bool {
	return a.inner.Equal(&b.inner)
}

// Add returns a + b mod p.
func (a Element) Add(b Element) Element {
	var r Element
	r.inner.Add(&a.inner, &b.inner)
	return r
}

// Sub returns a - b mod p.
func (a Element) Sub(b Element) Element {
	var r Element
	r.inner.Sub(&a.inner, &b.inner)
	return r
}

// Mul returns a * b mod p.
func (a Element) Mul(b Element) Element {
	var r Element
	r.inner.Mul(&a.inner, &b.inner)
	return r
}

// Div returns a / b mod p (a times the modular inverse of b). Fails with
// DivisionByZero if b is zero.
func (a Element) Div(b Element) (Element, error) {
	if b.IsZero() {
		return Element{}, vmerr.New(vmerr.DivisionByZero, "division by zero felt")
	}
	var r Element
	r.inner.Div(&a.inner, &b.inner)
	return r, nil
}

// ToU64 succeeds iff a fits in 64 bits; used only by instruction decoding.
func (a Element) ToU64() (uint64, bool) {
	var bi big.Int
	a.inner.BigInt(&bi)
	if !bi.IsUint64() {
		return 0, false
	}
	return bi.Uint64(), true
}

// ToI64 interprets a as a signed integer: values in the upper half of the
// field (closer to p than to 0) are read back as negative, via p - a. Used
// when a Relocatable is offset by a Felt (JumpRel targets, pointer
// arithmetic) where the field element stands in for a signed displacement.
func (a Element) ToI64() (int64, bool) {
	var bi big.Int
	a.inner.BigInt(&bi)
	half := new(big.Int).Rsh(Modulus(), 1)
	if bi.Cmp(half) > 0 {
		bi.Sub(&bi, Modulus())
	}
	if !bi.IsInt64() {
		return 0, false
	}
	return bi.Int64(), true
}

// String renders the canonical decimal representation.
func (a Element) String() string {
	return a.inner.String()
}
