package field_test

import (
	"reflect"
	"testing"

	"github.com/feltlabs/cairo-vm-core/pkg/field"
)

func TestFromHex(t *testing.T) {
	h_one := "1a"
	expected := field.FromUint64(26)

	result, err := field.FromHex(h_one)
	if err != nil {
		t.Fatalf("FromHex error: %s", err)
	}
	if result != expected {
		t.Errorf("TestFromHex failed. Expected: %v, Got: %v", expected, result)
	}
}

func TestFromDecString(t *testing.T) {
	s_one := "435"
	expected := field.FromUint64(435)

	result, err := field.FromDecString(s_one)
	if err != nil {
		t.Fatalf("FromDecString error: %s", err)
	}
	if result != expected {
		t.Errorf("TestFromDecString failed. Expected: %v, Got: %v", expected, result)
	}
}

func TestFromNegDecString(t *testing.T) {
	s_one := "-1"
	expected, err := field.FromHex("800000000000011000000000000000000000000000000000000000000000000")
	if err != nil {
		t.Fatalf("FromHex error: %s", err)
	}

	result, err := field.FromDecString(s_one)
	if err != nil {
		t.Fatalf("FromDecString error: %s", err)
	}
	if result != expected {
		t.Errorf("TestFromNegDecString failed. Expected: %v, Got: %v", expected, result)
	}
}

func TestToLeBytes(t *testing.T) {
	expected := [32]uint8{
		1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	actual := *field.One().ToLeBytes()

	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("TestToLeBytes failed. Expected: %v, Got: %v", expected, actual)
	}
}

func TestToBeBytes(t *testing.T) {
	expected := [32]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1,
	}
	actual := *field.One().ToBeBytes()

	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("TestToBeBytes failed. Expected: %v, Got: %v", expected, actual)
	}
}

func TestFromLeBytes(t *testing.T) {
	bytes := [32]uint8{
		1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	result := field.FromLeBytes(&bytes)

	if result != field.One() {
		t.Errorf("TestFromLeBytes failed. Expected 1, Got: %v", result)
	}
}

func TestFromBeBytes(t *testing.T) {
	bytes := [32]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1,
	}
	result := field.FromBeBytes(&bytes)

	if result != field.One() {
		t.Errorf("TestFromBeBytes failed. Expected 1, Got: %v", result)
	}
}

func TestFeltSub(t *testing.T) {
	f_one := field.One()
	expected := field.Zero()

	result := f_one.Sub(f_one)
	if result != expected {
		t.Errorf("TestFeltSub failed. Expected: %v, Got: %v", expected, result)
	}
}

func TestFeltAdd(t *testing.T) {
	f_zero := field.Zero()
	f_one := field.One()
	expected := field.One()

	result := f_zero.Add(f_one)
	if result != expected {
		t.Errorf("TestFeltAdd failed. Expected: %v, Got: %v", expected, result)
	}
}

func TestFeltAddWraps(t *testing.T) {
	// (p - 1) + 2 = p + 1 = 1 mod p
	pMinusOne := field.Zero().Sub(field.One())
	result := pMinusOne.Add(field.FromUint64(2))
	if result != field.One() {
		t.Errorf("TestFeltAddWraps failed. Expected: 1, Got: %v", result)
	}
}

func TestFeltMul1(t *testing.T) {
	f_one := field.One()
	expected := field.One()

	result := f_one.Mul(f_one)
	if result != expected {
		t.Errorf("TestFeltMul1 failed. Expected: %v, Got: %v", expected, result)
	}
}

func TestFeltMul0(t *testing.T) {
	f_one := field.One()
	f_zero := field.Zero()
	expected := field.Zero()

	result := f_zero.Mul(f_one)
	if result != expected {
		t.Errorf("TestFeltMul0 failed. Expected: %v, Got: %v", expected, result)
	}
}

func TestFeltMul9(t *testing.T) {
	f_three := field.FromUint64(3)
	expected := field.FromUint64(9)

	result := f_three.Mul(f_three)
	if result != expected {
		t.Errorf("TestFeltMul9 failed. Expected: %v, Got: %v", expected, result)
	}
}

func TestFeltDiv3(t *testing.T) {
	f_three := field.FromUint64(3)
	expected := field.FromUint64(1)

	result, err := f_three.Div(f_three)
	if err != nil {
		t.Fatalf("Div error: %s", err)
	}
	if result != expected {
		t.Errorf("TestFeltDiv3 failed. Expected: %v, Got: %v", expected, result)
	}
}

func TestFeltDiv4(t *testing.T) {
	f_four := field.FromUint64(4)
	f_two := field.FromUint64(2)
	expected := field.FromUint64(2)

	result, err := f_four.Div(f_two)
	if err != nil {
		t.Fatalf("Div error: %s", err)
	}
	if result != expected {
		t.Errorf("TestFeltDiv4 failed. Expected: %v, Got: %v", expected, result)
	}
}

func TestFeltDivByZero(t *testing.T) {
	f_four := field.FromUint64(4)

	_, err := f_four.Div(field.Zero())
	if err == nil {
		t.Errorf("TestFeltDivByZero failed. Expected a DivisionByZero error")
	}
}

func TestToU64Overflow(t *testing.T) {
	// p - 1 does not fit in 64 bits.
	pMinusOne := field.Zero().Sub(field.One())
	if _, ok := pMinusOne.ToU64(); ok {
		t.Errorf("TestToU64Overflow failed. Expected ToU64 to fail for p-1")
	}
}

func TestToI64Negative(t *testing.T) {
	negOne := field.Zero().Sub(field.One())
	v, ok := negOne.ToI64()
	if !ok || v != -1 {
		t.Errorf("TestToI64Negative failed. Expected -1, got %v (ok=%v)", v, ok)
	}
}
