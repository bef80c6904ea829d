package field

import (
	"fmt"
	"strconv"
)

// PrimeField represents a prime finite field F_p for word-sized p
type PrimeField struct {
	p int64 // the prime modulus
}

// NewPrimeField creates a new prime field. Primality of p is not checked up
// front; a composite modulus surfaces as a DomainError from Inv.
func NewPrimeField(p int64) (*PrimeField, error) {
	if p < 2 || p > 1<<31 {
		return nil, fmt.Errorf("field: invalid modulus %d", p)
	}
	return &PrimeField{p: p}, nil
}

// MustPrimeField is like NewPrimeField but panics on an invalid modulus
func MustPrimeField(p int64) *PrimeField {
	f, err := NewPrimeField(p)
	if err != nil {
		panic(err)
	}
	return f
}

// PrimeFieldElement represents an element in a prime field
type PrimeFieldElement struct {
	value int64       // element value in range [0, p-1]
	field *PrimeField // reference to parent field
}

// Zero returns the additive identity element (0)
func (f *PrimeField) Zero() Element {
	return &PrimeFieldElement{value: 0, field: f}
}

// One returns the multiplicative identity element (1)
func (f *PrimeField) One() Element {
	return &PrimeFieldElement{value: 1, field: f}
}

// Element returns v as an element, rejecting values outside [0, p)
func (f *PrimeField) Element(v int64) (Element, error) {
	if v < 0 || v >= f.p {
		return nil, &DomainError{Op: "element", Value: v, Modulus: f.p, Reason: "not an element of this field"}
	}
	return &PrimeFieldElement{value: v, field: f}, nil
}

// Reduce returns v mod p, normalized into [0, p)
func (f *PrimeField) Reduce(v int64) Element {
	v %= f.p
	if v < 0 {
		v += f.p
	}
	return &PrimeFieldElement{value: v, field: f}
}

// Order returns the order (size) of the field, which is p for a prime field
func (f *PrimeField) Order() int64 {
	return f.p
}

// Modulus is an alias of Order that reads better at call sites doing modular arithmetic
func (f *PrimeField) Modulus() int64 {
	return f.p
}

func (e *PrimeFieldElement) other(op string, b Element) *PrimeFieldElement {
	other, ok := b.(*PrimeFieldElement)
	if !ok || other.field.p != e.field.p {
		panic(&DomainError{Op: op, Value: b.Int64(), Modulus: e.field.p, Reason: "incompatible field elements"})
	}
	return other
}

// Add returns e + b in the field
func (e *PrimeFieldElement) Add(b Element) Element {
	other := e.other("add", b)
	return &PrimeFieldElement{value: (e.value + other.value) % e.field.p, field: e.field}
}

// Sub returns e - b in the field
func (e *PrimeFieldElement) Sub(b Element) Element {
	other := e.other("sub", b)
	return &PrimeFieldElement{value: (e.value - other.value + e.field.p) % e.field.p, field: e.field}
}

// Mul returns e * b in the field
func (e *PrimeFieldElement) Mul(b Element) Element {
	other := e.other("mul", b)
	return &PrimeFieldElement{value: e.value * other.value % e.field.p, field: e.field}
}

// Neg returns -e in the field
func (e *PrimeFieldElement) Neg() Element {
	return &PrimeFieldElement{value: (e.field.p - e.value) % e.field.p, field: e.field}
}

// Inv returns the multiplicative inverse of e using the extended Euclidean
// algorithm. It fails for zero, and for any element whose gcd with the
// modulus is not 1, which only happens when the modulus is composite.
func (e *PrimeFieldElement) Inv() (Element, error) {
	if e.value == 0 {
		return nil, &DomainError{Op: "reciprocal", Value: 0, Modulus: e.field.p, Reason: "reciprocal of zero"}
	}

	f, g := e.field.p, e.value
	a, b := int64(0), int64(1)
	for g != 0 {
		q := f / g
		f, g = g, f%g
		a, b = b, a-q*b
	}
	if f != 1 {
		return nil, &DomainError{Op: "reciprocal", Value: e.value, Modulus: e.field.p, Reason: "modulus is not prime"}
	}

	return e.field.Reduce(a), nil
}

// IsZero returns true if e equals zero
func (e *PrimeFieldElement) IsZero() bool {
	return e.value == 0
}

// Equal returns true if e equals b
func (e *PrimeFieldElement) Equal(b Element) bool {
	other, ok := b.(*PrimeFieldElement)
	if !ok {
		return false
	}
	return e.field.p == other.field.p && e.value == other.value
}

// Clone returns a copy of e
func (e *PrimeFieldElement) Clone() Element {
	return &PrimeFieldElement{value: e.value, field: e.field}
}

// Int64 returns the underlying value
func (e *PrimeFieldElement) Int64() int64 {
	return e.value
}

// String returns the string representation of e
func (e *PrimeFieldElement) String() string {
	return strconv.FormatInt(e.value, 10)
}
