package field

import (
	"errors"
	"fmt"
)

// Element represents an element in a finite field
type Element interface {
	// Add returns a + b in the field
	Add(b Element) Element

	// Sub returns a - b in the field
	Sub(b Element) Element

	// Mul returns a * b in the field
	Mul(b Element) Element

	// Neg returns the additive inverse of a
	Neg() Element

	// Inv returns the multiplicative inverse of a
	Inv() (Element, error)

	// IsZero returns true if the element is the zero element
	IsZero() bool

	// Equal returns true if two elements are equal
	Equal(b Element) bool

	// Clone returns a copy of the element
	Clone() Element

	// Int64 returns the canonical representative in [0, order)
	Int64() int64

	// String returns the string representation of the element
	String() string
}

// Field represents a finite field
type Field interface {
	// Zero returns the zero element of the field
	Zero() Element

	// One returns the one element of the field
	One() Element

	// Element returns v as a field element. Values outside [0, order) are
	// rejected with a DomainError.
	Element(v int64) (Element, error)

	// Reduce maps any integer into the field
	Reduce(v int64) Element

	// Order returns the number of elements of the field
	Order() int64
}

// ErrDomain matches every DomainError with errors.Is.
var ErrDomain = errors.New("field: value outside the field domain")

// DomainError reports a field operation applied to an input it is not
// defined for: a value outside [0, modulus), the reciprocal of zero, or a
// modulus that turns out not to be prime.
type DomainError struct {
	Op      string
	Value   int64
	Modulus int64
	Reason  string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("field: %s(%d) mod %d: %s", e.Op, e.Value, e.Modulus, e.Reason)
}

func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}
