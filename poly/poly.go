// Package poly evaluates and interpolates polynomials over a prime field.
//
// A polynomial of degree k-1 is represented by its k coefficients, constant
// term first: f(x) = c0 + c1*x + ... + c(k-1)*x^(k-1).
package poly

import (
	"errors"
	"fmt"

	"github.com/ppopth/secret-image/field"
)

// ErrDegenerateSystem is returned when the interpolation points do not
// determine a unique polynomial: repeated x-values, or more points than the
// field has distinct non-zero elements.
var ErrDegenerateSystem = errors.New("poly: degenerate interpolation system")

// Point is a pair (x, y) on a polynomial
type Point struct {
	X int64
	Y int64
}

// Evaluate evaluates the polynomial at x using Horner's method.
func Evaluate(coeffs []field.Element, x field.Element) field.Element {
	if len(coeffs) == 0 {
		return x.Sub(x)
	}

	// ((c_n*x + c_{n-1})*x + ... + c_1)*x + c_0
	result := coeffs[len(coeffs)-1]
	for i := len(coeffs) - 2; i >= 0; i-- {
		result = result.Mul(x).Add(coeffs[i])
	}
	return result
}

// Vandermonde builds the len(xs)×degree matrix whose row i is
// [x_i^0, x_i^1, ..., x_i^(degree-1)].
func Vandermonde(xs []field.Element, degree int, f field.Field) *field.Matrix {
	m := field.NewMatrix(len(xs), degree, f)
	for i, x := range xs {
		power := f.One()
		for j := 0; j < degree; j++ {
			m.Set(i, j, power)
			power = power.Mul(x)
		}
	}
	return m
}

// Interpolate returns the k coefficients of the unique polynomial of degree
// k-1 passing through the k given points. Coordinates are reduced into the
// field first. The system [V | y] is solved by Gauss-Jordan elimination and
// the solution is read from the last column.
func Interpolate(points []Point, f field.Field) ([]field.Element, error) {
	k := len(points)
	if k == 0 {
		return nil, fmt.Errorf("%w: no points", ErrDegenerateSystem)
	}

	xs := make([]field.Element, k)
	ys := field.NewMatrix(k, 1, f)
	for i, p := range points {
		xs[i] = f.Reduce(p.X)
		ys.Set(i, 0, f.Reduce(p.Y))
	}

	system, err := Vandermonde(xs, k, f).AppendColumns(ys)
	if err != nil {
		return nil, err
	}
	if err := system.ReducedRowEchelonForm(); err != nil {
		return nil, err
	}
	if !system.IsIdentity(k) {
		return nil, fmt.Errorf("%w: %d points do not have pairwise distinct x-values mod %d", ErrDegenerateSystem, k, f.Order())
	}

	return system.Column(k), nil
}

// Solve is Interpolate over the prime field of the given modulus, with plain
// integer coefficients.
func Solve(points []Point, modulus int64) ([]int64, error) {
	f, err := field.NewPrimeField(modulus)
	if err != nil {
		return nil, err
	}
	coeffs, err := Interpolate(points, f)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(coeffs))
	for i, c := range coeffs {
		out[i] = c.Int64()
	}
	return out, nil
}
