package field

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDimensionMismatch is returned when two matrices cannot be combined.
	ErrDimensionMismatch = errors.New("field: matrix dimensions mismatch")

	// ErrRaggedMatrix is returned when rows of a matrix have different lengths.
	ErrRaggedMatrix = errors.New("field: all rows must have the same number of columns")

	// ErrNilElement is returned when a matrix is built with an uninitialized element.
	ErrNilElement = errors.New("field: matrix element is nil")

	// ErrNotSquare is returned by operations that need a square matrix.
	ErrNotSquare = errors.New("field: matrix is not square")

	// ErrSingularMatrix is returned when a matrix has no inverse.
	ErrSingularMatrix = errors.New("field: matrix is not invertible")
)

// Matrix is a mutable rows×cols grid of field elements stored row-major.
// Dimensions are fixed at construction; row and column indices out of range
// panic the same way slice indexing does.
type Matrix struct {
	field Field
	data  [][]Element
	cols  int
}

// NewMatrix creates a rows×cols zero matrix over the field
func NewMatrix(rows, cols int, field Field) *Matrix {
	data := make([][]Element, rows)
	for i := range data {
		data[i] = make([]Element, cols)
		for j := range data[i] {
			data[i][j] = field.Zero()
		}
	}
	return &Matrix{field: field, data: data, cols: cols}
}

// NewMatrixFromRows creates a matrix from row slices. The rows are deep copied.
func NewMatrixFromRows(rows [][]Element, field Field) (*Matrix, error) {
	if field == nil {
		return nil, fmt.Errorf("field: matrix needs a field")
	}
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	data := make([][]Element, len(rows))
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrRaggedMatrix, i, len(row), cols)
		}
		data[i] = make([]Element, cols)
		for j, elem := range row {
			if elem == nil {
				return nil, fmt.Errorf("%w: at (%d, %d)", ErrNilElement, i, j)
			}
			data[i][j] = elem.Clone()
		}
	}
	return &Matrix{field: field, data: data, cols: cols}, nil
}

// Identity creates an n×n identity matrix over the given field
func Identity(n int, field Field) *Matrix {
	m := NewMatrix(n, n, field)
	for i := 0; i < n; i++ {
		m.data[i][i] = field.One()
	}
	return m
}

// Field returns the field the matrix is defined over
func (m *Matrix) Field() Field { return m.field }

// Rows returns the number of rows
func (m *Matrix) Rows() int { return len(m.data) }

// Cols returns the number of columns
func (m *Matrix) Cols() int { return m.cols }

// Get returns the element at (row, col)
func (m *Matrix) Get(row, col int) Element {
	return m.data[row][col]
}

// Set stores val at (row, col)
func (m *Matrix) Set(row, col int, val Element) {
	if val == nil {
		panic(ErrNilElement)
	}
	m.data[row][col] = val
}

// Row returns a copy of a row
func (m *Matrix) Row(i int) []Element {
	return append([]Element(nil), m.data[i]...)
}

// Column returns a copy of a column
func (m *Matrix) Column(j int) []Element {
	if j < 0 || j >= m.cols {
		panic(fmt.Sprintf("field: column %d out of range [0, %d)", j, m.cols))
	}
	col := make([]Element, len(m.data))
	for i := range m.data {
		col[i] = m.data[i][j]
	}
	return col
}

// Clone returns a deep copy of the matrix
func (m *Matrix) Clone() *Matrix {
	c, _ := NewMatrixFromRows(m.data, m.field)
	c.cols = m.cols
	return c
}

// Transpose returns a new cols×rows matrix
func (m *Matrix) Transpose() *Matrix {
	t := NewMatrix(m.cols, len(m.data), m.field)
	for i := range m.data {
		for j := range m.data[i] {
			t.data[j][i] = m.data[i][j]
		}
	}
	return t
}

// SwapRows exchanges two rows
func (m *Matrix) SwapRows(row0, row1 int) {
	m.data[row0], m.data[row1] = m.data[row1], m.data[row0]
}

// ScaleRow multiplies every element of a row by factor
func (m *Matrix) ScaleRow(row int, factor Element) {
	r := m.data[row]
	for j := range r {
		r[j] = r[j].Mul(factor)
	}
}

// AddScaledRow adds factor times row src to row dest
func (m *Matrix) AddScaledRow(src, dest int, factor Element) {
	s, d := m.data[src], m.data[dest]
	for j := range d {
		d[j] = d[j].Add(s[j].Mul(factor))
	}
}

// AppendColumns returns [m | other]. Both matrices need the same row count.
func (m *Matrix) AppendColumns(other *Matrix) (*Matrix, error) {
	if other == nil || other.Rows() != m.Rows() {
		return nil, fmt.Errorf("%w: cannot append columns of a matrix with a different row count", ErrDimensionMismatch)
	}
	out := NewMatrix(m.Rows(), m.cols+other.cols, m.field)
	for i := range m.data {
		copy(out.data[i], m.data[i])
		copy(out.data[i][m.cols:], other.data[i])
	}
	return out, nil
}

// AppendRows returns m stacked on top of other. Both matrices need the same column count.
func (m *Matrix) AppendRows(other *Matrix) (*Matrix, error) {
	if other == nil || other.cols != m.cols {
		return nil, fmt.Errorf("%w: cannot append rows of a matrix with a different column count", ErrDimensionMismatch)
	}
	rows := make([][]Element, 0, m.Rows()+other.Rows())
	rows = append(rows, m.data...)
	rows = append(rows, other.data...)
	out, err := NewMatrixFromRows(rows, m.field)
	if err != nil {
		return nil, err
	}
	out.cols = m.cols
	return out, nil
}

// Multiply computes m × other over the field.
// m is r×n, other is n×p, result is r×p
func (m *Matrix) Multiply(other *Matrix) (*Matrix, error) {
	if other == nil {
		return nil, fmt.Errorf("%w: nil operand", ErrDimensionMismatch)
	}
	if m.cols != other.Rows() {
		return nil, fmt.Errorf("%w: %d×%d times %d×%d", ErrDimensionMismatch, m.Rows(), m.cols, other.Rows(), other.cols)
	}

	out := NewMatrix(m.Rows(), other.cols, m.field)
	for i := range out.data {
		for j := 0; j < other.cols; j++ {
			sum := m.field.Zero()
			for k := 0; k < m.cols; k++ {
				sum = sum.Add(m.data[i][k].Mul(other.data[k][j]))
			}
			out.data[i][j] = sum
		}
	}
	return out, nil
}

// ReducedRowEchelonForm converts the matrix in place to reduced row echelon
// form with Gauss-Jordan elimination. Columns without a pivot are skipped,
// so rank-deficient matrices are reduced as far as they go. The only failure
// is a field operation failing, which for a prime field means the modulus is
// not prime.
func (m *Matrix) ReducedRowEchelonForm() error {
	rows := m.Rows()

	// Forward pass: row echelon form with unit pivots
	numPivots := 0
	for col := 0; col < m.cols && numPivots < rows; col++ {
		// Find pivot
		pivot := -1
		for i := numPivots; i < rows; i++ {
			if !m.data[i][col].IsZero() {
				pivot = i
				break
			}
		}
		if pivot == -1 {
			continue // no pivot in this column
		}

		m.SwapRows(numPivots, pivot)
		pivot = numPivots
		numPivots++

		inv, err := m.data[pivot][col].Inv()
		if err != nil {
			return err
		}
		m.ScaleRow(pivot, inv)

		// Eliminate below
		for i := pivot + 1; i < rows; i++ {
			if m.data[i][col].IsZero() {
				continue
			}
			m.AddScaledRow(pivot, i, m.data[i][col].Neg())
		}
	}

	// Backward pass: eliminate above every pivot
	for i := numPivots - 1; i >= 0; i-- {
		pivotCol := m.leadingColumn(i)
		if pivotCol == -1 {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if m.data[j][pivotCol].IsZero() {
				continue
			}
			m.AddScaledRow(i, j, m.data[j][pivotCol].Neg())
		}
	}
	return nil
}

// Invert replaces the matrix with its inverse. On failure the matrix is unchanged.
func (m *Matrix) Invert() error {
	n := m.Rows()
	if n != m.cols {
		return ErrNotSquare
	}

	aug, err := m.AppendColumns(Identity(n, m.field))
	if err != nil {
		return err
	}
	if err := aug.ReducedRowEchelonForm(); err != nil {
		return err
	}

	// Left half must be the identity
	if !aug.IsIdentity(n) {
		return ErrSingularMatrix
	}

	for i := 0; i < n; i++ {
		copy(m.data[i], aug.data[i][n:])
	}
	return nil
}

// DeterminantAndRef returns the determinant and, as a side effect, leaves the
// matrix in row echelon form with unit pivots.
func (m *Matrix) DeterminantAndRef() (Element, error) {
	n := m.Rows()
	if n != m.cols {
		return nil, ErrNotSquare
	}

	det := m.field.One()
	numPivots := 0
	for col := 0; col < n; col++ {
		pivot := -1
		for i := numPivots; i < n; i++ {
			if !m.data[i][col].IsZero() {
				pivot = i
				break
			}
		}
		if pivot == -1 {
			// A column without a pivot means the matrix is singular, but
			// the reduction still continues to finish the echelon form.
			det = m.field.Zero()
			continue
		}

		if pivot != numPivots {
			m.SwapRows(numPivots, pivot)
			det = det.Neg()
		}
		pivot = numPivots
		numPivots++

		p := m.data[pivot][col]
		inv, err := p.Inv()
		if err != nil {
			return nil, err
		}
		m.ScaleRow(pivot, inv)
		det = det.Mul(p)

		for i := pivot + 1; i < n; i++ {
			if m.data[i][col].IsZero() {
				continue
			}
			m.AddScaledRow(pivot, i, m.data[i][col].Neg())
		}
	}
	return det, nil
}

// Rank returns the number of linearly independent rows. The matrix is not modified.
func (m *Matrix) Rank() (int, error) {
	c := m.Clone()
	if err := c.ReducedRowEchelonForm(); err != nil {
		return 0, err
	}
	rank := 0
	for i := range c.data {
		if c.leadingColumn(i) != -1 {
			rank++
		}
	}
	return rank, nil
}

// IsIdentity reports whether the left n×n block of the matrix is the identity.
// It is false when the matrix has fewer than n rows or columns.
func (m *Matrix) IsIdentity(n int) bool {
	if m.Rows() < n || m.cols < n {
		return false
	}
	one := m.field.One()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			e := m.data[i][j]
			if i == j && !e.Equal(one) {
				return false
			}
			if i != j && !e.IsZero() {
				return false
			}
		}
	}
	return true
}

// IsRowEchelonForm reports whether every zero row sits at the bottom and each
// row's leading entry lies strictly right of the one above it.
func (m *Matrix) IsRowEchelonForm() bool {
	prevPivotCol := -1
	seenZeroRow := false

	for i := range m.data {
		pivotCol := m.leadingColumn(i)
		if pivotCol == -1 {
			seenZeroRow = true
			continue
		}
		if seenZeroRow {
			return false // non-zero row after zero row
		}
		if pivotCol <= prevPivotCol {
			return false // pivot not to the right of previous pivot
		}
		for k := i + 1; k < len(m.data); k++ {
			if !m.data[k][pivotCol].IsZero() {
				return false // non-zero entry below pivot
			}
		}
		prevPivotCol = pivotCol
	}
	return true
}

// Equal reports whether both matrices have the same shape and elements
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil || m.Rows() != other.Rows() || m.cols != other.cols {
		return false
	}
	for i := range m.data {
		for j := range m.data[i] {
			if !m.data[i][j].Equal(other.data[i][j]) {
				return false
			}
		}
	}
	return true
}

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, row := range m.data {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('[')
		for j, e := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(']')
	}
	sb.WriteByte(']')
	return sb.String()
}

// leadingColumn returns the column of the first non-zero entry of a row, or -1
func (m *Matrix) leadingColumn(row int) int {
	for j, e := range m.data[row] {
		if !e.IsZero() {
			return j
		}
	}
	return -1
}
