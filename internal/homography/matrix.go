package homography

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// determinantEpsilon is the relative bound below which a matrix is considered singular.
// The determinant is compared against the cube of the largest absolute entry.
const determinantEpsilon = 1e-13

// Matrix is a 3x3 projective transform stored row-major. It maps video space onto pitch space.
// Its JSON form is a 3-row by 3-column array.
type Matrix [3][3]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// FromRows builds a Matrix from nested slices, requiring exactly 3 rows of 3 finite values.
func FromRows(rows [][]float64) (Matrix, error) {
	var m Matrix
	if len(rows) != 3 {
		return m, fmt.Errorf("%w: matrix must have 3 rows, got %d", ErrInvalidInput, len(rows))
	}
	for i, row := range rows {
		if len(row) != 3 {
			return m, fmt.Errorf("%w: matrix row %d must have 3 columns, got %d", ErrInvalidInput, i, len(row))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return m, fmt.Errorf("%w: matrix entry [%d][%d] is not finite", ErrInvalidInput, i, j)
			}
			m[i][j] = v
		}
	}
	return m, nil
}

// Rows returns the matrix as nested slices.
func (m Matrix) Rows() [][]float64 {
	rows := make([][]float64, 3)
	for i := range 3 {
		rows[i] = []float64{m[i][0], m[i][1], m[i][2]}
	}
	return rows
}

// UnmarshalJSON decodes a 3x3 array, rejecting other shapes instead of zero-filling them.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	parsed, err := FromRows(rows)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Mul returns m·n.
func (m Matrix) Mul(n Matrix) Matrix {
	var out Matrix
	for i := range 3 {
		for j := range 3 {
			out[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return out
}

// Scale returns m with every entry multiplied by s.
func (m Matrix) Scale(s float64) Matrix {
	for i := range 3 {
		for j := range 3 {
			m[i][j] *= s
		}
	}
	return m
}

// Normalized rescales m so that m[2][2] == 1. Projectively the map is unchanged.
// Matrices whose bottom-right entry is zero are returned as is.
func (m Matrix) Normalized() Matrix {
	if math.Abs(m[2][2]) < 1e-15 {
		return m
	}
	return m.Scale(1 / m[2][2])
}

// IsFinite reports whether every entry is finite.
func (m Matrix) IsFinite() bool {
	for i := range 3 {
		for j := range 3 {
			if math.IsNaN(m[i][j]) || math.IsInf(m[i][j], 0) {
				return false
			}
		}
	}
	return true
}

// Det returns the determinant of m.
func (m Matrix) Det() float64 {
	return mat.Det(m.dense())
}

// IsSingular reports whether m has no usable inverse.
func (m Matrix) IsSingular() bool {
	if !m.IsFinite() {
		return true
	}
	maxAbs := 0.0
	for i := range 3 {
		for j := range 3 {
			maxAbs = math.Max(maxAbs, math.Abs(m[i][j]))
		}
	}
	if maxAbs == 0 {
		return true
	}
	return math.Abs(m.Det()) <= determinantEpsilon*maxAbs*maxAbs*maxAbs
}

// Invert returns the matrix inverse of m.
func Invert(m Matrix) (Matrix, error) {
	if m.IsSingular() {
		return Matrix{}, fmt.Errorf("%w: determinant is zero", ErrSingularTransform)
	}
	var inv mat.Dense
	if err := inv.Inverse(m.dense()); err != nil {
		return Matrix{}, fmt.Errorf("%w: %v", ErrSingularTransform, err)
	}
	out := fromDense(&inv)
	if !out.IsFinite() {
		return Matrix{}, fmt.Errorf("%w: inverse is not finite", ErrSingularTransform)
	}
	return out, nil
}

func (m Matrix) dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

func fromDense(d mat.Matrix) Matrix {
	var m Matrix
	for i := range 3 {
		for j := range 3 {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}
