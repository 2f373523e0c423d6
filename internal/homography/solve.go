package homography

import (
	"math"

	"github.com/MeKo-Tech/pitchmap/internal/geometry"
)

// pivotEpsilon is the smallest pivot accepted by the elimination. Inputs are normalised to
// unit scale before solving, so an absolute bound is adequate.
const pivotEpsilon = 1e-12

// exactFromFour computes the unique H mapping p[i] -> q[i] for four correspondences.
// Points are expected in normalised coordinates. Returns false when the system has no solution.
func exactFromFour(p, q [4]geometry.Point) (Matrix, bool) {
	// Build 8x8 system A*h = b for the 8 unknowns (h00..h21), h22=1.
	var a [8][8]float64
	var b [8]float64
	for i := range 4 {
		X, Y := p[i].X, p[i].Y
		x, y := q[i].X, q[i].Y
		r := 2 * i

		// x' = (h00 X + h01 Y + h02)/(h20 X + h21 Y + 1)
		a[r] = [8]float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x}
		b[r] = x

		// y' = (h10 X + h11 Y + h12)/(h20 X + h21 Y + 1)
		a[r+1] = [8]float64{0, 0, 0, X, Y, 1, -X * y, -Y * y}
		b[r+1] = y
	}

	h, ok := solve8x8(a, b)
	if !ok {
		return Matrix{}, false
	}
	return Matrix{
		{h[0], h[1], h[2]},
		{h[3], h[4], h[5]},
		{h[6], h[7], 1},
	}, true
}

// solve8x8 runs Gauss-Jordan elimination with partial pivoting.
func solve8x8(a [8][8]float64, b [8]float64) ([8]float64, bool) {
	matrix := a
	vector := b

	for i := range 8 {
		if !pivotAndNormalize(&matrix, &vector, i) {
			return [8]float64{}, false
		}
		eliminateColumn(&matrix, &vector, i)
	}

	// The left block is now the identity.
	return vector, true
}

func pivotAndNormalize(matrix *[8][8]float64, vector *[8]float64, col int) bool {
	pivotRow := findPivotRow(matrix, col)
	if pivotRow == -1 {
		return false
	}
	if pivotRow != col {
		swapRows(matrix, vector, col, pivotRow)
	}
	normalizeRow(matrix, vector, col)
	return true
}

func findPivotRow(matrix *[8][8]float64, col int) int {
	maxAbs := math.Abs(matrix[col][col])
	pivotRow := col
	for r := col + 1; r < 8; r++ {
		if v := math.Abs(matrix[r][col]); v > maxAbs {
			maxAbs = v
			pivotRow = r
		}
	}
	if maxAbs < pivotEpsilon {
		return -1
	}
	return pivotRow
}

func swapRows(matrix *[8][8]float64, vector *[8]float64, row1, row2 int) {
	matrix[row1], matrix[row2] = matrix[row2], matrix[row1]
	vector[row1], vector[row2] = vector[row2], vector[row1]
}

func normalizeRow(matrix *[8][8]float64, vector *[8]float64, row int) {
	div := matrix[row][row]
	for c := row; c < 8; c++ {
		matrix[row][c] /= div
	}
	vector[row] /= div
}

func eliminateColumn(matrix *[8][8]float64, vector *[8]float64, col int) {
	for r := range 8 {
		if r == col {
			continue
		}
		factor := matrix[r][col]
		if factor == 0 {
			continue
		}
		for c := col; c < 8; c++ {
			matrix[r][c] -= factor * matrix[col][c]
		}
		vector[r] -= factor * vector[col]
	}
}
