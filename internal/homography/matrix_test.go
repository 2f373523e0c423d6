package homography

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]float64
		wantErr bool
	}{
		{name: "valid", rows: [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}},
		{name: "two rows", rows: [][]float64{{1, 0, 0}, {0, 1, 0}}, wantErr: true},
		{name: "short row", rows: [][]float64{{1, 0}, {0, 1, 0}, {0, 0, 1}}, wantErr: true},
		{name: "empty", rows: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromRows(tt.rows)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Identity(), m)
		})
	}
}

func TestMatrixJSONRoundTrip(t *testing.T) {
	m := Matrix{
		{0.1000000000000001, -2.5e-7, 3.3333333333333335},
		{1e-12, 0.7, -42},
		{6.02e-5, 1.5e-4, 1},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0])

	var decoded Matrix
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, m, decoded, "row-major layout must round-trip exactly")

	var rows [][]float64
	require.NoError(t, json.Unmarshal(data, &rows))
	assert.Equal(t, m.Rows(), rows)
}

func TestMatrixUnmarshalRejectsWrongShape(t *testing.T) {
	var m Matrix
	err := json.Unmarshal([]byte(`[[1,2],[3,4]]`), &m)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInvert(t *testing.T) {
	m := Matrix{{2, 0, 0}, {0, 4, 0}, {0, 0, 1}}

	inv, err := Invert(m)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, inv[0][0], 1e-12)
	assert.InDelta(t, 0.25, inv[1][1], 1e-12)
	assert.InDelta(t, 1.0, inv[2][2], 1e-12)

	product := m.Mul(inv)
	for i := range 3 {
		for j := range 3 {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, product[i][j], 1e-12)
		}
	}
}

func TestInvertSingular(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
	}{
		{name: "zero", m: Matrix{}},
		{name: "all ones", m: Matrix{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}},
		{name: "rank two", m: Matrix{{1, 2, 3}, {2, 4, 6}, {0, 0, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.m.IsSingular())
			_, err := Invert(tt.m)
			assert.ErrorIs(t, err, ErrSingularTransform)
		})
	}
}

func TestNormalized(t *testing.T) {
	m := Matrix{{2, 0, 4}, {0, 2, 6}, {0, 0, 2}}.Normalized()
	assert.Equal(t, Matrix{{1, 0, 2}, {0, 1, 3}, {0, 0, 1}}, m)

	affineAtInfinity := Matrix{{1, 0, 0}, {0, 1, 0}, {1, 0, 0}}
	assert.Equal(t, affineAtInfinity, affineAtInfinity.Normalized())
}
