package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/pitchmap/internal/testutil"
)

func TestTransformCommandText(t *testing.T) {
	matrix := testutil.WriteFile(t, "calibration.json", scaleMatrixJSON)

	output, err := execute(t, "transform", "--matrix", matrix, "50,30", "100,60")
	require.NoError(t, err)

	assert.Contains(t, output, "(50.0000, 30.0000) -> (5.0000, 3.0000)")
	assert.Contains(t, output, "(100.0000, 60.0000) -> (10.0000, 6.0000)")
}

func TestTransformCommandBareMatrix(t *testing.T) {
	matrix := testutil.WriteFile(t, "identity.yaml", "- [1, 0, 0]\n- [0, 1, 0]\n- [0, 0, 1]\n")

	output, err := execute(t, "transform", "--matrix", matrix, "12.5,7", "--format", "yaml")
	require.NoError(t, err)

	var reports []pointReport
	require.NoError(t, yaml.Unmarshal([]byte(output), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, []float64{12.5, 7}, reports[0].Input)
	assert.Equal(t, []float64{12.5, 7}, reports[0].Output)
}

func TestTransformCommandInverse(t *testing.T) {
	matrix := testutil.WriteFile(t, "calibration.json", scaleMatrixJSON)

	output, err := execute(t, "transform", "--matrix", matrix, "--inverse", "5,3", "--format", "json")
	require.NoError(t, err)

	var reports []pointReport
	require.NoError(t, json.Unmarshal([]byte(output), &reports))
	require.Len(t, reports, 1)
	assert.InDelta(t, 50.0, reports[0].Output[0], 1e-9)
	assert.InDelta(t, 30.0, reports[0].Output[1], 1e-9)
}

func TestTransformCommandErrors(t *testing.T) {
	scale := testutil.WriteFile(t, "calibration.json", scaleMatrixJSON)
	singular := testutil.WriteFile(t, "singular.json", `[[1, 2, 3], [2, 4, 6], [0, 0, 1]]`)
	horizon := testutil.WriteFile(t, "horizon.json", `[[1, 0, 0], [0, 1, 0], [-1, 0, 1]]`)
	collapsed := testutil.WriteFile(t, "collapsed.json", `[[1, 1, 0], [1, 1, 0], [0, 0, 1]]`)
	shape := testutil.WriteFile(t, "shape.json", `[[1, 0], [0, 1]]`)

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"missing matrix flag", []string{"transform", "1,2"}, `required flag(s) "matrix" not set`},
		{"no points", []string{"transform", "--matrix", scale}, "requires at least 1 arg"},
		{"bad point", []string{"transform", "--matrix", scale, "1;2"}, "expected X,Y"},
		{"non-numeric point", []string{"transform", "--matrix", scale, "a,2"}, "invalid point"},
		{"wrong matrix shape", []string{"transform", "--matrix", shape, "1,2"}, "matrix must have 3 rows"},
		{"singular inverse", []string{"transform", "--matrix", singular, "--inverse", "1,2"}, "singular"},
		{"point at infinity", []string{"transform", "--matrix", horizon, "1,5"}, "maps to infinity"},
		{"singular forward", []string{"transform", "--matrix", collapsed, "1,2"}, "not invertible"},
		{"missing file", []string{"transform", "--matrix", "/nonexistent.json", "1,2"}, "failed to read matrix file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
