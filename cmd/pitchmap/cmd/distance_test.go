package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pitchmap/internal/testutil"
)

func TestDistanceCommandText(t *testing.T) {
	matrix := testutil.WriteFile(t, "calibration.json", scaleMatrixJSON)

	output, err := execute(t, "distance", "--matrix", matrix, "0,0", "30,40")
	require.NoError(t, err)

	assert.Contains(t, output, "Distance: 5.0 m")
	assert.Contains(t, output, "(0.0000, 0.0000) (3.0000, 4.0000)")
}

func TestDistanceCommandJSON(t *testing.T) {
	matrix := testutil.WriteFile(t, "calibration.json", scaleMatrixJSON)

	output, err := execute(t, "distance", "--matrix", matrix, "0,0", "100,0", "--format", "json")
	require.NoError(t, err)

	var report distanceReport
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.InDelta(t, 10.0, report.Distance, 1e-12)
	assert.InDelta(t, 10.0, report.PitchPoint2[0], 1e-9)
}

func TestDistanceCommandArgs(t *testing.T) {
	matrix := testutil.WriteFile(t, "calibration.json", scaleMatrixJSON)

	_, err := execute(t, "distance", "--matrix", matrix, "0,0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")

	_, err = execute(t, "distance", "--matrix", matrix, "0,0", "1,1", "2,2")
	require.Error(t, err)
}

func TestDistanceCommandSingularMatrix(t *testing.T) {
	matrix := testutil.WriteFile(t, "collapsed.json", `[[1, 1, 0], [1, 1, 0], [0, 0, 1]]`)

	output, err := execute(t, "distance", "--matrix", matrix, "1,2", "2,1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "singular transform")
	assert.NotContains(t, output, "Distance:")
}
