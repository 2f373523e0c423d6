package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/pitchmap/internal/geometry"
	"github.com/MeKo-Tech/pitchmap/internal/homography"
)

// correspondenceFile is the YAML or JSON document read by calibrate.
type correspondenceFile struct {
	VideoPoints [][]float64 `yaml:"video_points"`
	PitchPoints [][]float64 `yaml:"pitch_points"`
}

// matrixDocument accepts the output of calibrate as a matrix source.
type matrixDocument struct {
	Matrix [][]float64 `yaml:"matrix"`
}

// readCorrespondences loads video and pitch points from a YAML or JSON file.
func readCorrespondences(path string) ([]geometry.Point, []geometry.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read points file: %w", err)
	}

	var doc correspondenceFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse points file %s: %w", path, err)
	}

	video, err := geometry.FromPairs(doc.VideoPoints)
	if err != nil {
		return nil, nil, fmt.Errorf("video_points: %w", err)
	}
	pitch, err := geometry.FromPairs(doc.PitchPoints)
	if err != nil {
		return nil, nil, fmt.Errorf("pitch_points: %w", err)
	}
	return video, pitch, nil
}

// readMatrix loads a transform from a YAML or JSON file holding either a bare 3x3 array or a
// document with a matrix key.
func readMatrix(path string) (homography.Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return homography.Matrix{}, fmt.Errorf("failed to read matrix file: %w", err)
	}

	var rows [][]float64
	if err := yaml.Unmarshal(data, &rows); err != nil {
		var doc matrixDocument
		if docErr := yaml.Unmarshal(data, &doc); docErr != nil {
			return homography.Matrix{}, fmt.Errorf("failed to parse matrix file %s: %w", path, docErr)
		}
		rows = doc.Matrix
	}
	if len(rows) == 0 {
		return homography.Matrix{}, fmt.Errorf("matrix file %s holds no matrix", path)
	}

	return homography.FromRows(rows)
}

// parsePointArg parses an "X,Y" command-line argument.
func parsePointArg(arg string) (geometry.Point, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 2 {
		return geometry.Point{}, fmt.Errorf("invalid point %q: expected X,Y", arg)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err := errors.Join(errX, errY); err != nil {
		return geometry.Point{}, fmt.Errorf("invalid point %q: %w", arg, err)
	}
	p, err := geometry.FromPair([]float64{x, y})
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid point %q: %w", arg, err)
	}
	return p, nil
}

func parsePointArgs(args []string) ([]geometry.Point, error) {
	pts := make([]geometry.Point, len(args))
	for i, arg := range args {
		p, err := parsePointArg(arg)
		if err != nil {
			return nil, err
		}
		pts[i] = p
	}
	return pts, nil
}
