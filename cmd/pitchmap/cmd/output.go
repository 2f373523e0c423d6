package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/pitchmap/internal/config"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
)

// calibrationReport is the document printed by calibrate. Its matrix key makes it a valid
// --matrix input for transform and distance.
type calibrationReport struct {
	Matrix            [][]float64 `json:"matrix" yaml:"matrix"`
	ReprojectionError float64     `json:"reprojection_error" yaml:"reprojection_error"`
	InlierCount       int         `json:"inlier_count" yaml:"inlier_count"`
	Inliers           []bool      `json:"inliers" yaml:"inliers"`
	Message           string      `json:"message" yaml:"message"`
}

// pointReport is one transformed point.
type pointReport struct {
	Input  []float64 `json:"input" yaml:"input"`
	Output []float64 `json:"output" yaml:"output"`
}

// distanceReport is the document printed by distance.
type distanceReport struct {
	Distance    float64   `json:"distance" yaml:"distance"`
	PitchPoint1 []float64 `json:"pitch_point1" yaml:"pitch_point1"`
	PitchPoint2 []float64 `json:"pitch_point2" yaml:"pitch_point2"`
}

// textPrinter formats numbers for the configured output language and precision.
type textPrinter struct {
	p   *message.Printer
	num string
}

func newTextPrinter(cfg config.OutputConfig) textPrinter {
	tag := language.English
	if cfg.Language != "" {
		if t, err := language.Parse(cfg.Language); err == nil {
			tag = t
		}
	}
	return textPrinter{p: message.NewPrinter(tag), num: fmt.Sprintf("%%.%df", cfg.Precision)}
}

func (tp textPrinter) number(v float64) string {
	return tp.p.Sprintf(tp.num, v)
}

func (tp textPrinter) point(xy []float64) string {
	return "(" + tp.number(xy[0]) + ", " + tp.number(xy[1]) + ")"
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s (must be one of: text, json, yaml)", format)
	}
}

func renderCalibration(w io.Writer, format string, out config.OutputConfig, r calibrationReport) error {
	if format != outputFormatText {
		return writeStructured(w, format, r)
	}

	tp := newTextPrinter(out)
	_, _ = fmt.Fprintln(w, r.Message)
	_, _ = fmt.Fprintf(w, "Inliers: %d of %d\n", r.InlierCount, len(r.Inliers))
	_, _ = fmt.Fprintln(w, "Matrix:")
	for _, row := range r.Matrix {
		_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", tp.number(row[0]), tp.number(row[1]), tp.number(row[2]))
	}
	return nil
}

func renderPoints(w io.Writer, format string, out config.OutputConfig, pts []pointReport) error {
	if format != outputFormatText {
		return writeStructured(w, format, pts)
	}

	tp := newTextPrinter(out)
	for _, p := range pts {
		_, _ = fmt.Fprintf(w, "%s -> %s\n", tp.point(p.Input), tp.point(p.Output))
	}
	return nil
}

func renderDistance(w io.Writer, format string, out config.OutputConfig, d distanceReport) error {
	if format != outputFormatText {
		return writeStructured(w, format, d)
	}

	tp := newTextPrinter(out)
	_, _ = fmt.Fprintf(w, "Distance: %s m\n", tp.p.Sprintf("%.1f", d.Distance))
	_, _ = fmt.Fprintf(w, "Pitch points: %s %s\n", tp.point(d.PitchPoint1), tp.point(d.PitchPoint2))
	return nil
}
