package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pitchmap/internal/calibration"
	"github.com/MeKo-Tech/pitchmap/internal/geometry"
	"github.com/MeKo-Tech/pitchmap/internal/session"
)

// transformCmd represents the transform command.
var transformCmd = &cobra.Command{
	Use:   "transform --matrix FILE X,Y [X,Y...]",
	Short: "Convert video pixel coordinates to pitch coordinates",
	Long: `Convert one or more points between video and pitch coordinates using a stored matrix.

The matrix file is YAML or JSON holding either a bare 3x3 array or the output of
"pitchmap calibrate --format json". With --inverse, the points are pitch coordinates
in meters and are mapped back into the video frame.

Examples:
  pitchmap transform --matrix calibration.json 640,360
  pitchmap transform --matrix calibration.json 100,200 540,210 --format json
  pitchmap transform --matrix calibration.json --inverse 52.5,34`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		matrixFile, _ := cmd.Flags().GetString("matrix")
		inverse, _ := cmd.Flags().GetBool("inverse")
		format := outputFormat(cmd, cfg)
		if err := validateFormat(format); err != nil {
			return err
		}

		m, err := readMatrix(matrixFile)
		if err != nil {
			return err
		}

		pts, err := parsePointArgs(args)
		if err != nil {
			return err
		}

		svc, err := calibration.NewService(session.NewRegistry(cfg.Session.DefaultID), cfg.EstimatorOptions())
		if err != nil {
			return err
		}
		target := calibration.Target{Matrix: &m}

		var out []geometry.Point
		if inverse {
			out = make([]geometry.Point, len(pts))
			for i, p := range pts {
				q, _, err := svc.InverseTransform(p, target)
				if err != nil {
					return fmt.Errorf("point %s: %w", args[i], err)
				}
				out[i] = q
			}
		} else {
			out, _, err = svc.BatchTransform(pts, target)
			if err != nil {
				return fmt.Errorf("transform failed: %w", err)
			}
		}

		reports := make([]pointReport, len(pts))
		for i := range pts {
			reports[i] = pointReport{Input: pts[i].Pair(), Output: out[i].Pair()}
		}
		return renderPoints(cmd.OutOrStdout(), format, cfg.Output, reports)
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.Flags().String("matrix", "", "YAML or JSON file holding the 3x3 homography")
	transformCmd.Flags().Bool("inverse", false, "map pitch coordinates back into the video frame")
	transformCmd.Flags().String("format", outputFormatText, "output format (text, json, yaml)")
	_ = transformCmd.MarkFlagRequired("matrix")
}
