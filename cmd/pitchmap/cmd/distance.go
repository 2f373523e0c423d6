package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pitchmap/internal/calibration"
	"github.com/MeKo-Tech/pitchmap/internal/session"
)

// distanceCmd represents the distance command.
var distanceCmd = &cobra.Command{
	Use:   "distance --matrix FILE X1,Y1 X2,Y2",
	Short: "Measure the pitch distance between two video points",
	Long: `Measure the real-world distance in meters between two video pixel coordinates.

Both points are mapped onto the pitch with the stored matrix and the Euclidean
distance between them is reported, rounded to 0.1 m.

Examples:
  pitchmap distance --matrix calibration.json 100,200 540,210
  pitchmap distance --matrix calibration.yaml 0,0 1920,1080 --format yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		matrixFile, _ := cmd.Flags().GetString("matrix")
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

		res, err := svc.Distance(pts[0], pts[1], calibration.Target{Matrix: &m})
		if err != nil {
			return fmt.Errorf("distance failed: %w", err)
		}

		return renderDistance(cmd.OutOrStdout(), format, cfg.Output, distanceReport{
			Distance:    res.Distance,
			PitchPoint1: res.Pitch1.Pair(),
			PitchPoint2: res.Pitch2.Pair(),
		})
	},
}

func init() {
	rootCmd.AddCommand(distanceCmd)
	distanceCmd.Flags().String("matrix", "", "YAML or JSON file holding the 3x3 homography")
	distanceCmd.Flags().String("format", outputFormatText, "output format (text, json, yaml)")
	_ = distanceCmd.MarkFlagRequired("matrix")
}
