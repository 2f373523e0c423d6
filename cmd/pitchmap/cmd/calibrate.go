package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pitchmap/internal/calibration"
	"github.com/MeKo-Tech/pitchmap/internal/session"
)

// calibrateCmd represents the calibrate command.
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Estimate the video-to-pitch homography from point correspondences",
	Long: `Estimate the homography that maps video pixel coordinates onto pitch coordinates in meters.

The points file is YAML or JSON with two equally long lists of [x, y] pairs:

  video_points: [[100, 200], [500, 200], [500, 600], [100, 600]]
  pitch_points: [[0, 0], [105, 0], [105, 68], [0, 68]]

At least four correspondences are required. With more than four, outliers are rejected
using RANSAC. The json and yaml output formats can be passed to transform and distance
via --matrix.

Examples:
  pitchmap calibrate --points clicks.yaml
  pitchmap calibrate --points clicks.json --format json > calibration.json
  pitchmap calibrate --points clicks.yaml --ransac-threshold 2.5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		pointsFile, _ := cmd.Flags().GetString("points")
		format := outputFormat(cmd, cfg)
		if err := validateFormat(format); err != nil {
			return err
		}

		opts, err := estimatorOptions(cmd, cfg)
		if err != nil {
			return fmt.Errorf("invalid estimator options: %w", err)
		}

		video, pitch, err := readCorrespondences(pointsFile)
		if err != nil {
			return err
		}

		svc, err := calibration.NewService(session.NewRegistry(cfg.Session.DefaultID), opts)
		if err != nil {
			return err
		}

		res, err := svc.Calibrate(calibration.CalibrateRequest{VideoPoints: video, PitchPoints: pitch})
		if err != nil {
			return fmt.Errorf("calibration failed: %w", err)
		}

		return renderCalibration(cmd.OutOrStdout(), format, cfg.Output, calibrationReport{
			Matrix:            res.Matrix.Rows(),
			ReprojectionError: res.ReprojectionError,
			InlierCount:       res.InlierCount,
			Inliers:           res.Inliers,
			Message:           res.Message,
		})
	},
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.Flags().String("points", "", "YAML or JSON file with video_points and pitch_points")
	calibrateCmd.Flags().String("format", outputFormatText, "output format (text, json, yaml)")
	addEstimatorFlags(calibrateCmd)
	_ = calibrateCmd.MarkFlagRequired("points")
}
