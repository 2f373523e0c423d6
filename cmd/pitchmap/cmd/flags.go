package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pitchmap/internal/config"
	"github.com/MeKo-Tech/pitchmap/internal/homography"
)

// addEstimatorFlags registers the RANSAC tuning flags shared by serve and calibrate.
func addEstimatorFlags(cmd *cobra.Command) {
	def := homography.DefaultOptions()
	cmd.Flags().Float64("ransac-threshold", def.Threshold, "maximum reprojection distance (pitch units) for an inlier")
	cmd.Flags().Int("ransac-max-iterations", def.MaxIterations, "upper bound on RANSAC iterations")
	cmd.Flags().Float64("ransac-confidence", def.Confidence, "target probability of drawing an outlier-free sample (0..1)")
	cmd.Flags().Uint64("ransac-seed", def.Seed, "seed for RANSAC sampling")
}

// estimatorOptions returns the configured estimator options with CLI flag overrides.
func estimatorOptions(cmd *cobra.Command, cfg *config.Config) (homography.Options, error) {
	opts := cfg.EstimatorOptions()
	if cmd.Flags().Changed("ransac-threshold") {
		opts.Threshold, _ = cmd.Flags().GetFloat64("ransac-threshold")
	}
	if cmd.Flags().Changed("ransac-max-iterations") {
		opts.MaxIterations, _ = cmd.Flags().GetInt("ransac-max-iterations")
	}
	if cmd.Flags().Changed("ransac-confidence") {
		opts.Confidence, _ = cmd.Flags().GetFloat64("ransac-confidence")
	}
	if cmd.Flags().Changed("ransac-seed") {
		opts.Seed, _ = cmd.Flags().GetUint64("ransac-seed")
	}
	return opts, opts.Validate()
}

// outputFormat returns the --format flag when set, else the configured format.
func outputFormat(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("format") {
		f, _ := cmd.Flags().GetString("format")
		return f
	}
	if cfg.Output.Format == "" {
		return outputFormatText
	}
	return cfg.Output.Format
}

func validateFormat(format string) error {
	switch format {
	case outputFormatText, outputFormatJSON, outputFormatYAML:
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml)", format)
	}
}
