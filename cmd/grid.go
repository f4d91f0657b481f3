package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/location-evaluator/internal/grid"
)

var gridShowPoints bool

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Preview the analysis grid without routing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyAnalyzeFlags(cfg)

		gen, err := grid.New(
			cfg.Analysis.CenterLat, cfg.Analysis.CenterLon,
			cfg.Analysis.MaxRadiusMiles, cfg.Analysis.GridSizeMiles,
		)
		if err != nil {
			return err
		}
		points := gen.Points()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if gridShowPoints {
			return enc.Encode(points)
		}
		return enc.Encode(gen.Info(points))
	},
}

func init() {
	gridCmd.Flags().Float64Var(&analyzeGridSize, "grid-size", 0, "grid spacing in miles")
	gridCmd.Flags().Float64Var(&analyzeMaxRadius, "max-radius", 0, "analysis radius in miles")
	gridCmd.Flags().BoolVar(&gridShowPoints, "points", false, "print every grid point instead of the summary")
	rootCmd.AddCommand(gridCmd)
}
