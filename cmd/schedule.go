package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/location-evaluator/internal/config"
	"github.com/sells-group/location-evaluator/internal/schedule"
)

var scheduleYear int

// scheduleSummary is the per-rule expansion report printed by the schedule
// subcommand.
type scheduleSummary struct {
	Destination       string  `json:"destination"`
	Category          string  `json:"category"`
	Rule              string  `json:"rule"`
	AnnualOccurrences int     `json:"annual_occurrences"`
	WeeklyEquivalent  float64 `json:"weekly_equivalent"`
	FirstDate         string  `json:"first_date,omitempty"`
	LastDate          string  `json:"last_date,omitempty"`
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Preview schedule expansion for the configured destinations",
	RunE: func(cmd *cobra.Command, args []string) error {
		year := scheduleYear
		if year == 0 {
			year = cfg.Analysis.Year
		}
		if year == 0 {
			year = time.Now().Year()
		}

		dests, err := config.LoadDestinations(cfg.Analysis.DestinationsFile)
		if err != nil {
			return err
		}

		var summaries []scheduleSummary
		for _, d := range dests {
			for _, sr := range d.Schedule {
				label := sr.Days
				if label == "" {
					label = sr.Pattern
				}

				rule, err := schedule.ParseRule(sr)
				if err != nil {
					zap.L().Warn("unparseable schedule rule",
						zap.String("destination", d.Name),
						zap.Error(err),
					)
					continue
				}

				occs := rule.Expand(year)
				s := scheduleSummary{
					Destination:       d.Name,
					Category:          d.Category,
					Rule:              label,
					AnnualOccurrences: len(occs),
					WeeklyEquivalent:  rule.Frequency(year).WeeklyEquivalent,
				}
				if len(occs) > 0 {
					s.FirstDate = occs[0].Date.Format("2006-01-02")
					s.LastDate = occs[len(occs)-1].Date.Format("2006-01-02")
				}
				summaries = append(summaries, s)
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	},
}

func init() {
	scheduleCmd.Flags().IntVar(&scheduleYear, "year", 0, "expansion year (default from config)")
	rootCmd.AddCommand(scheduleCmd)
}
