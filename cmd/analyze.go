package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/location-evaluator/internal/analyzer"
	"github.com/sells-group/location-evaluator/internal/config"
	"github.com/sells-group/location-evaluator/internal/model"
	"github.com/sells-group/location-evaluator/internal/routecache"
	"github.com/sells-group/location-evaluator/internal/routing"
	"github.com/sells-group/location-evaluator/pkg/crimedata"
	"github.com/sells-group/location-evaluator/pkg/geocode"
	"github.com/sells-group/location-evaluator/pkg/osrm"
)

var (
	analyzeOut          string
	analyzeYear         int
	analyzeGridSize     float64
	analyzeMaxRadius    float64
	analyzeWorkers      int
	analyzeCacheOnly    bool
	analyzeForceRefresh bool
	analyzeDryRun       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full grid analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyAnalyzeFlags(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		env, err := initEngine(cfg, analyzeDryRun)
		if err != nil {
			return err
		}
		defer env.Close()

		dests, err := config.LoadDestinations(cfg.Analysis.DestinationsFile)
		if err != nil {
			return err
		}

		result, err := env.Analyzer.Run(ctx, dests)
		if err != nil {
			return err
		}

		return writeResult(result, analyzeOut)
	},
}

func applyAnalyzeFlags(cfg *config.Config) {
	if analyzeYear != 0 {
		cfg.Analysis.Year = analyzeYear
	}
	if analyzeGridSize != 0 {
		cfg.Analysis.GridSizeMiles = analyzeGridSize
	}
	if analyzeMaxRadius != 0 {
		cfg.Analysis.MaxRadiusMiles = analyzeMaxRadius
	}
	if analyzeWorkers != 0 {
		cfg.Analysis.Workers = analyzeWorkers
	}
}

// engine bundles the wired analysis dependencies and their lifecycle.
type engine struct {
	Analyzer *analyzer.Analyzer

	store    routecache.Store
	geocoder *geocode.CachedClient
}

func (e *engine) Close() {
	if e.geocoder != nil {
		_ = e.geocoder.Close()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
}

// initEngine wires the route cache, geocoder, incident source, and analyzer
// from config. A dry run swaps every external surface for offline stand-ins:
// an in-memory cache, straight-line route estimates, and no incident data.
func initEngine(cfg *config.Config, dryRun bool) (*engine, error) {
	env := &engine{}

	var gw routing.Gateway
	if dryRun {
		gw = estimateGateway{}
		env.store = routecache.NewMemory()
	} else {
		gw = routing.NewDispatcher(
			osrm.NewClient(
				osrm.WithBaseURL(cfg.Routing.BaseURL),
				osrm.WithHTTPClient(httpClient(cfg.Routing.TimeoutSecs)),
			),
			routing.DispatcherOptions{
				RequestsPerSecond: cfg.Routing.RequestsPerSecond,
				MaxRetries:        cfg.Routing.MaxRetries,
				FallbackEstimate:  cfg.Routing.FallbackEstimate,
			},
		)

		if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
			return nil, eris.Wrap(err, "create cache directory")
		}
		store, err := routecache.NewSQLite(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(context.Background()); err != nil {
			store.Close()
			return nil, err
		}
		env.store = store
	}

	mode := routecache.ModeNormal
	switch {
	case analyzeCacheOnly && analyzeForceRefresh:
		return nil, eris.New("--cache-only and --force-refresh are mutually exclusive")
	case analyzeCacheOnly:
		mode = routecache.ModeCacheOnly
	case analyzeForceRefresh:
		mode = routecache.ModeForceRefresh
	}
	cache := routecache.New(env.store, gw, time.Duration(cfg.Cache.RouteTTLDays)*24*time.Hour, mode)

	var geocoder geocode.Client
	if dryRun {
		geocoder = geocode.NewClient() // never reached without unresolved addresses
	} else {
		nominatim := geocode.NewClient(
			geocode.WithBaseURL(cfg.Geocode.BaseURL),
			geocode.WithUserAgent(cfg.Geocode.UserAgent),
			geocode.WithHTTPClient(httpClient(cfg.Geocode.TimeoutSecs)),
		)
		cached, err := geocode.NewCachedClient(
			nominatim,
			filepath.Join(filepath.Dir(cfg.Cache.Path), "geocodes.db"),
			time.Duration(cfg.Cache.GeocodeTTLDays)*24*time.Hour,
		)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.geocoder = cached
		geocoder = cached
	}

	incidents := crimedata.NewClient(
		crimedata.WithBaseURL(cfg.Incidents.BaseURL),
		crimedata.WithAPIKey(cfg.Incidents.APIKey),
		crimedata.WithHTTPClient(httpClient(cfg.Incidents.TimeoutSecs)),
	)

	a, err := analyzer.New(cfg, cache, geocoder, incidents)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Analyzer = a
	return env, nil
}

// estimateGateway answers every route with the straight-line estimate. Used
// by dry runs to keep the whole pipeline offline.
type estimateGateway struct{}

func (estimateGateway) Route(ctx context.Context, req routing.Request) (routing.Route, error) {
	return routing.Estimate(req), nil
}

func writeResult(result *model.ExportResult, out string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal result")
	}

	if out == "" || out == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return eris.Wrap(err, "write result")
	}
	zap.L().Info("wrote results", zap.String("path", out), zap.Int("bytes", len(data)))
	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "results.json", "output file path (- for stdout)")
	analyzeCmd.Flags().IntVar(&analyzeYear, "year", 0, "analysis year (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeGridSize, "grid-size", 0, "grid spacing in miles")
	analyzeCmd.Flags().Float64Var(&analyzeMaxRadius, "max-radius", 0, "analysis radius in miles")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "concurrent grid workers")
	analyzeCmd.Flags().BoolVar(&analyzeCacheOnly, "cache-only", false, "never call the routing engine; missing routes mark points incomplete")
	analyzeCmd.Flags().BoolVar(&analyzeForceRefresh, "force-refresh", false, "ignore cached routes and refetch everything")
	analyzeCmd.Flags().BoolVar(&analyzeDryRun, "dry-run", false, "run fully offline with straight-line estimates")
	rootCmd.AddCommand(analyzeCmd)
}
