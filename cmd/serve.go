package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/location-evaluator/internal/config"
	"github.com/sells-group/location-evaluator/internal/model"
)

var (
	servePort    int
	serveResults string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve analysis results over HTTP for the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(cfg, false)
		if err != nil {
			return err
		}
		defer env.Close()

		srvState := &serveState{resultsPath: serveResults}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/results", func(w http.ResponseWriter, req *http.Request) {
			result, err := srvState.load()
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no results available, run an analysis first"})
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Post("/analyze", func(w http.ResponseWriter, req *http.Request) {
			dests, err := config.LoadDestinations(cfg.Analysis.DestinationsFile)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}

			result, err := env.Analyzer.Run(req.Context(), dests)
			if err != nil {
				zap.L().Error("analysis request failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}

			srvState.set(result)
			writeJSON(w, http.StatusOK, result)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// serveState holds the most recent analysis result, falling back to the
// results file written by a previous analyze run.
type serveState struct {
	mu          sync.RWMutex
	latest      *model.ExportResult
	resultsPath string
}

func (s *serveState) set(result *model.ExportResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = result
}

func (s *serveState) load() (*model.ExportResult, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}

	data, err := os.ReadFile(s.resultsPath)
	if err != nil {
		return nil, eris.Wrap(err, "read results file")
	}
	var result model.ExportResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, eris.Wrap(err, "parse results file")
	}
	return &result, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveResults, "results", "results.json", "results file served when no in-memory result exists")
	rootCmd.AddCommand(serveCmd)
}
