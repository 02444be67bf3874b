package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/notreally/notreally/pkg/api"
	"github.com/notreally/notreally/pkg/config"
	"github.com/notreally/notreally/pkg/engine"
	"github.com/notreally/notreally/pkg/extract"
	"github.com/notreally/notreally/pkg/logging"
	"github.com/notreally/notreally/pkg/metrics"
	"github.com/notreally/notreally/pkg/middleware"
	"github.com/notreally/notreally/pkg/scoring"
	"github.com/notreally/notreally/pkg/shutdown"
	"github.com/notreally/notreally/pkg/store"
)

func main() {
	cfgFile := flag.String("config", "", "config file path (default: ./notreally.yaml)")
	listenAddr := flag.String("listen", "", "listen address override")
	dbPath := flag.String("db", "", "SQLite database path override (use 'memory' for in-memory)")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		logging.NewLogger(logging.ERROR, false).Fatal("invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogJSON)
	logger.Info("starting NotReally analysis server", map[string]interface{}{
		"listen":        cfg.ListenAddr,
		"db":            cfg.DBPath,
		"audio_enabled": cfg.AudioEnabled,
		"max_jobs":      cfg.MaxConcurrentJobs,
	})

	// Store
	storeCfg := store.Config{Type: "sqlite", Path: cfg.DBPath}
	if cfg.DBPath == "memory" {
		logger.Warn("using in-memory store, job records will not survive a restart")
		storeCfg = store.Config{Type: "memory"}
	}
	dataStore, err := store.NewStore(storeCfg)
	if err != nil {
		logger.Fatal("failed to open store", map[string]interface{}{"error": err.Error()})
	}

	// Scoring
	profile := scoring.DefaultProfile()
	if cfg.ScoringProfile != "" {
		profile, err = scoring.LoadProfile(cfg.ScoringProfile)
		if err != nil {
			logger.Fatal("failed to load scoring profile", map[string]interface{}{"error": err.Error()})
		}
		logger.Info("loaded scoring profile", map[string]interface{}{"name": profile.Name})
	}
	scorer := scoring.NewEngine(scoring.NewThresholdClassifier(profile))

	// Modalities
	extractors := []extract.Extractor{extract.NewFacialExtractor(cfg.FacialAnalyzer)}
	if cfg.AudioEnabled {
		extractors = append(extractors, extract.NewAudioExtractor(cfg.AudioAnalyzer))
	}
	if cfg.MetadataEnabled {
		extractors = append(extractors, extract.NewMetadataExtractor(cfg.FFprobePath))
	}

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	manager := engine.NewManager(dataStore, extractors, scorer, logger, recorder, engine.Options{
		MaxConcurrentJobs: cfg.MaxConcurrentJobs,
		ExtractorTimeout:  cfg.ExtractorTimeout,
	})

	// API
	handler := api.NewHandler(manager, dataStore, logger, cfg.UploadDir, cfg.MaxUploadBytes)
	router := mux.NewRouter()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogging(logger))
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Minute, // uploads can be large
		WriteTimeout: 30 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.NewExporter(dataStore, nil))
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
		go func() {
			logger.Info("metrics endpoint listening", map[string]interface{}{"addr": cfg.MetricsAddr})
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	// Graceful shutdown: stop accepting requests, drain pipelines,
	// then close the store
	shutdownMgr := shutdown.New(30 * time.Second)
	shutdownMgr.Register(func(ctx context.Context) error {
		return dataStore.Close()
	})
	shutdownMgr.Register(func(ctx context.Context) error {
		manager.Wait()
		return nil
	})
	shutdownMgr.Register(func(ctx context.Context) error {
		if metricsServer != nil {
			metricsServer.Shutdown(ctx)
		}
		return server.Shutdown(ctx)
	})

	go func() {
		logger.Info("API listening", map[string]interface{}{"addr": cfg.ListenAddr})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", map[string]interface{}{"error": err.Error()})
		}
	}()

	shutdownMgr.Wait()
	shutdownMgr.Shutdown()
	logger.Info("shutdown complete")
}
