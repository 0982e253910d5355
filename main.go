package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	goredis "github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"machine-analytics/internal/analytics/application"
	"machine-analytics/internal/analytics/infrastructure/memory"
	rediscache "machine-analytics/internal/analytics/infrastructure/redis"
	apihttp "machine-analytics/internal/api/http"
	"machine-analytics/internal/config"
	"machine-analytics/internal/insight"
	"machine-analytics/internal/observability/metrics"
	telemetry "machine-analytics/internal/telemetry/domain"
	"machine-analytics/internal/telemetry/infrastructure/drive"
	"machine-analytics/internal/telemetry/infrastructure/filesystem"
	telemetrypostgres "machine-analytics/internal/telemetry/infrastructure/postgres"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	var db *sql.DB
	if cfg.DataSource == config.SourcePostgres {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
	}
	metrics.Init(db, logger)

	source, err := buildSource(context.Background(), cfg, db)
	if err != nil {
		logger.Fatalf("source error: %v", err)
	}

	cache, err := buildCache(cfg, logger)
	if err != nil {
		logger.Fatalf("cache error: %v", err)
	}
	engine := application.NewEngine(cache, logger)
	service, err := application.NewAnalysisService(source, engine, cfg.Location(), logger)
	if err != nil {
		logger.Fatalf("analysis service error: %v", err)
	}
	service.SetMaxDatasetBytes(cfg.MaxDatasetBytes)

	var insighter apihttp.Insighter
	if cfg.Insight.APIKey != "" {
		client, err := insight.NewClient(insight.Config{
			BaseURL: cfg.Insight.BaseURL,
			APIKey:  cfg.Insight.APIKey,
			Model:   cfg.Insight.Model,
			Timeout: cfg.Insight.Timeout,
		})
		if err != nil {
			logger.Fatalf("insight client error: %v", err)
		}
		insighter = client
	} else {
		logger.Printf("insight provider disabled: INSIGHT_API_KEY not set")
	}

	defaults := application.Params{
		MinSpeedRequirement:  cfg.Defaults.MinSpeedRequirement,
		IdleThresholdMinutes: cfg.Defaults.IdleThresholdMinutes,
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/files", apihttp.NewFilesHandler(service, logger))
	mux.Handle("/api/v1/analysis", apihttp.NewAnalysisHandler(service, defaults, logger))
	mux.Handle("/api/v1/series", apihttp.NewSeriesHandler(service, defaults, logger))
	mux.Handle("/api/v1/exports/idle-events.csv", apihttp.NewExportCSVHandler(service, apihttp.ExportIdleEvents, defaults, logger))
	mux.Handle("/api/v1/exports/low-speed-events.csv", apihttp.NewExportCSVHandler(service, apihttp.ExportLowSpeedEvents, defaults, logger))
	mux.Handle("/api/v1/exports/hourly.csv", apihttp.NewExportCSVHandler(service, apihttp.ExportHourly, defaults, logger))
	reportHandler := apihttp.NewReportHandler(service, defaults, logger)
	mux.Handle("/api/v1/reports/export.pdf", reportHandler)
	mux.Handle("/api/v1/reports/export.xlsx", reportHandler)
	mux.Handle("/api/v1/insights", apihttp.NewInsightsHandler(service, insighter, defaults, logger))
	mux.Handle("/api/v1/users/", apihttp.NewMachinesHandler(cfg.Users))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s (source=%s)", cfg.HTTPAddr, cfg.DataSource)
	logger.Fatal(server.ListenAndServe())
}

func buildSource(ctx context.Context, cfg config.Config, db *sql.DB) (telemetry.Source, error) {
	switch cfg.DataSource {
	case config.SourceDrive:
		credentials, err := os.ReadFile(cfg.GoogleCredentials)
		if err != nil {
			return nil, err
		}
		return drive.NewClient(ctx, credentials, cfg.DriveFolderID)
	case config.SourcePostgres:
		return telemetrypostgres.NewSampleSource(db), nil
	default:
		return filesystem.NewSource(cfg.DataDir)
	}
}

func buildCache(cfg config.Config, logger *log.Logger) (application.Cache, error) {
	if cfg.RedisAddr == "" {
		return memory.NewAnalysisCache(cfg.CacheTTL), nil
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Printf("redis ping error, falling back to memory cache: %v", err)
		_ = client.Close()
		return memory.NewAnalysisCache(cfg.CacheTTL), nil
	}
	return rediscache.NewAnalysisCache(client, cfg.CacheTTL)
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
