package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"packline-analytics/internal/config"
	"packline-analytics/internal/ingest"
	"packline-analytics/internal/ingest/csvsource"
	ingestpostgres "packline-analytics/internal/ingest/postgres"
	"packline-analytics/internal/observability/metrics"
	"packline-analytics/internal/reporting/application"
	reportpostgres "packline-analytics/internal/reporting/infrastructure/postgres"
	"packline-analytics/internal/reporting/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)
	metrics.Init(logger)

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
	}

	sources, err := buildSources(cfg, db)
	if err != nil {
		logger.Fatalf("source error: %v", err)
	}
	sink, err := buildSink(cfg, db)
	if err != nil {
		logger.Fatalf("sink error: %v", err)
	}

	throughput, err := application.NewThroughputService(
		sources.oee, sources.packs, sink, cfg.Throughput.PlannedCyclesPerMinute, logger,
	)
	if err != nil {
		logger.Fatalf("throughput service error: %v", err)
	}
	rejects, err := application.NewRejectService(
		sources.packs, sources.recipes, sources.errors, sink, logger,
	)
	if err != nil {
		logger.Fatalf("reject service error: %v", err)
	}
	production, err := application.NewForecastService(sources.packs, sink, application.ForecastParams{
		SeasonalPeriod:  cfg.Forecast.SeasonalPeriod,
		Smoothing:       cfg.Forecast.Smoothing,
		Horizon:         cfg.Forecast.HorizonShifts,
		Confidence:      cfg.Forecast.Confidence,
		ShiftLength:     time.Duration(cfg.Forecast.ShiftHours) * time.Hour,
		ReportingWindow: time.Duration(cfg.Forecast.ReportingDays) * 24 * time.Hour,
		CalendarStart:   cfg.Forecast.CalendarStartTime(),
	}, logger)
	if err != nil {
		logger.Fatalf("forecast service error: %v", err)
	}

	ctx := context.Background()
	failed := false
	reports := []struct {
		name string
		run  func(context.Context) error
	}{
		{"throughput", throughput.Run},
		{"rejects", rejects.Run},
		{"forecast", production.Run},
	}
	for _, r := range reports {
		if err := r.run(ctx); err != nil {
			logger.Printf("report %s failed: %v", r.name, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

type streamSources struct {
	oee     ingest.Source
	packs   ingest.Source
	recipes ingest.Source
	errors  ingest.Source
}

func buildSources(cfg config.Config, db *sql.DB) (streamSources, error) {
	if db != nil && cfg.DataDir == "" {
		return buildPostgresSources(db)
	}
	return buildCSVSources(cfg)
}

func buildCSVSources(cfg config.Config) (streamSources, error) {
	var (
		s   streamSources
		err error
	)
	if s.oee, err = csvsource.New(filepath.Join(cfg.DataDir, cfg.Files.OEE), csvsource.Columns{
		Timestamp: "timestamp",
		Numeric:   []string{"expected_cycles_per_minute", "actual_cycles_per_minute"},
	}); err != nil {
		return s, err
	}
	if s.packs, err = csvsource.New(filepath.Join(cfg.DataDir, cfg.Files.Packages), csvsource.Columns{
		Timestamp: "timestamp",
		Numeric:   []string{"good_packs", "reject_packs"},
	}); err != nil {
		return s, err
	}
	if s.recipes, err = csvsource.New(filepath.Join(cfg.DataDir, cfg.Files.Recipes), csvsource.Columns{
		Timestamp: "timestamp",
		Text:      []string{"recipe"},
	}); err != nil {
		return s, err
	}
	if s.errors, err = csvsource.New(filepath.Join(cfg.DataDir, cfg.Files.Errors), csvsource.Columns{
		Timestamp: "start_ts",
		Numeric:   []string{"duration_in_s"},
		Text:      []string{"code"},
	}); err != nil {
		return s, err
	}
	return s, nil
}

func buildPostgresSources(db *sql.DB) (streamSources, error) {
	var (
		s   streamSources
		err error
	)
	if s.oee, err = ingestpostgres.NewSource(db, "oee"); err != nil {
		return s, err
	}
	if s.packs, err = ingestpostgres.NewSource(db, "packs"); err != nil {
		return s, err
	}
	if s.recipes, err = ingestpostgres.NewSource(db, "recipes"); err != nil {
		return s, err
	}
	if s.errors, err = ingestpostgres.NewSource(db, "errors"); err != nil {
		return s, err
	}
	return s, nil
}

func buildSink(cfg config.Config, db *sql.DB) (application.ReportSink, error) {
	if cfg.OutputFormat == "postgres" {
		if db == nil {
			return nil, errors.New("postgres output needs DATABASE_URL")
		}
		return reportpostgres.NewReportWriter(db)
	}
	return interfaces.NewFileSink(cfg.OutputDir, interfaces.FileFormat(cfg.OutputFormat), interfaces.CSVOptions{})
}

func serveMetrics(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Printf("metrics server stopped: %v", err)
	}
}
