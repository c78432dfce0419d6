package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/pulseboard/internal/config"
	"github.com/claude/pulseboard/internal/importer"
	"github.com/claude/pulseboard/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dir := flag.String("path", "", "directory of payload export files (required)")
	email := flag.String("email", "", "user email for files without user_email")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" {
		fmt.Fprintf(os.Stderr, "Usage: pulseboard-import -config config.yaml -path /path/to/exports [-email you@example.com] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*dir)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *dir)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	loc, err := cfg.Dashboard.Location()
	if err != nil {
		log.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	version, err := storage.RunMigrations(dsn, "migrations")
	if err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "version", version)

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	db, err := storage.New(ctx, dsn, cfg.Database.MaxConns)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	imp := importer.New(db, importer.Options{
		Email:    *email,
		Location: loc,
		DryRun:   *dryRun,
	}, log)
	stats, err := imp.Import(ctx, *dir)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	if stats == nil {
		return
	}
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"points_inserted", stats.PointsInserted,
		"points_duplicated", stats.PointsDuplicated,
		"points_dropped", stats.PointsDropped,
		"sleep_inserted", stats.SleepInserted,
		"anomaly_reports", stats.AnomalyReports,
	)
	if len(stats.RejectedMetrics) > 0 {
		log.Info("rejected metrics (not in catalog)", "metrics", stats.RejectedMetrics)
	}
}
