package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/claude/pulseboard/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "Pulseboard server URL (e.g. https://pulseboard.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("PULSEBOARD_API_KEY"), "ingest API key (default $PULSEBOARD_API_KEY)")
	dir := flag.String("path", "", "directory of payload export files")
	email := flag.String("email", "", "user email for files without user_email")
	dryRun := flag.Bool("dry-run", false, "parse and split but don't send to server")
	batchSize := flag.Int("batch-size", 2000, "metric points per request")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("pulseboard-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" {
		fmt.Fprintf(os.Stderr, "Usage: pulseboard-upload -server <URL> -api-key <key> -path <export dir> [-email addr] [-dry-run] [-batch-size N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if (*serverURL == "" || *apiKey == "") && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server and -api-key are required (or use -dry-run)\n")
		os.Exit(1)
	}

	*serverURL = strings.TrimRight(*serverURL, "/")

	info, err := os.Stat(*dir)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *dir)
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	stateDir := filepath.Join(homeDir, ".pulseboard-upload")

	state, err := upload.OpenStateDB(stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	var sender upload.Sender
	if *dryRun {
		log.Info("DRY RUN mode: files will be parsed and split but not sent")
	} else {
		sender = upload.NewClient(*serverURL, *apiKey)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(sender, state, *dir, upload.Options{
		Email:     *email,
		BatchSize: *batchSize,
		DryRun:    *dryRun,
	}, log)
	stats, err := uploader.Run(ctx)
	printStats(stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}

	if counts, err := state.Count(ctx); err == nil {
		log.Info("state database", "metrics_files", counts["metrics"], "anomaly_files", counts["anomaly"])
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	if stats == nil {
		return
	}
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Requests:         %d\n", stats.Requests)
	fmt.Printf("  Metric points:    %d sent, %d inserted\n", stats.PointsSent, stats.PointsInserted)
	fmt.Printf("  Sleep sessions:   %d\n", stats.SleepSent)
	fmt.Printf("  Anomaly reports:  %d\n", stats.AnomalyReports)

	if len(stats.RejectedMetrics) > 0 {
		fmt.Printf("\n  Rejected metrics (not in catalog):\n")
		for _, m := range stats.RejectedMetrics {
			fmt.Printf("    - %s\n", m)
		}
	}
	fmt.Println()
}
