package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/pulseboard/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Pulseboard server URL")
	email := flag.String("email", os.Getenv("PULSEBOARD_EMAIL"), "user email for tools called without one (default $PULSEBOARD_EMAIL)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("pulseboard-mcp", Version)
		return
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("Pulseboard MCP starting", "version", Version, "server", *serverURL)

	s := mcp.New(mcp.NewHTTPClient(*serverURL), mcp.Options{
		Version:      Version,
		DefaultEmail: *email,
	}, log)
	if err := mcp.ServeStdio(s); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
