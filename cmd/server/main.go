// Package main is the entry point for the code editor backend.
//
// main stays minimal: load configuration, build the logger and the optional
// Docker runner, then hand everything to internal/server. All real logic
// lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/code-editor-backend/internal/config"
	"github.com/sakif/code-editor-backend/internal/executor"
	"github.com/sakif/code-editor-backend/internal/executor/docker"
	"github.com/sakif/code-editor-backend/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// The runner is optional: without Docker the server still serves the
	// CRUD API, and the run endpoint reports 503.
	var runner executor.Executor
	if cfg.EnableRunner {
		exec, err := docker.New(docker.DefaultConfig(), logger)
		if err != nil {
			logger.Warn("Docker runner unavailable, run endpoint disabled",
				slog.String("error", err.Error()),
			)
		} else {
			defer exec.Close()
			runner = exec
		}
	}

	srv, err := server.New(*cfg, runner, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
