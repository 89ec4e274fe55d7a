// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/pkg/ingest"
	"github.com/kraklabs/cie/pkg/store"
)

// runIndex executes the 'index' CLI command: one full walk-parse-resolve-
// write pass over the repository. pkg/ingest.Streamer has no incremental
// or watch mode, so every invocation re-derives the graph from source.
//
// Flags:
//   - --workers: parallel parse workers (default: from project.yaml, else 4)
//   - --include: inclusion glob, repeatable (default: from project.yaml; none restricts nothing)
//   - --debug: enable debug-level logging
//   - --metrics-addr: HTTP listen address for Prometheus metrics (empty disables)
func runIndex(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	workers := fs.Int("workers", 0, "Number of parallel parse workers (0 = use project.yaml default)")
	include := fs.StringArray("include", nil, "Inclusion glob (repeatable); only matching files are ingested")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cie index [options]

Parses the current repository into the ISGL1 store, using configuration
from .cie/project.yaml. Data is stored in the configured engine under
the project's data directory.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load configuration", err.Error(), "run 'cie init' first", err), globals.JSON)
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot resolve data directory", err.Error(), "set store.data_dir in project.yaml", err), globals.JSON)
	}

	level := slog.LevelInfo
	if *debug || globals.Verbose >= 2 {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.OpenCozoStore(ctx, cfg.Store.Engine, dataDir, logger)
	if err != nil {
		errors.FatalError(errors.NewStoreError("cannot open store", err.Error(), "check store.engine and store.data_dir in project.yaml", err), globals.JSON)
	}
	defer func() { _ = st.Close() }()

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError("cannot get current directory", err.Error(), "retry from inside the repository", err), globals.JSON)
	}

	sc := ingest.Config{
		RootPath:         cwd,
		ExcludePatterns:  cfg.Ingest.ExcludePatterns,
		IncludeGlobs:     cfg.Ingest.IncludeGlobs,
		MaxFileSizeBytes: cfg.Ingest.MaxFileSizeBytes,
		ParseWorkers:     cfg.Ingest.ParseWorkers,
		Logger:           logger,
	}
	if *workers > 0 {
		sc.ParseWorkers = *workers
	}
	if len(*include) > 0 {
		sc.IncludeGlobs = *include
	}

	progressCfg := NewProgressConfig(globals)
	spinner := NewSpinner(progressCfg, "Indexing")
	if spinner != nil {
		_ = spinner.RenderBlank()
	}

	streamer := ingest.NewStreamer(sc, st)
	snap, err := streamer.Run(ctx)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if err != nil {
		errors.FatalError(errors.NewStoreError("indexing failed", err.Error(), "check the error above and retry", err), globals.JSON)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snap)
		return
	}
	printIndexSummary(snap)
}

func printIndexSummary(snap ingest.StatsSnapshot) {
	fmt.Println("Indexing complete")
	fmt.Println("==================")
	fmt.Printf("Files walked:      %d\n", snap.FilesWalked)
	fmt.Printf("Files parsed:      %d\n", snap.FilesParsed)
	fmt.Printf("Files skipped:     %d\n", snap.FilesSkipped)
	for reason, n := range snap.SkipReasons {
		fmt.Printf("  %s: %d\n", reason, n)
	}
	fmt.Printf("Entities:          %d (%d test, %d code)\n", snap.EntitiesFound, snap.TestEntities, snap.CodeEntities)
	fmt.Printf("Syntax errors:     %d\n", snap.SyntaxErrors)
	fmt.Printf("Edges resolved:    %d\n", snap.EdgesResolved)
	fmt.Printf("Edges unresolved:  %d\n", snap.EdgesUnresolved)
	fmt.Printf("Parse:   %s\n", snap.ParseDuration)
	fmt.Printf("Resolve: %s\n", snap.ResolveDuration)
	fmt.Printf("Write:   %s\n", snap.WriteDuration)
	fmt.Printf("Total:   %s\n", snap.TotalDuration)
}

// serveMetrics runs a Prometheus /metrics HTTP endpoint until the process
// exits. Failures are logged, not fatal: metrics are diagnostic, not
// required for indexing to succeed.
func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("index.metrics.listen", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec // G114: diagnostic endpoint, no timeouts needed
		logger.Error("index.metrics.failed", "err", err)
	}
}
