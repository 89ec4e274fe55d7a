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

// Command cie-index is a single-purpose binary: one walk-parse-resolve-write
// pass of a directory tree into an ISGL1 store, with no project.yaml and no
// other cie subcommands. It exists for scripting and CI pipelines that want
// indexing without the umbrella cie binary's project bootstrapping.
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

func main() {
	root := flag.StringP("root", "r", ".", "Repository root to index")
	engine := flag.String("engine", "rocksdb", "CozoDB storage engine")
	dataDir := flag.String("data-dir", "", "Store data directory (required)")
	workers := flag.Int("workers", 4, "Number of parallel parse workers")
	maxFileSize := flag.Int64("max-file-size", 2<<20, "Maximum file size to parse, in bytes")
	exclude := flag.StringArrayP("exclude", "e", nil, "Substring to exclude, matched against full path (repeatable); defaults used if omitted")
	include := flag.StringArray("include", nil, "Inclusion glob (repeatable); only matching files are ingested")
	metricsAddr := flag.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	jsonOut := flag.Bool("json", false, "Emit the result as JSON")
	flag.Parse()

	if *dataDir == "" {
		errors.FatalError(errors.NewConfigError("missing --data-dir", "no store data directory given", "pass --data-dir <path>", nil), *jsonOut)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.OpenCozoStore(ctx, *engine, *dataDir, logger)
	if err != nil {
		errors.FatalError(errors.NewStoreError("cannot open store", err.Error(), "check --engine and --data-dir", err), *jsonOut)
	}
	defer func() { _ = st.Close() }()

	excludePatterns := *exclude
	if len(excludePatterns) == 0 {
		excludePatterns = []string{"vendor/", "node_modules/", ".git/", "dist/", "build/"}
	}

	sc := ingest.Config{
		RootPath:         *root,
		ExcludePatterns:  excludePatterns,
		IncludeGlobs:     *include,
		MaxFileSizeBytes: *maxFileSize,
		ParseWorkers:     *workers,
		Logger:           logger,
	}

	streamer := ingest.NewStreamer(sc, st)
	snap, err := streamer.Run(ctx)
	if err != nil {
		errors.FatalError(errors.NewStoreError("indexing failed", err.Error(), "check the error above and retry", err), *jsonOut)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snap)
		return
	}
	fmt.Printf("files parsed: %d, entities: %d, edges resolved: %d, unresolved: %d\n",
		snap.FilesParsed, snap.EntitiesFound, snap.EdgesResolved, snap.EdgesUnresolved)
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("index.metrics.listen", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec // G114: diagnostic endpoint, no timeouts needed
		logger.Error("index.metrics.failed", "err", err)
	}
}
