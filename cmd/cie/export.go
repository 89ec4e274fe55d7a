// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/pkg/export"
	"github.com/kraklabs/cie/pkg/store"
)

// runExport executes the 'export' CLI command: a single read-only pass
// over the ISGL1 store that writes a level-tiered, dual code/test JSON
// snapshot (plus its toon companion) to a timestamped directory.
func runExport(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	level := fs.Int("level", 1, "Export level: 0 (edges), 1 (node-centric), 2 (type-system essentials)")
	includeCode := fs.Bool("include-code", false, "Include current_code in the export (multiplies output size)")
	where := fs.String("where", "", "Only export entities whose file_path contains this substring")
	outBase := fs.String("out", "", "Output directory prefix (default: .cie/export-)")
	delim := fs.String("delimiter", "tab", "Toon companion delimiter: tab, comma, or pipe")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cie export [options]

Writes a context-export snapshot of the ISGL1 store to a timestamped
directory.

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

	var lvl export.Level
	switch *level {
	case 0:
		lvl = export.Level0
	case 1:
		lvl = export.Level1
	case 2:
		lvl = export.Level2
	default:
		errors.FatalError(errors.NewConfigError("invalid --level", fmt.Sprintf("level=%d", *level), "use --level 0, 1, or 2", nil), globals.JSON)
	}

	var d export.Delimiter
	switch *delim {
	case "tab":
		d = export.DelimTab
	case "comma":
		d = export.DelimComma
	case "pipe":
		d = export.DelimPipe
	default:
		errors.FatalError(errors.NewConfigError("invalid --delimiter", *delim, "use tab, comma, or pipe", nil), globals.JSON)
	}

	base := *outBase
	if base == "" {
		base = filepath.Join(ConfigDir("."), "export-")
	}

	ctx := context.Background()
	st, err := store.OpenCozoStore(ctx, cfg.Store.Engine, dataDir, nil)
	if err != nil {
		errors.FatalError(errors.NewStoreError("cannot open store", err.Error(), "check store.engine and store.data_dir in project.yaml", err), globals.JSON)
	}
	defer func() { _ = st.Close() }()

	ex := export.NewExporter(st, nil)
	outDir, err := ex.Export(ctx, export.Options{
		Level:       lvl,
		IncludeCode: *includeCode,
		Where:       *where,
		OutBase:     base,
		Delimiter:   d,
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	fmt.Printf("Export written to %s\n", outDir)
}
