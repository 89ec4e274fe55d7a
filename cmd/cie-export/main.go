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

// Command cie-export is a single-purpose binary: one read-only export pass
// over an existing ISGL1 store, writing a level-tiered JSON/toon snapshot to
// a directory. It exists for CI and scripting contexts that already know the
// store's data directory and do not want the umbrella cie binary's
// project.yaml bootstrapping.
package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/pkg/export"
	"github.com/kraklabs/cie/pkg/store"
)

func main() {
	engine := flag.String("engine", "rocksdb", "CozoDB storage engine")
	dataDir := flag.String("data-dir", "", "Store data directory (required)")
	level := flag.Int("level", 1, "Export level: 0 (edges), 1 (node-centric), 2 (type-system essentials)")
	includeCode := flag.Bool("include-code", false, "Include current_code in the export (multiplies output size)")
	where := flag.String("where", "", "Only export entities whose file_path contains this substring")
	outBase := flag.String("out", "./cie-export-", "Output directory prefix")
	delim := flag.String("delimiter", "tab", "Toon companion delimiter: tab, comma, or pipe")
	jsonOut := flag.Bool("json", false, "Emit the result as JSON")
	flag.Parse()

	if *dataDir == "" {
		errors.FatalError(errors.NewConfigError("missing --data-dir", "no store data directory given", "pass --data-dir <path>", nil), *jsonOut)
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
		errors.FatalError(errors.NewConfigError("invalid --level", fmt.Sprintf("level=%d", *level), "use --level 0, 1, or 2", nil), *jsonOut)
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
		errors.FatalError(errors.NewConfigError("invalid --delimiter", *delim, "use tab, comma, or pipe", nil), *jsonOut)
	}

	ctx := context.Background()
	st, err := store.OpenCozoStore(ctx, *engine, *dataDir, nil)
	if err != nil {
		errors.FatalError(errors.NewStoreError("cannot open store", err.Error(), "check --engine and --data-dir", err), *jsonOut)
	}
	defer func() { _ = st.Close() }()

	ex := export.NewExporter(st, nil)
	outDir, err := ex.Export(ctx, export.Options{
		Level:       lvl,
		IncludeCode: *includeCode,
		Where:       *where,
		OutBase:     *outBase,
		Delimiter:   d,
	})
	if err != nil {
		errors.FatalError(err, *jsonOut)
	}
	fmt.Println(outDir)
}
