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

// Command cie-plan is a single-purpose binary: it applies one planned-changes
// document against an existing ISGL1 store and exits. It exists for CI and
// scripting contexts that already know the store's data directory and do not
// want the umbrella cie binary's project.yaml bootstrapping.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/pkg/store"
	"github.com/kraklabs/cie/pkg/temporal"
)

func main() {
	engine := flag.String("engine", "rocksdb", "CozoDB storage engine")
	dataDir := flag.String("data-dir", "", "Store data directory (required)")
	jsonOut := flag.Bool("json", false, "Emit the result as JSON")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cie-plan --data-dir <path> <plan-file>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *dataDir == "" {
		errors.FatalError(errors.NewConfigError("missing --data-dir", "no store data directory given", "pass --data-dir <path>", nil), *jsonOut)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	raw, err := os.ReadFile(flag.Arg(0)) //nolint:gosec // G304: path is an explicit CLI argument
	if err != nil {
		errors.FatalError(errors.NewFileSystemError("cannot read plan file", err.Error(), "check the path and try again", err), *jsonOut)
	}

	p, err := temporal.ParsePlan(raw)
	if err != nil {
		errors.FatalError(err, *jsonOut)
	}

	ctx := context.Background()
	st, err := store.OpenCozoStore(ctx, *engine, *dataDir, nil)
	if err != nil {
		errors.FatalError(errors.NewStoreError("cannot open store", err.Error(), "check --engine and --data-dir", err), *jsonOut)
	}
	defer func() { _ = st.Close() }()

	engineState := temporal.NewEngine(st, nil)
	applied, err := engineState.Apply(ctx, p)
	if err != nil {
		if *jsonOut {
			enc := json.NewEncoder(os.Stdout)
			_ = enc.Encode(map[string]any{"applied": applied, "total": len(p.Operations), "error": err.Error()})
		}
		fmt.Fprintf(os.Stderr, "applied %d of %d operations before failing\n", applied, len(p.Operations))
		errors.FatalError(err, *jsonOut)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		_ = enc.Encode(map[string]any{"applied": applied, "total": len(p.Operations)})
		return
	}
	fmt.Printf("applied %d operation(s)\n", applied)
}
