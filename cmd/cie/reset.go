// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/pkg/store"
	"github.com/kraklabs/cie/pkg/temporal"
)

// runReset executes the 'reset' CLI command.
//
// By default it is the soft reset of the temporal change engine: every
// entity's future columns revert to (current_ind, false, None) and
// unmaterialized planned-Creates are pruned, exactly as
// pkg/temporal.Engine.Reset documents. With --hard it instead deletes
// the entire store directory, requiring --yes since that also discards
// the current index and needs a full 'cie index' to rebuild.
func runReset(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	hard := fs.Bool("hard", false, "Delete the entire store instead of reverting planned changes")
	confirm := fs.Bool("yes", false, "Confirm a --hard reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cie reset [options]

Reverts every entity's planned (future) changes back to its current
indexed state, and prunes entities that were only ever a planned Create.

With --hard, deletes the entire store directory instead. This is
destructive and cannot be undone; pass --yes to confirm.

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

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		fmt.Printf("No local data found for project %s\n", cfg.ProjectID)
		return
	}

	if *hard {
		if !*confirm {
			fmt.Fprintf(os.Stderr, "Error: --hard requires --yes to confirm\n")
			fmt.Fprintf(os.Stderr, "This will delete all indexed data for the project.\n")
			os.Exit(1)
		}
		fmt.Printf("Deleting %s...\n", dataDir)
		if err := os.RemoveAll(dataDir); err != nil {
			errors.FatalError(errors.NewFileSystemError("failed to delete store", err.Error(), "check permissions on "+dataDir, err), globals.JSON)
		}
		fmt.Println("Store deleted. Run 'cie index' to rebuild it from source.")
		return
	}

	ctx := context.Background()
	st, err := store.OpenCozoStore(ctx, cfg.Store.Engine, dataDir, nil)
	if err != nil {
		errors.FatalError(errors.NewStoreError("cannot open store", err.Error(), "check store.engine and store.data_dir in project.yaml", err), globals.JSON)
	}
	defer func() { _ = st.Close() }()

	engine := temporal.NewEngine(st, nil)
	if err := engine.Reset(ctx); err != nil {
		errors.FatalError(errors.NewTemporalError("reset failed", err.Error(), "check the error above and retry", err), globals.JSON)
	}
	fmt.Println("Planned changes reverted. All entities are back to their indexed state.")
}
