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
	"encoding/json"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cie/internal/bootstrap"
	"github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/pkg/store"
)

// StatusResult represents the project status for JSON output.
type StatusResult struct {
	ProjectID string    `json:"project_id"`
	DataDir   string    `json:"data_dir"`
	Connected bool      `json:"connected"`
	Entities  int       `json:"entities"`
	Changed   int       `json:"changed"`
	Edges     int       `json:"edges"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// runStatus executes the 'status' CLI command, reporting entity, edge,
// and pending-change counts from the local ISGL1 store.
//
// Flags:
//   - --json: output results as JSON (default: false)
//   - --all: list every project under ~/.cie/data instead of the local one
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	all := fs.Bool("all", false, "List every project under ~/.cie/data instead of the current one")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cie status [options]\n\nShows local project status.\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	jsonOutput := globals.JSON

	if *all {
		runStatusAll(jsonOutput)
		return
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		emitStatusError(&StatusResult{Error: err.Error(), Timestamp: time.Now()}, jsonOutput)
		os.Exit(1)
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		emitStatusError(&StatusResult{ProjectID: cfg.ProjectID, Error: err.Error(), Timestamp: time.Now()}, jsonOutput)
		os.Exit(1)
	}

	result := &StatusResult{ProjectID: cfg.ProjectID, DataDir: dataDir, Timestamp: time.Now()}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		result.Error = "Project not indexed yet. Run 'cie index' first."
		emitStatusResult(result, jsonOutput)
		os.Exit(0)
	}

	ctx := context.Background()
	st, err := store.OpenCozoStore(ctx, cfg.Store.Engine, dataDir, nil)
	if err != nil {
		result.Error = fmt.Sprintf("cannot open store: %v", err)
		emitStatusError(result, jsonOutput)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	result.Connected = true
	entities, err := st.GetAllEntities(ctx)
	if err != nil {
		errors.FatalError(errors.NewStoreError("failed to read entities", err.Error(), "check the store path", err), jsonOutput)
	}
	result.Entities = len(entities)

	changed, err := st.GetChangedEntities(ctx)
	if err != nil {
		errors.FatalError(errors.NewStoreError("failed to read changed entities", err.Error(), "check the store path", err), jsonOutput)
	}
	result.Changed = len(changed)

	edges, err := st.GetAllDependencies(ctx)
	if err != nil {
		errors.FatalError(errors.NewStoreError("failed to read dependency edges", err.Error(), "check the store path", err), jsonOutput)
	}
	result.Edges = len(edges)

	emitStatusResult(result, jsonOutput)
}

// runStatusAll lists every project found under the default data
// directory (~/.cie/data), independent of the current directory's
// .cie/project.yaml.
func runStatusAll(jsonOutput bool) {
	projects, err := bootstrap.ListProjects()
	if err != nil {
		errors.FatalError(errors.NewFileSystemError("cannot list projects", err.Error(), "check permissions on ~/.cie/data", err), jsonOutput)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{"projects": projects})
		return
	}

	if len(projects) == 0 {
		fmt.Println("No projects found under ~/.cie/data")
		return
	}
	fmt.Println("CIE Projects")
	fmt.Println("============")
	for _, p := range projects {
		fmt.Printf("  %s\n", p)
	}
}

func emitStatusError(result *StatusResult, jsonOutput bool) {
	if jsonOutput {
		emitStatusResult(result, true)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
}

func emitStatusResult(result *StatusResult, jsonOutput bool) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}
	printLocalStatus(result)
}

func printLocalStatus(result *StatusResult) {
	fmt.Println("CIE Project Status")
	fmt.Println("==================")
	fmt.Printf("Project ID:  %s\n", result.ProjectID)
	fmt.Printf("Data Dir:    %s\n", result.DataDir)
	fmt.Println()

	if !result.Connected {
		if result.Error != "" {
			fmt.Println(result.Error)
		}
		return
	}

	fmt.Println("ISGL1 graph:")
	fmt.Printf("  Entities:   %d\n", result.Entities)
	fmt.Printf("  Changed:    %d (pending Create/Edit/Delete)\n", result.Changed)
	fmt.Printf("  Edges:      %d\n", result.Edges)
}
