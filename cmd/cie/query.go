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
	"strings"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cie/internal/contract"
	"github.com/kraklabs/cie/pkg/store"
)

// runQuery executes the 'query' CLI command, running a raw Datalog
// script against the ISGL1 store. Unlike store.QueryEntities, this
// bypasses EntityFilter entirely: it is the escape hatch for ad-hoc
// inspection, not part of any other component's contract.
func runQuery(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")
	limit := fs.Int("limit", 0, "Add :limit to query (0 = no limit)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cie query [options] <datalog>

Executes a raw Datalog query against the local ISGL1 store.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  cie query "?[key, name] := *isgl1_entity{isgl1_key: key, name}" --limit 10
  cie query "?[count(key)] := *isgl1_entity{isgl1_key: key}"

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: datalog argument required\n")
		fs.Usage()
		os.Exit(1)
	}
	script := fs.Arg(0)
	if *limit > 0 {
		script = strings.TrimSpace(script)
		if !strings.Contains(strings.ToLower(script), ":limit") {
			script = fmt.Sprintf("%s :limit %d", script, *limit)
		}
	}
	if res := contract.ValidateBatchScript(script); !res.OK {
		failQuery(fmt.Errorf("%s (set CIE_SOFT_LIMIT_BYTES to raise the limit)", res.Message), globals.JSON)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		failQuery(err, globals.JSON)
	}
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		failQuery(err, globals.JSON)
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		failQuery(fmt.Errorf("project '%s' not indexed yet, run 'cie index' first", cfg.ProjectID), globals.JSON)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st, err := store.OpenCozoStore(ctx, cfg.Store.Engine, dataDir, nil)
	if err != nil {
		failQuery(fmt.Errorf("cannot open store: %w", err), globals.JSON)
	}
	defer func() { _ = st.Close() }()

	result, err := st.ExecuteQuery(ctx, script, nil)
	if err != nil {
		failQuery(fmt.Errorf("query failed: %w", err), globals.JSON)
	}

	if globals.JSON {
		outputQueryJSON(result)
	} else {
		printQueryResult(result)
	}
}

func failQuery(err error, jsonOutput bool) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{"error": err.Error()})
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func outputQueryJSON(result store.QueryResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"headers": result.Headers,
		"rows":    result.Rows,
		"count":   len(result.Rows),
	})
}

func printQueryResult(result store.QueryResult) {
	if len(result.Rows) == 0 {
		fmt.Println("No results")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, h := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, strings.ToUpper(h))
	}
	fmt.Fprintln(w)
	for i := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, "---")
	}
	fmt.Fprintln(w)
	for _, row := range result.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, formatCell(cell))
		}
		fmt.Fprintln(w)
	}
	_ = w.Flush()

	fmt.Printf("\n(%d rows)\n", len(result.Rows))
}

func formatCell(v any) string {
	switch val := v.(type) {
	case string:
		if len(val) > 60 {
			return val[:57] + "..."
		}
		return val
	case float64:
		if val == float64(int(val)) {
			return fmt.Sprintf("%d", int(val))
		}
		return fmt.Sprintf("%.2f", val)
	case nil:
		return "<null>"
	default:
		s := fmt.Sprintf("%v", val)
		if len(s) > 60 {
			return s[:57] + "..."
		}
		return s
	}
}
