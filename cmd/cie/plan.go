// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/pkg/llm"
	"github.com/kraklabs/cie/pkg/store"
	"github.com/kraklabs/cie/pkg/temporal"
)

// planPrompt instructs the LLM provider to answer with nothing but a
// planned-changes document, so its raw output can be handed straight to
// temporal.ParsePlan.
const planPrompt = `Produce a planned-changes document for the following request.
Respond with ONLY a JSON object of the form:
{"operations": [
  {"op": "edit", "isgl1_key": "<key>", "future_code": "<code>"},
  {"op": "delete", "isgl1_key": "<key>"},
  {"op": "create", "file_path": "<path>", "name": "<name>", "kind": "<kind>", "code": "<code>"}
]}
No prose, no markdown fences, just the JSON object.

Request: %s`

// runPlan executes the 'plan' CLI command: it reads a planned-changes
// document (or asks an LLM provider to draft one from a natural-language
// request via --prompt) and applies each operation in order via
// pkg/temporal.Engine, stopping at the first failure.
func runPlan(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	prompt := fs.String("prompt", "", "Ask an LLM provider to draft the plan from a natural-language request, instead of reading a file")
	llmProvider := fs.String("llm-provider", "", "LLM provider for --prompt: ollama, openai, anthropic, mock (default: from environment)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cie plan [--prompt "<request>" | <file>]

Applies a planned-changes document (a JSON list of edit/delete/create
operations) against the ISGL1 store. With --prompt, an LLM provider
drafts the document from a natural-language request instead of reading
it from a file.

Example document:
  {"operations": [
    {"op": "edit", "isgl1_key": "go:function:Foo:src_x_go:10-20", "future_code": "..."},
    {"op": "delete", "isgl1_key": "go:function:Bar:src_y_go:1-5"},
    {"op": "create", "file_path": "src/z.go", "name": "Baz", "kind": "function", "code": "..."}
  ]}

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	var raw []byte
	var err error
	if *prompt != "" {
		raw, err = draftPlanFromPrompt(*llmProvider, *prompt)
		if err != nil {
			errors.FatalError(errors.NewExternalError("LLM plan drafting failed", err.Error(), "pass a plan file instead, or check the provider configuration", err), globals.JSON)
		}
	} else {
		if fs.NArg() != 1 {
			fs.Usage()
			os.Exit(1)
		}
		raw, err = os.ReadFile(fs.Arg(0)) //nolint:gosec // G304: path is an explicit CLI argument
		if err != nil {
			errors.FatalError(errors.NewFileSystemError("cannot read plan file", err.Error(), "check the path and try again", err), globals.JSON)
		}
	}

	p, err := temporal.ParsePlan(raw)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load configuration", err.Error(), "run 'cie init' first", err), globals.JSON)
	}
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot resolve data directory", err.Error(), "set store.data_dir in project.yaml", err), globals.JSON)
	}

	ctx := context.Background()
	st, err := store.OpenCozoStore(ctx, cfg.Store.Engine, dataDir, nil)
	if err != nil {
		errors.FatalError(errors.NewStoreError("cannot open store", err.Error(), "check store.engine and store.data_dir in project.yaml", err), globals.JSON)
	}
	defer func() { _ = st.Close() }()

	engine := temporal.NewEngine(st, nil)
	applied, err := engine.Apply(ctx, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Applied %d of %d operations before failing\n", applied, len(p.Operations))
		errors.FatalError(err, globals.JSON)
	}
	fmt.Printf("Applied %d operation(s)\n", applied)
}

// draftPlanFromPrompt asks an LLM provider to translate a natural-language
// request into a planned-changes document. providerType empty selects
// llm.DefaultProvider's environment-based detection (Ollama, then OpenAI,
// then Anthropic, falling back to the mock provider).
func draftPlanFromPrompt(providerType, request string) ([]byte, error) {
	var provider llm.Provider
	var err error
	if providerType == "" {
		provider, err = llm.DefaultProvider()
	} else {
		provider, err = llm.NewProvider(llm.ProviderConfig{Type: providerType})
	}
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	resp, err := provider.Generate(context.Background(), llm.GenerateRequest{
		Prompt: fmt.Sprintf(planPrompt, request),
	})
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", provider.Name(), err)
	}
	return []byte(resp.Text), nil
}
