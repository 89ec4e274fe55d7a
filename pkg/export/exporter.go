// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	cieerrors "github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/internal/output"
	"github.com/kraklabs/cie/pkg/isgl1"
	"github.com/kraklabs/cie/pkg/store"
)

// Options configures one Export call.
type Options struct {
	Level       Level
	IncludeCode bool      // include current_code (multiplies output size substantially)
	Where       string    // optional substring filter against file_path
	OutBase     string    // directory prefix; a timestamp is appended
	Delimiter   Delimiter // toon companion delimiter; defaults to DelimTab
}

// Exporter reads a Store and writes level-tiered JSON plus a compact
// companion format to a timestamped output directory. It holds no state
// beyond the Store handle: every Export call is a fresh snapshot.
type Exporter struct {
	store  store.Store
	logger *slog.Logger
}

// NewExporter constructs an Exporter reading from st.
func NewExporter(st store.Store, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{store: st, logger: logger}
}

// Export runs one export session: it reads every entity and then every
// edge from the store (two calls), computes adjacency, and writes the
// requested level's code/test JSON and toon files to a freshly created
// timestamped directory. Returns the directory path.
func (ex *Exporter) Export(ctx context.Context, opts Options) (string, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = DelimTab
	}

	entities, err := ex.store.GetAllEntities(ctx)
	if err != nil {
		return "", cieerrors.NewStoreError(
			"failed to read entities for export",
			err.Error(),
			"confirm the store path is correct and readable",
			err,
		)
	}
	edges, err := ex.store.GetAllDependencies(ctx)
	if err != nil {
		return "", cieerrors.NewStoreError(
			"failed to read dependency edges for export",
			err.Error(),
			"confirm the store path is correct and readable",
			err,
		)
	}

	if opts.Where != "" {
		entities = filterByPathSubstring(entities, opts.Where)
	}

	adj := buildAdjacency(entities, edges)
	if adj.dropped > 0 {
		ex.logger.Warn("export.adjacency.dropped", "count", adj.dropped)
	}

	outDir := fmt.Sprintf("%s%s", opts.OutBase, time.Now().Format("20060102150405"))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", cieerrors.NewFileSystemError(
			"failed to create export output directory",
			err.Error(),
			"check write permissions on "+filepath.Dir(outDir),
			err,
		)
	}

	codeEntities, testEntities := splitByClass(entities)

	var levelErr error
	switch opts.Level {
	case Level0:
		levelErr = ex.writeLevel0(outDir, codeEntities, testEntities, edges, opts)
	case Level1:
		levelErr = ex.writeLevel1(outDir, codeEntities, testEntities, adj, opts)
	case Level2:
		levelErr = ex.writeLevel2(outDir, codeEntities, testEntities, adj, opts)
	default:
		levelErr = cieerrors.NewConfigError(
			"invalid export level",
			fmt.Sprintf("level=%d", opts.Level),
			"use --level 0, 1, or 2",
			nil,
		)
	}
	if levelErr != nil {
		return "", levelErr
	}

	ex.logger.Info("export.run.complete", "dir", outDir, "level", opts.Level, "entities", len(entities), "edges", len(edges))
	return outDir, nil
}

func splitByClass(entities []isgl1.Entity) (code, test []isgl1.Entity) {
	for _, e := range entities {
		if e.Class == isgl1.TestImplementation {
			test = append(test, e)
		} else {
			code = append(code, e)
		}
	}
	return code, test
}

func filterByPathSubstring(entities []isgl1.Entity, substr string) []isgl1.Entity {
	var out []isgl1.Entity
	for _, e := range entities {
		if strings.Contains(e.Signature.FilePath, substr) {
			out = append(out, e)
		}
	}
	return out
}

func (ex *Exporter) writeLevel0(outDir string, codeEntities, testEntities []isgl1.Entity, edges []isgl1.Edge, opts Options) error {
	codeKeys := entityKeySet(codeEntities)
	testKeys := entityKeySet(testEntities)

	var codeDoc, testDoc Level0Document
	for _, edge := range edges {
		rec := EdgeRecord{FromKey: edge.FromKey, ToKey: edge.ToKey, Kind: edge.Kind}
		switch {
		case codeKeys[edge.FromKey]:
			codeDoc.Edges = append(codeDoc.Edges, rec)
		case testKeys[edge.FromKey]:
			testDoc.Edges = append(testDoc.Edges, rec)
		}
	}
	return ex.writePair(outDir, "level0", codeDoc, testDoc, edgeRecordsAsAny(codeDoc.Edges), edgeRecordsAsAny(testDoc.Edges), opts)
}

func (ex *Exporter) writeLevel1(outDir string, codeEntities, testEntities []isgl1.Entity, adj adjacency, opts Options) error {
	codeRows := make([]Level1Entity, 0, len(codeEntities))
	for _, e := range codeEntities {
		codeRows = append(codeRows, newLevel1Entity(e, adj, opts.IncludeCode))
	}
	testRows := make([]Level1Entity, 0, len(testEntities))
	for _, e := range testEntities {
		testRows = append(testRows, newLevel1Entity(e, adj, opts.IncludeCode))
	}
	return ex.writePair(outDir, "level1", codeRows, testRows, level1RowsAsAny(codeRows), level1RowsAsAny(testRows), opts)
}

func (ex *Exporter) writeLevel2(outDir string, codeEntities, testEntities []isgl1.Entity, adj adjacency, opts Options) error {
	codeRows := make([]Level2Entity, 0, len(codeEntities))
	for _, e := range codeEntities {
		codeRows = append(codeRows, Level2Entity{Level1Entity: newLevel1Entity(e, adj, opts.IncludeCode), Type: newTypeInfo(e.Signature)})
	}
	testRows := make([]Level2Entity, 0, len(testEntities))
	for _, e := range testEntities {
		testRows = append(testRows, Level2Entity{Level1Entity: newLevel1Entity(e, adj, opts.IncludeCode), Type: newTypeInfo(e.Signature)})
	}
	return ex.writePair(outDir, "level2", codeRows, testRows, level2RowsAsAny(codeRows), level2RowsAsAny(testRows), opts)
}

func newLevel1Entity(e isgl1.Entity, adj adjacency, includeCode bool) Level1Entity {
	out := Level1Entity{
		Key:         e.Key,
		Signature:   e.Signature,
		FilePath:    e.Signature.FilePath,
		Line:        e.Signature.Lines,
		ForwardDeps: adj.forward[e.Key],
		ReverseDeps: adj.reverse[e.Key],
		Temporal:    newTemporalRecord(e.Temporal),
		DocComment:  e.Signature.DocComment,
	}
	if includeCode {
		out.CurrentCode = e.CurrentCode
	}
	if e.Temporal.FutureActionValue() != isgl1.ActionNone {
		out.FutureCode = e.FutureCode
	}
	return out
}

// writePair writes {name}.json / {name}_test.json plus their toon
// companions. codeDoc/testDoc back the JSON encoding; codeAny/testAny
// are the same data as []any for the toon encoder's row-oriented input
// (for level 0, the edge rows). A toon file is written only when its
// []any is non-nil.
func (ex *Exporter) writePair(outDir, name string, codeDoc, testDoc any, codeAny, testAny []any, opts Options) error {
	if err := ex.writeJSON(outDir, name+".json", codeDoc); err != nil {
		return err
	}
	if err := ex.writeJSON(outDir, name+"_test.json", testDoc); err != nil {
		return err
	}
	if codeAny != nil {
		if err := ex.writeToon(outDir, name+".toon", name, codeAny, opts.Delimiter); err != nil {
			return err
		}
	}
	if testAny != nil {
		if err := ex.writeToon(outDir, name+"_test.toon", name+"_test", testAny, opts.Delimiter); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Exporter) writeJSON(outDir, filename string, data any) error {
	f, err := os.Create(filepath.Join(outDir, filename))
	if err != nil {
		return cieerrors.NewFileSystemError(
			"failed to create export file",
			err.Error(),
			"check write permissions on "+outDir,
			err,
		)
	}
	defer f.Close()
	if err := output.JSONTo(f, data); err != nil {
		return cieerrors.NewSerializationError(
			"failed to encode export output",
			err.Error(),
			"report this as a bug; the data should always be JSON-serializable",
			err,
		)
	}
	return nil
}

func (ex *Exporter) writeToon(outDir, filename, name string, rows []any, delim Delimiter) error {
	text, err := EncodeToon(name, rows, delim)
	if err != nil {
		return cieerrors.NewSerializationError(
			"failed to encode toon output",
			err.Error(),
			"report this as a bug",
			err,
		)
	}
	if err := os.WriteFile(filepath.Join(outDir, filename), []byte(text), 0o644); err != nil {
		return cieerrors.NewFileSystemError(
			"failed to write toon output",
			err.Error(),
			"check write permissions on "+outDir,
			err,
		)
	}
	return nil
}

func entityKeySet(entities []isgl1.Entity) map[string]bool {
	set := make(map[string]bool, len(entities))
	for _, e := range entities {
		set[e.Key] = true
	}
	return set
}

func edgeRecordsAsAny(rows []EdgeRecord) []any {
	if len(rows) == 0 {
		return nil
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

func level1RowsAsAny(rows []Level1Entity) []any {
	if len(rows) == 0 {
		return nil
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

func level2RowsAsAny(rows []Level2Entity) []any {
	if len(rows) == 0 {
		return nil
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
