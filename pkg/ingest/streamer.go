// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/kraklabs/cie/pkg/isgl1"
	"github.com/kraklabs/cie/pkg/parser"
	"github.com/kraklabs/cie/pkg/store"
)

// Config configures one Streamer.Run call.
type Config struct {
	RootPath string

	// ExcludePatterns is matched as a substring against each file's full
	// relative path.
	ExcludePatterns []string

	// IncludeGlobs, when non-empty, restricts the walk to files matching
	// at least one of these globs; a file surviving exclusion but
	// matching no inclusion pattern is still skipped.
	IncludeGlobs []string

	MaxFileSizeBytes int64
	ParseWorkers     int
	Logger           *slog.Logger
}

// Streamer walks a project tree, parses every supported file, assigns
// ISGL1 keys, resolves calls project-wide, and writes the resulting
// entities and edges to a Store. One Run call is the complete lifecycle:
// there is no incremental or watch mode.
type Streamer struct {
	cfg    Config
	store  store.Store
	parser *parser.Parser
	logger *slog.Logger
}

// NewStreamer constructs a Streamer writing to the given Store.
func NewStreamer(cfg Config, st store.Store) *Streamer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = 4
	}
	return &Streamer{
		cfg:    cfg,
		store:  st,
		parser: parser.NewParser(cfg.Logger),
		logger: cfg.Logger,
	}
}

// fileOutcome is the per-file result of the parse stage, keyed back to
// its originating walkFile for classification.
type fileOutcome struct {
	file   walkFile
	result *parser.ParseResult
	err    error
}

// Run executes one full ingestion pass and returns the accumulated
// statistics.
func (s *Streamer) Run(ctx context.Context) (StatsSnapshot, error) {
	metrics.init()
	stats := newStats()
	start := time.Now()
	defer func() {
		stats.mu.Lock()
		stats.TotalDuration = time.Since(start)
		stats.mu.Unlock()
		metrics.runDuration.Observe(time.Since(start).Seconds())
	}()

	files, skipReasons, err := walkTree(s.cfg.RootPath, s.cfg.ExcludePatterns, s.cfg.IncludeGlobs, s.cfg.MaxFileSizeBytes, s.logger)
	if err != nil {
		return stats.Snapshot(), fmt.Errorf("ingest: walk %s: %w", s.cfg.RootPath, err)
	}
	for reason, n := range skipReasons {
		stats.addSkip(reason, n)
	}
	stats.mu.Lock()
	stats.FilesWalked = len(files) + stats.FilesSkipped
	stats.mu.Unlock()
	metrics.filesWalked.Add(float64(stats.FilesWalked))

	sort.Slice(files, func(i, j int) bool { return files[i].Info.Path < files[j].Info.Path })

	parseStart := time.Now()
	outcomes := s.parseAll(ctx, files, stats)
	stats.mu.Lock()
	stats.ParseDuration = time.Since(parseStart)
	stats.mu.Unlock()

	resolveStart := time.Now()
	entities, edges := s.assignKeysAndResolve(outcomes, stats)
	stats.mu.Lock()
	stats.ResolveDuration = time.Since(resolveStart)
	stats.mu.Unlock()

	writeStart := time.Now()
	if err := s.write(ctx, entities, edges); err != nil {
		return stats.Snapshot(), err
	}
	stats.mu.Lock()
	stats.WriteDuration = time.Since(writeStart)
	stats.mu.Unlock()

	s.logger.Info("ingest.run.complete",
		"files_parsed", stats.Snapshot().FilesParsed,
		"entities", len(entities),
		"edges", len(edges),
	)
	return stats.Snapshot(), nil
}

func (s *Streamer) parseAll(ctx context.Context, files []walkFile, stats *Stats) []fileOutcome {
	if len(files) < 10 || s.cfg.ParseWorkers <= 1 {
		return s.parseSequential(ctx, files, stats)
	}
	return s.parseParallel(ctx, files, stats)
}

func (s *Streamer) parseOne(ctx context.Context, wf walkFile) fileOutcome {
	if !wf.Known {
		return fileOutcome{file: wf}
	}
	content, err := os.ReadFile(wf.Info.FullPath)
	if err != nil {
		return fileOutcome{file: wf, err: err}
	}
	result, err := s.parser.ParseFile(ctx, wf.Info, content)
	if err != nil {
		return fileOutcome{file: wf, err: err}
	}
	return fileOutcome{file: wf, result: result}
}

func (s *Streamer) parseSequential(ctx context.Context, files []walkFile, stats *Stats) []fileOutcome {
	outcomes := make([]fileOutcome, 0, len(files))
	for _, f := range files {
		select {
		case <-ctx.Done():
			return outcomes
		default:
		}
		outcome := s.parseOne(ctx, f)
		s.tallyOutcome(outcome, stats)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *Streamer) parseParallel(ctx context.Context, files []walkFile, stats *Stats) []fileOutcome {
	jobs := make(chan int, len(files))
	results := make(chan struct {
		index   int
		outcome fileOutcome
	}, len(files))

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.ParseWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results <- struct {
					index   int
					outcome fileOutcome
				}{index: i, outcome: s.parseOne(ctx, files[i])}
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]fileOutcome, len(files))
	for r := range results {
		outcomes[r.index] = r.outcome
	}
	for _, o := range outcomes {
		s.tallyOutcome(o, stats)
	}
	return outcomes
}

func (s *Streamer) tallyOutcome(o fileOutcome, stats *Stats) {
	if o.err != nil {
		stats.addSkip("parse_error", 1)
		s.logger.Warn("ingest.parse.error", "path", o.file.Info.Path, "err", o.err)
		return
	}
	if o.result == nil {
		stats.addSkip("unsupported_language", 1)
		return
	}
	if o.result.Skipped {
		stats.addSkip("skipped", 1)
		return
	}
	testEntities := 0
	fileIsTest := classifyFile(o.file.Info.Path)
	for _, e := range o.result.Entities {
		if entityClass(fileIsTest, e.Signature.Kind) == isgl1.TestImplementation {
			testEntities++
		}
	}
	stats.recordFile(len(o.result.Entities), testEntities, o.result.SyntaxErrorCount)
	metrics.filesParsed.Inc()
	metrics.entitiesFound.Add(float64(len(o.result.Entities)))
}

// assignKeysAndResolve generates ISGL1 keys for every extracted entity,
// builds project-wide call edges via pkg/parser.CallResolver, and returns
// the final entity and edge sets ready for Store insertion.
func (s *Streamer) assignKeysAndResolve(outcomes []fileOutcome, stats *Stats) ([]isgl1.Entity, []isgl1.Edge) {
	now := time.Now()
	resolver := parser.NewCallResolver()

	var entities []isgl1.Entity
	var allUnresolved []parser.UnresolvedCall
	var directEdges []isgl1.Edge

	for _, o := range outcomes {
		if o.result == nil || o.result.Skipped {
			continue
		}
		fileIsTest := classifyFile(o.file.Info.Path)

		var fileEntities []parser.IndexedEntity
		keyByName := make(map[string]string, len(o.result.Entities))
		for _, ee := range o.result.Entities {
			key, err := isgl1.GenerateLineKey(ee.Signature.Language, ee.Signature.Kind, ee.Signature.Name, ee.Signature.FilePath, ee.Signature.Lines)
			if err != nil {
				s.logger.Warn("ingest.key.error", "path", ee.Signature.FilePath, "name", ee.Signature.Name, "err", err)
				continue
			}
			entity := isgl1.Entity{
				Key:         key,
				Signature:   ee.Signature,
				CurrentCode: ee.CodeText,
				Temporal:    isgl1.Indexed(),
				Class:       entityClass(fileIsTest, ee.Signature.Kind),
				CreatedAt:   now,
				UpdatedAt:   now,
				Provenance:  "ingest",
			}
			entities = append(entities, entity)
			keyByName[ee.Signature.Name] = key
			fileEntities = append(fileEntities, parser.IndexedEntity{
				Key: key, Name: ee.Signature.Name, FilePath: ee.Signature.FilePath, Language: ee.Signature.Language,
			})
		}

		imports := importAliasMap(o.result.Dependencies)
		resolver.Index(fileEntities, imports)

		for _, dep := range o.result.Dependencies {
			if dep.Kind != isgl1.EdgeCalls {
				continue
			}
			if toKey, ok := keyByName[dep.ToName]; ok {
				// Resolved intra-file call: caller identity is ambiguous at
				// this point (the query does not capture the enclosing
				// function), so this becomes a file-level dependency on the
				// named entity rather than a specific caller->callee edge.
				directEdges = append(directEdges, isgl1.Edge{FromKey: o.file.Info.Path, ToKey: toKey, Kind: isgl1.EdgeCalls})
			}
		}

		for _, u := range o.result.UnresolvedCalls {
			u.CallerKey = o.file.Info.Path
			allUnresolved = append(allUnresolved, u)
		}
	}

	// CallerKey already holds the file path, and ResolveCalls falls back to
	// the literal CallerKey when no entry is found, so no caller-key
	// lookup table is needed at file granularity.
	resolvedEdges := resolver.ResolveCalls(nil, allUnresolved)
	stats.recordEdges(len(resolvedEdges), len(allUnresolved)-len(resolvedEdges))
	metrics.edgesResolved.Add(float64(len(resolvedEdges)))
	metrics.edgesUnresolved.Add(float64(len(allUnresolved) - len(resolvedEdges)))

	edges := append(directEdges, resolvedEdges...)
	return entities, edges
}

// importAliasMap derives an alias->importPath table from a file's Uses
// dependencies, using the last path segment as the alias: the common Go
// convention absent an explicit rename, and the only signal pkg/parser's
// import.path capture provides.
func importAliasMap(deps []parser.ExtractedDependency) map[string]string {
	imports := make(map[string]string)
	for _, d := range deps {
		if d.Kind != isgl1.EdgeUses {
			continue
		}
		alias := path.Base(d.ToName)
		imports[alias] = d.ToName
	}
	return imports
}

func (s *Streamer) write(ctx context.Context, entities []isgl1.Entity, edges []isgl1.Edge) error {
	for _, e := range entities {
		if err := s.store.InsertEntity(ctx, e); err != nil {
			return fmt.Errorf("ingest: insert entity %s: %w", e.Key, err)
		}
	}
	if err := s.store.InsertEdgesBatch(ctx, edges); err != nil {
		return fmt.Errorf("ingest: insert edges: %w", err)
	}
	return nil
}
