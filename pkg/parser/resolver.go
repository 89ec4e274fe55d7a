// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/kraklabs/cie/pkg/isgl1"
)

// IndexedEntity is the minimal view of an already-keyed entity the
// CallResolver needs to resolve cross-file calls.
type IndexedEntity struct {
	Key      string
	Name     string
	FilePath string
	Language isgl1.Language
}

// CallResolver performs the project-wide second pass of call resolution:
// pkg/parser's per-file extraction leaves calls to functions outside the
// current file as UnresolvedCall records; CallResolver turns as many of
// those as it can into isgl1.Edge values once every file has been parsed.
//
// Resolution matches a callee by directory and simple name: an
// unqualified call is looked up in the caller's own directory, a
// qualified call in the directory its import alias points to. When two
// indexed entities share a directory and name, the one indexed last wins.
type CallResolver struct {
	mu sync.RWMutex

	// byPackage indexes entities by directory path, for Go-style
	// same-package resolution without an explicit import.
	byPackage map[string]map[string]string // dir -> name -> key

	// byImportAlias indexes, per file, which import path an alias maps to.
	fileImports map[string]map[string]string // filePath -> alias -> importPath

	// importPathToDir maps an import path (or module specifier) back to
	// the local directory that defines it.
	importPathToDir map[string]string
}

// NewCallResolver constructs an empty resolver.
func NewCallResolver() *CallResolver {
	return &CallResolver{
		byPackage:       make(map[string]map[string]string),
		fileImports:     make(map[string]map[string]string),
		importPathToDir: make(map[string]string),
	}
}

// Index registers one file's entities and import table into the resolver.
// Call this once per parsed file before ResolveCalls.
func (r *CallResolver) Index(entities []IndexedEntity, imports map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entities {
		dir := filepath.Dir(e.FilePath)
		if r.byPackage[dir] == nil {
			r.byPackage[dir] = make(map[string]string)
		}
		r.byPackage[dir][simpleName(e.Name)] = e.Key

		if dir != "" {
			r.importPathToDir[dir] = dir
		}
	}

	if len(imports) > 0 {
		filePath := ""
		for _, e := range entities {
			filePath = e.FilePath
			break
		}
		if filePath != "" {
			if r.fileImports[filePath] == nil {
				r.fileImports[filePath] = make(map[string]string)
			}
			for alias, path := range imports {
				r.fileImports[filePath][alias] = path
			}
		}
	}
}

// ResolveCalls resolves unresolved calls to ISGL1 keys, producing Calls
// edges. Calls under 1000 are resolved sequentially; the index built by
// Index is read-only by the time ResolveCalls runs, so parallel lookups
// are safe.
func (r *CallResolver) ResolveCalls(callerKeys map[string]string, calls []UnresolvedCall) []isgl1.Edge {
	if len(calls) < 1000 {
		return r.resolveSequential(callerKeys, calls)
	}
	return r.resolveParallel(callerKeys, calls)
}

func (r *CallResolver) resolveSequential(callerKeys map[string]string, calls []UnresolvedCall) []isgl1.Edge {
	seen := make(map[string]bool)
	var edges []isgl1.Edge
	for _, call := range calls {
		callerKey, ok := callerKeys[call.CallerKey]
		if !ok {
			callerKey = call.CallerKey
		}
		targetKey := r.resolveOne(call)
		if targetKey == "" {
			continue
		}
		edgeKey := callerKey + "->" + targetKey
		if seen[edgeKey] {
			continue
		}
		seen[edgeKey] = true
		edges = append(edges, isgl1.Edge{FromKey: callerKey, ToKey: targetKey, Kind: isgl1.EdgeCalls})
	}
	return edges
}

func (r *CallResolver) resolveParallel(callerKeys map[string]string, calls []UnresolvedCall) []isgl1.Edge {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	jobs := make(chan UnresolvedCall, len(calls))
	type result struct {
		caller string
		callee string
	}
	results := make(chan result, len(calls))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for call := range jobs {
				targetKey := r.resolveOne(call)
				if targetKey == "" {
					continue
				}
				callerKey, ok := callerKeys[call.CallerKey]
				if !ok {
					callerKey = call.CallerKey
				}
				results <- result{caller: callerKey, callee: targetKey}
			}
		}()
	}
	for _, call := range calls {
		jobs <- call
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]bool)
	var edges []isgl1.Edge
	for res := range results {
		edgeKey := res.caller + "->" + res.callee
		if seen[edgeKey] {
			continue
		}
		seen[edgeKey] = true
		edges = append(edges, isgl1.Edge{FromKey: res.caller, ToKey: res.callee, Kind: isgl1.EdgeCalls})
	}
	return edges
}

// resolveOne resolves a single unresolved call to a target ISGL1 key, or
// returns "" when no entity with that name is indexed in the target
// directory.
func (r *CallResolver) resolveOne(call UnresolvedCall) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name := call.CalleeName
	dir := filepath.Dir(call.FilePath)

	// Case 1: qualified call, e.g. "pkg.Foo" or "obj.Method" -- take the
	// last component and require it to resolve via an explicit import.
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		alias := parts[0]
		target := parts[len(parts)-1]

		imports := r.fileImports[call.FilePath]
		if imports == nil {
			return ""
		}
		importPath, ok := imports[alias]
		if !ok {
			return ""
		}
		targetDir := r.findDirByImportPath(importPath)
		if targetDir == "" {
			return ""
		}
		if names, ok := r.byPackage[targetDir]; ok {
			if key, ok := names[simpleName(target)]; ok {
				return key
			}
		}
		return ""
	}

	// Case 2: unqualified call -- resolve within the same directory only.
	// No project-wide fuzzy name scan: an unqualified name that exists in
	// more than one other package stays unresolved.
	if names, ok := r.byPackage[dir]; ok {
		if key, ok := names[simpleName(name)]; ok {
			return key
		}
	}
	return ""
}

func (r *CallResolver) findDirByImportPath(importPath string) string {
	if dir, ok := r.importPathToDir[importPath]; ok {
		return dir
	}
	for dir := range r.byPackage {
		if strings.HasSuffix(importPath, dir) {
			return dir
		}
	}
	return ""
}

// simpleName strips a receiver-qualified method name ("Type.Method") down
// to its bare identifier for lookup purposes.
func simpleName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// Stats reports the size of the resolver's index, for diagnostics.
func (r *CallResolver) Stats() (directories, entities, fileImportTables int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	directories = len(r.byPackage)
	for _, names := range r.byPackage {
		entities += len(names)
	}
	fileImportTables = len(r.fileImports)
	return
}
