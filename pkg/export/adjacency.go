// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"path/filepath"
	"strings"

	"github.com/kraklabs/cie/pkg/isgl1"
)

// adjacency holds the precomputed forward/reverse dependency maps an
// export session needs, plus how many edges were dropped because
// either endpoint could not be resolved to a known entity.
type adjacency struct {
	forward  map[string][]string
	reverse  map[string][]string
	dropped  int
}

// normalizeKey reconciles the inconsistencies upstream parsers and the
// streamer's file-granularity call edges can produce (e.g. "./foo.go"
// vs "foo.go", or a raw file path standing in for an entity key): it is
// intentionally permissive, since the entity-name fallback below is what
// actually resolves these, not the normalization itself.
func normalizeKey(key string) string {
	return filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(key, "./"), "/"))
}

// buildAdjacency computes forward/reverse dependency maps over edges,
// keyed by known entity key. An edge endpoint that is not itself a known
// entity key (the common case: pkg/ingest attributes same-file calls to
// the file path, not a specific caller entity) is resolved first to every
// entity whose normalized file path equals the normalized endpoint, and
// otherwise to every entity, anywhere in the project, whose name equals
// the endpoint's basename; edges that still cannot be resolved to a known
// entity on both ends are dropped.
func buildAdjacency(entities []isgl1.Entity, edges []isgl1.Edge) adjacency {
	byKey := make(map[string]bool, len(entities))
	byFilePath := make(map[string][]string) // normalized file path -> keys of entities in that file
	byName := make(map[string][]string)      // entity name -> keys sharing that name

	for _, e := range entities {
		byKey[e.Key] = true
		fp := normalizeKey(e.Signature.FilePath)
		byFilePath[fp] = append(byFilePath[fp], e.Key)
		byName[e.Signature.Name] = append(byName[e.Signature.Name], e.Key)
	}

	resolve := func(endpoint string) []string {
		if byKey[endpoint] {
			return []string{endpoint}
		}
		norm := normalizeKey(endpoint)
		if keys, ok := byFilePath[norm]; ok {
			return keys
		}
		if keys, ok := byName[filepath.Base(endpoint)]; ok {
			return keys
		}
		return nil
	}

	adj := adjacency{
		forward: make(map[string][]string),
		reverse: make(map[string][]string),
	}
	seen := make(map[string]bool)
	for _, edge := range edges {
		fromKeys := resolve(edge.FromKey)
		toKeys := resolve(edge.ToKey)
		if len(fromKeys) == 0 || len(toKeys) == 0 {
			adj.dropped++
			continue
		}
		for _, from := range fromKeys {
			for _, to := range toKeys {
				if from == to {
					continue
				}
				pairKey := from + "->" + to
				if seen[pairKey] {
					continue
				}
				seen[pairKey] = true
				adj.forward[from] = append(adj.forward[from], to)
				adj.reverse[to] = append(adj.reverse[to], from)
			}
		}
	}
	return adj
}
