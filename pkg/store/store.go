// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"

	"github.com/kraklabs/cie/pkg/isgl1"
)

// ErrEntityNotFound is returned by any operation addressing an isgl1_key
// that does not exist in the store.
var ErrEntityNotFound = errors.New("store: entity not found")

// QueryResult is the result of a raw Datalog query: column headers plus
// untyped rows, mirroring cozodb.NamedRows without binding callers to the
// CGO package directly.
type QueryResult struct {
	Headers []string
	Rows    [][]any
}

// EntityFilter narrows QueryEntities. Zero-value fields are not applied;
// an all-zero filter returns every entity.
type EntityFilter struct {
	Class    isgl1.EntityClass // "" matches any class
	Language isgl1.Language    // "" matches any language
	Kind     isgl1.EntityKind  // "" matches any kind
	Changed  bool              // true restricts to future_action != None
}

// Store is the Graph Store contract every backend implements. All methods
// take a context so a caller can bound a long-running Datalog call or an
// ingestion-scale batch insert.
type Store interface {
	// CreateSchema creates the isgl1_* relations if they do not already
	// exist. Idempotent and safe to call on every open.
	CreateSchema(ctx context.Context) error

	// InsertEntity adds a new entity. Fails if the key already exists.
	InsertEntity(ctx context.Context, e isgl1.Entity) error

	// UpdateEntity overwrites an existing entity's signature/code/metadata
	// columns, leaving its key and entity_class untouched. Fails with
	// ErrEntityNotFound if the key does not exist.
	UpdateEntity(ctx context.Context, e isgl1.Entity) error

	// GetEntity fetches one entity by key. Returns ErrEntityNotFound if
	// absent.
	GetEntity(ctx context.Context, key string) (isgl1.Entity, error)

	// DeleteEntity permanently removes an entity and purges its incident
	// edges. Used only by Reset; the Temporal Change Engine never deletes
	// a row outright (see UpdateTemporalState).
	DeleteEntity(ctx context.Context, key string) error

	// UpdateTemporalState mutates only an entity's temporal triple, plus
	// FutureCode when the new state carries one. Fails with
	// ErrEntityNotFound if the key does not exist.
	UpdateTemporalState(ctx context.Context, key string, state isgl1.TemporalState, futureCode string) error

	// InsertEdgesBatch inserts dependency edges in bulk. Duplicate
	// (from,to,kind) triples are silently deduplicated.
	InsertEdgesBatch(ctx context.Context, edges []isgl1.Edge) error

	// GetAllEntities returns every entity in the store.
	GetAllEntities(ctx context.Context) ([]isgl1.Entity, error)

	// QueryEntities returns entities matching filter.
	QueryEntities(ctx context.Context, filter EntityFilter) ([]isgl1.Entity, error)

	// GetChangedEntities returns every entity with future_action != None,
	// i.e. every entity carrying a pending planned mutation.
	GetChangedEntities(ctx context.Context) ([]isgl1.Entity, error)

	// GetAllDependencies returns every edge in the store.
	GetAllDependencies(ctx context.Context) ([]isgl1.Edge, error)

	// ExecuteQuery runs a raw, read-only Datalog query and returns its
	// result rows, for the Context Exporter's ad-hoc projections.
	ExecuteQuery(ctx context.Context, datalog string, params map[string]any) (QueryResult, error)

	// Reset restores every entity to the Indexed() state and deletes any
	// entity whose only state was a planned Create (current_ind was never
	// true). Orphaned edges are purged as part of the same operation.
	Reset(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
