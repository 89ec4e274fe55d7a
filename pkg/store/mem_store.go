// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kraklabs/cie/pkg/isgl1"
)

// errUnsupportedOnMemStore is returned by ExecuteQuery, which has no
// meaning without a Datalog engine behind the store.
var errUnsupportedOnMemStore = errors.New("store: ExecuteQuery is not supported on the in-memory backend")

// memStore is an in-memory Store implementation. It holds no CGO
// dependency and is the backend used by unit tests and any short-lived
// run that does not need a persistent database.
type memStore struct {
	mu       sync.RWMutex
	entities map[string]isgl1.Entity
	edges    map[string]isgl1.Edge // keyed by from|to|kind
}

// NewMemStore returns an empty in-memory Store.
func NewMemStore() Store {
	return &memStore{
		entities: make(map[string]isgl1.Entity),
		edges:    make(map[string]isgl1.Edge),
	}
}

func (s *memStore) CreateSchema(ctx context.Context) error {
	return ctxErr(ctx)
}

func (s *memStore) InsertEntity(ctx context.Context, e isgl1.Entity) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entities[e.Key]; exists {
		return fmt.Errorf("store: entity %s already exists", e.Key)
	}
	s.entities[e.Key] = e
	return nil
}

func (s *memStore) UpdateEntity(ctx context.Context, e isgl1.Entity) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.entities[e.Key]
	if !ok {
		return ErrEntityNotFound
	}
	e.Class = existing.Class
	s.entities[e.Key] = e
	return nil
}

func (s *memStore) GetEntity(ctx context.Context, key string) (isgl1.Entity, error) {
	if err := ctxErr(ctx); err != nil {
		return isgl1.Entity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[key]
	if !ok {
		return isgl1.Entity{}, ErrEntityNotFound
	}
	return e, nil
}

func (s *memStore) DeleteEntity(ctx context.Context, key string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, key)
	for ek, edge := range s.edges {
		if edge.FromKey == key || edge.ToKey == key {
			delete(s.edges, ek)
		}
	}
	return nil
}

func (s *memStore) UpdateTemporalState(ctx context.Context, key string, state isgl1.TemporalState, futureCode string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[key]
	if !ok {
		return ErrEntityNotFound
	}
	e.Temporal = state
	e.FutureCode = futureCode
	s.entities[key] = e
	return nil
}

func (s *memStore) InsertEdgesBatch(ctx context.Context, edges []isgl1.Edge) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range edges {
		s.edges[e.FromKey+"|"+e.ToKey+"|"+string(e.Kind)] = e
	}
	return nil
}

func (s *memStore) GetAllEntities(ctx context.Context) ([]isgl1.Entity, error) {
	return s.QueryEntities(ctx, EntityFilter{})
}

func (s *memStore) QueryEntities(ctx context.Context, filter EntityFilter) ([]isgl1.Entity, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []isgl1.Entity
	for _, e := range s.entities {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) GetChangedEntities(ctx context.Context) ([]isgl1.Entity, error) {
	return s.QueryEntities(ctx, EntityFilter{Changed: true})
}

func (s *memStore) GetAllDependencies(ctx context.Context) ([]isgl1.Edge, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]isgl1.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	return out, nil
}

// ExecuteQuery is unsupported on memStore: raw Datalog has no meaning
// without a Datalog engine behind it. Callers needing ad-hoc query
// support must use the cozoStore backend.
func (s *memStore) ExecuteQuery(ctx context.Context, datalog string, params map[string]any) (QueryResult, error) {
	if err := ctxErr(ctx); err != nil {
		return QueryResult{}, err
	}
	return QueryResult{}, errUnsupportedOnMemStore
}

func (s *memStore) Reset(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entities {
		if !e.Temporal.CurrentInd() {
			// Planned Create, or a planned Create deleted before it ever
			// materialized: current_ind was never true, so nothing to
			// restore to.
			delete(s.entities, key)
			for ek, edge := range s.edges {
				if edge.FromKey == key || edge.ToKey == key {
					delete(s.edges, ek)
				}
			}
			continue
		}
		e.Temporal = isgl1.Indexed()
		e.FutureCode = ""
		s.entities[key] = e
	}
	return nil
}

func (s *memStore) Close() error {
	return nil
}
