// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"kittenfeed/internal/domain"
)

type record struct {
	state     []byte
	updatedAt time.Time
}

// DB implements an in-memory database storage.
type DB struct {
	mu     sync.Mutex
	states map[string]record
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{states: make(map[string]record)}
}

// Ensure interfaces are met.
var _ domain.StateRepository = (*DB)(nil)

// LoadState returns a copy of the stored document, or nil if none exists.
func (db *DB) LoadState(ctx context.Context, familyID string) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.states[familyID]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(r.state))
	copy(out, r.state)
	return out, nil
}

// SaveState replaces the stored document.
func (db *DB) SaveState(ctx context.Context, familyID string, state []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	buf := make([]byte, len(state))
	copy(buf, state)
	db.states[familyID] = record{state: buf, updatedAt: time.Now().UTC()}
	return nil
}

// ListFamilies returns stored family ids, most recently updated first.
func (db *DB) ListFamilies(ctx context.Context) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	ids := make([]string, 0, len(db.states))
	for id := range db.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := db.states[ids[i]].updatedAt, db.states[ids[j]].updatedAt
		if a.Equal(b) {
			return ids[i] < ids[j]
		}
		return a.After(b)
	})
	return ids, nil
}
