// Package session keeps the last submitted feature vector for a survey
// session so that catalog enrichment can read it back later.
package session

import (
	"context"
	"errors"
	"sync"

	"movie-dropoff/internal/models"
)

// ErrNotFound is returned by LoadVector when nothing was submitted for the
// session (or it expired).
var ErrNotFound = errors.New("session: no submitted survey data")

// Store holds one FeatureVector per session.
type Store interface {
	SaveVector(ctx context.Context, sessionID string, v models.FeatureVector) error
	LoadVector(ctx context.Context, sessionID string) (models.FeatureVector, error)
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore is a process-local Store for tests and the CLI's ephemeral mode.
type MemoryStore struct {
	mu      sync.RWMutex
	vectors map[string]models.FeatureVector
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vectors: make(map[string]models.FeatureVector)}
}

func (m *MemoryStore) SaveVector(_ context.Context, sessionID string, v models.FeatureVector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[sessionID] = v
	return nil
}

func (m *MemoryStore) LoadVector(_ context.Context, sessionID string) (models.FeatureVector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vectors[sessionID]
	if !ok {
		return models.FeatureVector{}, ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, sessionID)
	return nil
}
