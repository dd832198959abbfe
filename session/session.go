// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

// Package session defines the session boundary the data layer depends on:
// a key-value store scoped to one client session. The web framework hosting
// the application supplies the real implementation; the in-memory store
// here serves tests and non-web hosts.
package session

import "sync"

// Store is a session-scoped key-value slot store. Implementations are
// expected to scope keys to a single client session.
type Store interface {
	// Get returns the value stored under key and whether it was present.
	Get(key string) ([]byte, bool, error)

	// Set stores a value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes the slot for key. Deleting a missing key is a no-op.
	Delete(key string) error
}

// MemoryStore is an in-process Store implementation.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores a value under key.
func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.values[key] = v
	return nil
}

// Delete removes the slot for key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
