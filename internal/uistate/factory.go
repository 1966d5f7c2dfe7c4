// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Watchdeck Contributors

package uistate

import (
	"sync"

	deckerr "github.com/watchdeck-dev/watchdeck/pkg/errors"
)

// StorageConfig controls which backend the factory uses.
type StorageConfig struct {
	// Backend is "memory" or "sqlite". Empty defaults to "memory".
	Backend string
	// Path is the database file path for file-backed backends.
	Path string
}

// Factory creates a Store from a storage config.
type Factory func(cfg *StorageConfig) (Store, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). Goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

func init() {
	RegisterBackend("memory", func(*StorageConfig) (Store, error) {
		return NewMemoryStore(), nil
	})
}

// resolveBackend returns the effective backend name, defaulting to "memory".
func resolveBackend(cfg *StorageConfig) string {
	if cfg == nil || cfg.Backend == "" {
		return "memory"
	}
	return cfg.Backend
}

// NewStore creates the UI-state store for the configured backend.
func NewStore(cfg *StorageConfig) (Store, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, deckerr.Errorf(deckerr.CodeStateBackendUnknown, "unsupported uistate backend: %q", backend)
	}

	return factory(cfg)
}
