// Package kv provides the persisted key-value layer that backs rate limiter
// and session state. Values are opaque JSON blobs under fixed keys; the
// layout mirrors browser local storage so stored state survives restarts.
package kv

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common store errors.
var (
	// ErrNotFound indicates the requested key does not exist.
	ErrNotFound = errors.New("key not found")

	// ErrQuotaExceeded indicates a write would exceed the storage budget.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store is closed")
)

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsQuotaExceeded checks if an error is a quota error.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// Store is the minimal persistence interface the core depends on.
type Store interface {
	// Get retrieves the value for a key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set stores a value, replacing any previous one. Returns
	// ErrQuotaExceeded when the write would exceed the storage budget.
	Set(key string, value []byte) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys lists all stored keys.
	Keys() ([]string, error)
	// Close releases any resources held by the store.
	Close() error
}

// LoadState tags the outcome of reading persisted JSON state.
// Absent and Corrupt are deliberately indistinguishable to callers that
// self-heal: both mean "start from defaults".
type LoadState int

const (
	// Found means the key existed and unmarshalled cleanly.
	Found LoadState = iota
	// Absent means the key does not exist.
	Absent
	// Corrupt means the key existed but could not be decoded.
	Corrupt
)

// LoadJSON reads key from the store and unmarshals it into v.
// Never returns an error: damaged or missing state is reported by tag.
func LoadJSON(s Store, key string, v any) LoadState {
	data, err := s.Get(key)
	if err != nil {
		return Absent
	}
	if err := json.Unmarshal(data, v); err != nil {
		return Corrupt
	}
	return Found
}

// SaveJSON marshals v and writes it under key.
func SaveJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Set(key, data)
}
