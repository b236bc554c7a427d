// Package domain holds the shared vocabulary of the vault: sentinel errors
// and the note-id value type used across the store, processor, and HTTP layers.
package domain

import "errors"

// Sentinel domain-level errors reused by higher layers.
var (
	// ErrNotFound indicates the named secret or numbered note does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCiphertext indicates a record's ciphertext was not produced
	// by the current key. It applies to that record only.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	// ErrCorruptState indicates the backing file exists but is not valid
	// snapshot data. Callers fall back to an empty snapshot and log.
	ErrCorruptState = errors.New("corrupt vault state")
	// ErrPersistence indicates the snapshot could not be written. The
	// in-memory mutation is lost; the next operation reloads from disk.
	ErrPersistence = errors.New("persistence failure")
	// ErrUnauthorized indicates the caller is not the configured owner.
	ErrUnauthorized = errors.New("unauthorized caller")
	// ErrNotReady indicates the update processor cannot accept events yet;
	// the HTTP layer maps this to a retryable response.
	ErrNotReady = errors.New("processor not ready")
)
