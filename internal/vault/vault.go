// Package vault implements the encrypted, file-backed secrets and notes
// store. All values are Fernet-encrypted before they touch disk and the
// whole snapshot is rewritten atomically on every mutation, so a crash
// mid-write can never leave a truncated file behind.
//
// The store has no locking of its own: the update processor is its only
// writer and runs one handler at a time. Every operation is a full
// load-mutate-persist cycle; nothing is cached between calls.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/kverch/vaultbot/internal/domain"
)

// Store owns the durable snapshot file. Construct via New.
type Store struct {
	path    string
	key     *fernet.Key
	timeout time.Duration
	log     *slog.Logger
}

// Note is one decrypted note entry. Err is set instead of Plaintext when the
// record's ciphertext does not verify under the current key; sibling records
// are unaffected.
type Note struct {
	ID        domain.NoteID
	Plaintext string
	Err       error
}

// New returns a Store persisting to path, encrypting with the given Fernet
// key. Each file operation is bounded by timeout.
func New(path, fernetKey string, timeout time.Duration, logger *slog.Logger) (*Store, error) {
	key, err := fernet.DecodeKey(fernetKey)
	if err != nil {
		return nil, fmt.Errorf("decode fernet key: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:    path,
		key:     key,
		timeout: timeout,
		log:     logger.With("domain", "vault"),
	}, nil
}

// Encrypt seals plaintext under the store's key.
func (s *Store) Encrypt(plaintext string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plaintext), s.key)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return string(tok), nil
}

// Decrypt opens ciphertext produced by Encrypt. A token that does not verify
// under the current key (wrong or rotated key, or corruption) yields
// domain.ErrInvalidCiphertext.
func (s *Store) Decrypt(ciphertext string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(ciphertext), 0, []*fernet.Key{s.key})
	if msg == nil {
		return "", domain.ErrInvalidCiphertext
	}
	return string(msg), nil
}

// Load reads the snapshot from disk. A missing file yields an empty
// snapshot; a file that exists but fails to parse yields
// domain.ErrCorruptState, and read failures yield domain.ErrPersistence.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	err := s.bounded(ctx, func() error {
		raw, err := os.ReadFile(s.path)
		if errors.Is(err, os.ErrNotExist) {
			snap = emptySnapshot()
			return nil
		}
		if err != nil {
			// A present-but-unreadable file is an I/O problem, not
			// corruption; do not trigger the empty-snapshot fallback.
			return fmt.Errorf("%w: read %s: %v", domain.ErrPersistence, s.path, err)
		}
		snap = emptySnapshot()
		if err := json.Unmarshal(raw, snap); err != nil {
			return fmt.Errorf("%w: parse %s: %v", domain.ErrCorruptState, s.path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	snap.normalize()
	return snap, nil
}

// PutSecret encrypts plaintext and stores it under name, overwriting any
// existing value.
func (s *Store) PutSecret(ctx context.Context, name, plaintext string) error {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	ct, err := s.Encrypt(plaintext)
	if err != nil {
		return err
	}
	snap.Keys.Set(name, ct)
	return s.save(ctx, snap)
}

// GetSecret returns the decrypted value stored under name.
func (s *Store) GetSecret(ctx context.Context, name string) (string, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return "", err
	}
	ct, ok := snap.Keys.Get(name)
	if !ok {
		return "", domain.ErrNotFound
	}
	return s.Decrypt(ct)
}

// DeleteSecret removes the named secret.
func (s *Store) DeleteSecret(ctx context.Context, name string) error {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if !snap.Keys.Delete(name) {
		return domain.ErrNotFound
	}
	return s.save(ctx, snap)
}

// SecretNames lists stored secret names in insertion order.
func (s *Store) SecretNames(ctx context.Context) ([]string, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Keys.Names(), nil
}

// AddNote encrypts and stores text, returning the assigned id. Ids come
// from a monotone counter and are never reused, even after deletion.
func (s *Store) AddNote(ctx context.Context, text string) (domain.NoteID, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	ct, err := s.Encrypt(text)
	if err != nil {
		return 0, err
	}
	id := domain.NoteID(snap.NextNoteID)
	snap.Notes[id.String()] = ct
	snap.NextNoteID++
	if err := s.save(ctx, snap); err != nil {
		return 0, err
	}
	return id, nil
}

// Notes returns all notes in ascending id order. Records that fail to
// decrypt carry a per-record error and do not hide their siblings.
func (s *Store) Notes(ctx context.Context) ([]Note, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Note, 0, len(snap.Notes))
	for raw, ct := range snap.Notes {
		id, err := domain.ParseNoteID(raw)
		if err != nil {
			// Unparseable ids can only come from hand-edits; skip them.
			s.log.Warn("skipping note with malformed id", "id", raw)
			continue
		}
		n := Note{ID: id}
		n.Plaintext, n.Err = s.Decrypt(ct)
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteNote removes the note with the given id. The id counter is never
// decremented.
func (s *Store) DeleteNote(ctx context.Context, id domain.NoteID) error {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if _, ok := snap.Notes[id.String()]; !ok {
		return domain.ErrNotFound
	}
	delete(snap.Notes, id.String())
	return s.save(ctx, snap)
}

// snapshot applies the corrupt-state policy: an invalid file is logged at
// error severity and replaced by an empty snapshot rather than crashing.
// Transient I/O failures (including timeouts) propagate instead, so a
// momentarily unreadable disk can never cause a later save to wipe the
// vault with an empty snapshot.
func (s *Store) snapshot(ctx context.Context) (*Snapshot, error) {
	snap, err := s.Load(ctx)
	if errors.Is(err, domain.ErrCorruptState) {
		s.log.Error("snapshot unreadable, starting from empty", "path", s.path, "error", err)
		return emptySnapshot(), nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// save writes the full snapshot via a temp file in the same directory and an
// atomic rename, so readers never observe a partial write. Failures surface
// as domain.ErrPersistence.
func (s *Store) save(ctx context.Context, snap *Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", domain.ErrPersistence, err)
	}
	return s.bounded(ctx, func() error {
		dir := filepath.Dir(s.path)
		tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
		if err != nil {
			return fmt.Errorf("%w: create temp: %v", domain.ErrPersistence, err)
		}
		tmpPath := tmp.Name()
		cleanup := func() {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
		if _, err := tmp.Write(raw); err != nil {
			cleanup()
			return fmt.Errorf("%w: write temp: %v", domain.ErrPersistence, err)
		}
		if err := tmp.Sync(); err != nil {
			cleanup()
			return fmt.Errorf("%w: sync temp: %v", domain.ErrPersistence, err)
		}
		if err := tmp.Chmod(0o600); err != nil {
			cleanup()
			return fmt.Errorf("%w: chmod temp: %v", domain.ErrPersistence, err)
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("%w: close temp: %v", domain.ErrPersistence, err)
		}
		if err := os.Rename(tmpPath, s.path); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("%w: rename: %v", domain.ErrPersistence, err)
		}
		// Best effort directory sync for durability; ignore failures.
		if dirFD, err := os.Open(dir); err == nil {
			_ = dirFD.Sync()
			_ = dirFD.Close()
		}
		return nil
	})
}

// bounded runs fn under the store timeout. On a truly stuck filesystem the
// goroutine (and, for save, its open temp file) is abandoned and leaks until
// the syscall returns; the processor moves on regardless. os file ops take
// no context, so cancellation cannot reach into the write itself.
func (s *Store) bounded(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: vault io: %v", domain.ErrPersistence, ctx.Err())
	}
}
