package vault

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kverch/vaultbot/internal/domain"
)

// Snapshot is the complete durable state of the vault at one point in time.
// It is the unit of persistence: every mutation loads a fresh snapshot,
// changes it, and writes the whole thing back.
type Snapshot struct {
	Keys       SecretMap         `json:"keys"`
	Notes      map[string]string `json:"notes"`
	NextNoteID int64             `json:"next_note_id"`
}

// emptySnapshot is the state of a vault that has never been written.
func emptySnapshot() *Snapshot {
	return &Snapshot{Notes: map[string]string{}, NextNoteID: 1}
}

// normalize repairs a loaded snapshot so invariants hold even if the file
// was produced by an older build or edited by hand: nil maps become empty
// and next_note_id is bumped past the highest id present.
func (s *Snapshot) normalize() {
	if s.Notes == nil {
		s.Notes = map[string]string{}
	}
	if s.NextNoteID < 1 {
		s.NextNoteID = 1
	}
	for raw := range s.Notes {
		if id, err := domain.ParseNoteID(raw); err == nil && int64(id) >= s.NextNoteID {
			s.NextNoteID = int64(id) + 1
		}
	}
}

// SecretMap is a name-to-ciphertext mapping that remembers insertion order.
// It marshals as a plain JSON object whose members appear in that order, so
// listing names stays stable across save/load cycles.
type SecretMap struct {
	names  []string
	values map[string]string
}

// Set stores ciphertext under name, overwriting any previous value. A new
// name is appended to the ordering; an overwrite keeps its original slot.
func (m *SecretMap) Set(name, ciphertext string) {
	if m.values == nil {
		m.values = map[string]string{}
	}
	if _, exists := m.values[name]; !exists {
		m.names = append(m.names, name)
	}
	m.values[name] = ciphertext
}

// Get returns the ciphertext stored under name.
func (m *SecretMap) Get(name string) (string, bool) {
	ct, ok := m.values[name]
	return ct, ok
}

// Delete removes name and reports whether it was present.
func (m *SecretMap) Delete(name string) bool {
	if _, ok := m.values[name]; !ok {
		return false
	}
	delete(m.values, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the stored names in insertion order. The slice is a copy.
func (m *SecretMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of stored secrets.
func (m *SecretMap) Len() int { return len(m.names) }

// MarshalJSON renders the map as a JSON object in insertion order.
func (m SecretMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range m.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, recording member order as it streams.
func (m *SecretMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("secret map: expected object, got %v", tok)
	}
	m.names = nil
	m.values = map[string]string{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("secret map: non-string key %v", keyTok)
		}
		var ct string
		if err := dec.Decode(&ct); err != nil {
			return err
		}
		m.Set(name, ct)
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
