package domain

import "strconv"

// NoteID identifies a stored note. IDs are assigned by the vault from a
// monotone counter and are never reused, even after deletion.
type NoteID int64

// ParseNoteID validates s and returns it as a NoteID. It enforces:
// - base-10 integer
// - strictly positive
// Returns ErrNotFound on failure, because a malformed id can never name an
// existing note.
func ParseNoteID(s string) (NoteID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrNotFound
	}
	return NoteID(n), nil
}

// String returns the decimal form used in persisted snapshots and replies.
func (id NoteID) String() string { return strconv.FormatInt(int64(id), 10) }
