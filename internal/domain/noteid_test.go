package domain

import (
	"errors"
	"testing"
)

func TestParseNoteID(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  NoteID
		valid bool
	}{
		{name: "simple", in: "1", want: 1, valid: true},
		{name: "large", in: "9007199254740993", want: 9007199254740993, valid: true},
		{name: "empty", in: "", valid: false},
		{name: "zero", in: "0", valid: false},
		{name: "negative", in: "-3", valid: false},
		{name: "alpha", in: "abc", valid: false},
		{name: "mixed", in: "12x", valid: false},
		{name: "float", in: "1.5", valid: false},
		{name: "whitespace", in: " 1", valid: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseNoteID(tc.in)
			if tc.valid {
				if err != nil {
					t.Fatalf("expected valid, got error: %v", err)
				}
				if got != tc.want {
					t.Fatalf("expected %d, got %d", tc.want, got)
				}
				return
			}
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got: %v", err)
			}
		})
	}
}

func TestNoteIDString(t *testing.T) {
	if got := NoteID(42).String(); got != "42" {
		t.Fatalf("expected %q, got %q", "42", got)
	}
}
