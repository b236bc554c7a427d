package bot

import (
	"fmt"
	"strings"

	"github.com/kverch/vaultbot/internal/domain"
	"github.com/kverch/vaultbot/internal/telegram"
	"github.com/kverch/vaultbot/internal/vault"
)

// callbackDeletePrefix tags inline-button data carrying a note id.
const callbackDeletePrefix = "delete_note_"

const helpText = "🔐 Secure Key Manager Bot\n\n" +
	"Available commands:\n" +
	"/addkey <name> <value> - Add encrypted API key\n" +
	"/getkey <name> - Retrieve decrypted API key\n" +
	"/deletekey <name> - Delete stored key\n" +
	"/listkeys - List all key names\n" +
	"/addnote <text> - Add encrypted note\n" +
	"/getnotes - Retrieve all decrypted notes\n" +
	"/deletenote <id> - Delete note by ID"

const (
	unauthorizedText   = "🚫 Unauthorized access. This incident will be reported."
	decryptFailedText  = "⚠️ Error decrypting key. Invalid token."
	saveFailedText     = "⚠️ Failed to save. Please try again."
	noKeysText         = "No keys stored"
	noNotesText        = "No notes stored"
	notesDecryptBroken = "[Decryption Error]"
)

func keyStoredText(name string) string   { return fmt.Sprintf("✅ Key '%s' stored successfully", name) }
func keyValueText(name, v string) string { return fmt.Sprintf("🔑 %s: %s", name, v) }
func keyMissingText(name string) string  { return fmt.Sprintf("🔍 Key '%s' not found", name) }
func keyDeletedText(name string) string  { return fmt.Sprintf("🗑️ Key '%s' deleted successfully", name) }

func noteAddedText(id domain.NoteID) string {
	return fmt.Sprintf("📝 Note added successfully (ID: %s)", id)
}

func noteMissingText(id string) string { return fmt.Sprintf("🔍 Note ID '%s' not found", id) }

func noteDeletedText(id domain.NoteID) string {
	return fmt.Sprintf("🗑️ Note %s deleted successfully", id)
}

// keyListText renders stored names as a bulleted list in insertion order.
func keyListText(names []string) string {
	var b strings.Builder
	b.WriteString("🔑 Stored Keys:")
	for _, name := range names {
		b.WriteString("\n• ")
		b.WriteString(name)
	}
	return b.String()
}

// notesText renders all notes plus one delete button per readable note.
func notesText(notes []vault.Note) (string, *telegram.InlineKeyboardMarkup) {
	var b strings.Builder
	b.WriteString("📝 Saved Notes:\n\n")
	var rows [][]telegram.InlineKeyboardButton
	for _, n := range notes {
		if n.Err != nil {
			fmt.Fprintf(&b, "ID %s: %s\n\n", n.ID, notesDecryptBroken)
			continue
		}
		fmt.Fprintf(&b, "ID %s: %s\n\n", n.ID, n.Plaintext)
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         fmt.Sprintf("Delete Note %s", n.ID),
			CallbackData: callbackDeletePrefix + n.ID.String(),
		}})
	}
	if len(rows) == 0 {
		return b.String(), nil
	}
	return b.String(), &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}
