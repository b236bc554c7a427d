package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		cmd  Command
		args []string
	}{
		{name: "start", text: "/start", cmd: CmdStart, args: []string{}},
		{name: "addkey", text: "/addkey api abc123", cmd: CmdAddKey, args: []string{"api", "abc123"}},
		{name: "addkey_multiword", text: "/addkey api a b c", cmd: CmdAddKey, args: []string{"api", "a", "b", "c"}},
		{name: "bot_suffix", text: "/listkeys@vault_bot", cmd: CmdListKeys, args: []string{}},
		{name: "case_insensitive", text: "/AddKey api v", cmd: CmdAddKey, args: []string{"api", "v"}},
		{name: "leading_whitespace", text: "  /getnotes", cmd: CmdGetNotes, args: []string{}},
		{name: "empty", text: "", cmd: CmdUnknown},
		{name: "plain_text", text: "hello there", cmd: CmdUnknown},
		{name: "unknown_command", text: "/frobnicate now", cmd: CmdUnknown},
		{name: "slash_only", text: "/", cmd: CmdUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, args := parseCommand(tc.text)
			assert.Equal(t, tc.cmd, cmd)
			if tc.cmd == CmdUnknown {
				assert.Nil(t, args)
				return
			}
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestCommandNames(t *testing.T) {
	names := map[Command]string{
		CmdStart:      "start",
		CmdAddKey:     "addkey",
		CmdGetKey:     "getkey",
		CmdDeleteKey:  "deletekey",
		CmdListKeys:   "listkeys",
		CmdAddNote:    "addnote",
		CmdGetNotes:   "getnotes",
		CmdDeleteNote: "deletenote",
		CmdUnknown:    "unknown",
	}
	for cmd, want := range names {
		assert.Equal(t, want, cmd.String())
	}
}

func TestMinArgs(t *testing.T) {
	assert.Equal(t, 2, CmdAddKey.minArgs())
	assert.Equal(t, 1, CmdGetKey.minArgs())
	assert.Equal(t, 1, CmdDeleteKey.minArgs())
	assert.Equal(t, 1, CmdAddNote.minArgs())
	assert.Equal(t, 1, CmdDeleteNote.minArgs())
	assert.Equal(t, 0, CmdListKeys.minArgs())
	assert.Equal(t, 0, CmdGetNotes.minArgs())
	assert.Equal(t, 0, CmdStart.minArgs())
}
