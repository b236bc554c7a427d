package bot

import "strings"

// Command is the closed set of operations the processor understands.
// Dispatch is a total switch over these variants; anything that does not
// parse into one of them becomes CmdUnknown and is ignored.
type Command int

const (
	CmdUnknown Command = iota
	CmdStart
	CmdAddKey
	CmdGetKey
	CmdDeleteKey
	CmdListKeys
	CmdAddNote
	CmdGetNotes
	CmdDeleteNote
)

// String returns the wire name of the command, as typed by the user and as
// recorded in the audit trail.
func (c Command) String() string {
	switch c {
	case CmdStart:
		return "start"
	case CmdAddKey:
		return "addkey"
	case CmdGetKey:
		return "getkey"
	case CmdDeleteKey:
		return "deletekey"
	case CmdListKeys:
		return "listkeys"
	case CmdAddNote:
		return "addnote"
	case CmdGetNotes:
		return "getnotes"
	case CmdDeleteNote:
		return "deletenote"
	default:
		return "unknown"
	}
}

// minArgs is the arity precondition checked before any vault access.
func (c Command) minArgs() int {
	switch c {
	case CmdAddKey:
		return 2
	case CmdGetKey, CmdDeleteKey, CmdAddNote, CmdDeleteNote:
		return 1
	default:
		return 0
	}
}

// usage is the reply sent on an arity violation.
func (c Command) usage() string {
	switch c {
	case CmdAddKey:
		return "Usage: /addkey <name> <value>"
	case CmdGetKey:
		return "Usage: /getkey <name>"
	case CmdDeleteKey:
		return "Usage: /deletekey <name>"
	case CmdAddNote:
		return "Usage: /addnote <text>"
	case CmdDeleteNote:
		return "Usage: /deletenote <id>"
	default:
		return ""
	}
}

// parseCommand splits message text into a command and its raw argument
// tokens. The leading "/" is required and an "@botname" suffix on the
// command word is tolerated (groups append it). This is a precondition
// check, not a parser: argument tokens stay verbatim.
func parseCommand(text string) (Command, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return CmdUnknown, nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	args := fields[1:]
	switch strings.ToLower(name) {
	case "start":
		return CmdStart, args
	case "addkey":
		return CmdAddKey, args
	case "getkey":
		return CmdGetKey, args
	case "deletekey":
		return CmdDeleteKey, args
	case "listkeys":
		return CmdListKeys, args
	case "addnote":
		return CmdAddNote, args
	case "getnotes":
		return CmdGetNotes, args
	case "deletenote":
		return CmdDeleteNote, args
	default:
		return CmdUnknown, nil
	}
}
