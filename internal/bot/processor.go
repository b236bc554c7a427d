// Package bot implements the update processor: the single goroutine that
// owns the bot's conversational state. It drains an inbox of Telegram
// updates one at a time, so the vault never sees two concurrent writers and
// no handler is ever interrupted by another inbound event.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/kverch/vaultbot/internal/auth"
	"github.com/kverch/vaultbot/internal/domain"
	"github.com/kverch/vaultbot/internal/telegram"
	"github.com/kverch/vaultbot/internal/vault"
)

// Sender is the outbound transport port. Satisfied by *telegram.Client in
// production and faked in tests.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

// Processor runs the command loop. Construct via New, start with Run (once,
// in its own goroutine); submit updates only through the ingress bridge.
type Processor struct {
	vault *vault.Store
	gate  *auth.Gate
	send  Sender
	log   *slog.Logger

	inbox chan telegram.Update
	ready chan struct{}
	done  chan struct{}
}

// New returns an unstarted Processor with an inbox of the given capacity.
func New(v *vault.Store, gate *auth.Gate, send Sender, inboxSize int, logger *slog.Logger) *Processor {
	if inboxSize <= 0 {
		inboxSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		vault: v,
		gate:  gate,
		send:  send,
		log:   logger.With("domain", "bot"),
		inbox: make(chan telegram.Update, inboxSize),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Inbox is the receive side of the bridge handoff. Only the bridge should
// send on it.
func (p *Processor) Inbox() chan<- telegram.Update { return p.inbox }

// Ready is closed once Run has started and the processor accepts updates.
func (p *Processor) Ready() <-chan struct{} { return p.ready }

// Done is closed after Run has returned and the inbox has been drained.
func (p *Processor) Done() <-chan struct{} { return p.done }

// Run processes updates until ctx is cancelled. Shutdown policy is drain:
// everything already accepted into the inbox is handled (under a
// cancellation-free context, bounded by the vault's own I/O timeouts)
// before Run returns. Updates that never made it past the bridge are the
// provider's to redeliver.
func (p *Processor) Run(ctx context.Context) {
	close(p.ready)
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			p.drain(context.WithoutCancel(ctx))
			return
		case u := <-p.inbox:
			p.handle(context.WithoutCancel(ctx), u)
		}
	}
}

func (p *Processor) drain(ctx context.Context) {
	for {
		select {
		case u := <-p.inbox:
			p.handle(ctx, u)
		default:
			return
		}
	}
}

// handle executes one update's full cycle: gate, dispatch, vault
// read-modify-write, reply. Never called concurrently.
func (p *Processor) handle(ctx context.Context, u telegram.Update) {
	switch {
	case u.CallbackQuery != nil:
		p.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		p.handleMessage(ctx, u.Message)
	}
}

func (p *Processor) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	cmd, args := parseCommand(msg.Text)
	if cmd == CmdUnknown {
		// Unknown commands and plain chatter get no reply.
		return
	}
	chatID := msg.Chat.ID
	if err := p.gate.Authorize(ctx, msg.From.ID, cmd.String()); err != nil {
		p.reply(ctx, chatID, unauthorizedText, nil)
		return
	}
	if len(args) < cmd.minArgs() {
		p.reply(ctx, chatID, cmd.usage(), nil)
		return
	}

	switch cmd {
	case CmdStart:
		p.reply(ctx, chatID, helpText, nil)
	case CmdAddKey:
		p.addKey(ctx, chatID, args[0], strings.Join(args[1:], " "))
	case CmdGetKey:
		p.getKey(ctx, chatID, args[0])
	case CmdDeleteKey:
		p.deleteKey(ctx, chatID, args[0])
	case CmdListKeys:
		p.listKeys(ctx, chatID)
	case CmdAddNote:
		p.addNote(ctx, chatID, strings.Join(args, " "))
	case CmdGetNotes:
		p.getNotes(ctx, chatID)
	case CmdDeleteNote:
		p.deleteNote(ctx, chatID, args[0])
	default:
		// CmdUnknown is filtered above; exhaustive for future variants.
	}
}

func (p *Processor) addKey(ctx context.Context, chatID int64, name, value string) {
	if err := p.vault.PutSecret(ctx, name, value); err != nil {
		p.log.Error("store key", "name", name, "error", err)
		p.reply(ctx, chatID, saveFailedText, nil)
		return
	}
	p.log.Info("key added/updated", "name", name)
	p.reply(ctx, chatID, keyStoredText(name), nil)
}

func (p *Processor) getKey(ctx context.Context, chatID int64, name string) {
	value, err := p.vault.GetSecret(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		p.reply(ctx, chatID, keyMissingText(name), nil)
	case errors.Is(err, domain.ErrInvalidCiphertext):
		p.log.Error("decryption failed", "name", name)
		p.reply(ctx, chatID, decryptFailedText, nil)
	case err != nil:
		p.log.Error("load key", "name", name, "error", err)
		p.reply(ctx, chatID, saveFailedText, nil)
	default:
		p.reply(ctx, chatID, keyValueText(name, value), nil)
	}
}

func (p *Processor) deleteKey(ctx context.Context, chatID int64, name string) {
	err := p.vault.DeleteSecret(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		p.reply(ctx, chatID, keyMissingText(name), nil)
	case err != nil:
		p.log.Error("delete key", "name", name, "error", err)
		p.reply(ctx, chatID, saveFailedText, nil)
	default:
		p.log.Info("key deleted", "name", name)
		p.reply(ctx, chatID, keyDeletedText(name), nil)
	}
}

func (p *Processor) listKeys(ctx context.Context, chatID int64) {
	names, err := p.vault.SecretNames(ctx)
	if err != nil {
		p.log.Error("list keys", "error", err)
		p.reply(ctx, chatID, saveFailedText, nil)
		return
	}
	if len(names) == 0 {
		p.reply(ctx, chatID, noKeysText, nil)
		return
	}
	p.reply(ctx, chatID, keyListText(names), nil)
}

func (p *Processor) addNote(ctx context.Context, chatID int64, text string) {
	id, err := p.vault.AddNote(ctx, text)
	if err != nil {
		p.log.Error("store note", "error", err)
		p.reply(ctx, chatID, saveFailedText, nil)
		return
	}
	p.log.Info("note added", "id", id.String())
	p.reply(ctx, chatID, noteAddedText(id), nil)
}

func (p *Processor) getNotes(ctx context.Context, chatID int64) {
	notes, err := p.vault.Notes(ctx)
	if err != nil {
		p.log.Error("list notes", "error", err)
		p.reply(ctx, chatID, saveFailedText, nil)
		return
	}
	if len(notes) == 0 {
		p.reply(ctx, chatID, noNotesText, nil)
		return
	}
	for _, n := range notes {
		if n.Err != nil {
			p.log.Error("decryption failed", "note_id", n.ID.String())
		}
	}
	text, markup := notesText(notes)
	p.reply(ctx, chatID, text, markup)
}

func (p *Processor) deleteNote(ctx context.Context, chatID int64, rawID string) {
	id, err := domain.ParseNoteID(rawID)
	if err == nil {
		err = p.vault.DeleteNote(ctx, id)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		p.reply(ctx, chatID, noteMissingText(rawID), nil)
	case err != nil:
		p.log.Error("delete note", "id", rawID, "error", err)
		p.reply(ctx, chatID, saveFailedText, nil)
	default:
		p.log.Info("note deleted", "id", rawID)
		p.reply(ctx, chatID, noteDeletedText(id), nil)
	}
}

// handleCallback services the inline delete buttons attached by getnotes.
// It runs inside the same serialized loop as commands, so the button path
// can never race a command against the vault.
func (p *Processor) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if err := p.send.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		p.log.Warn("answer callback failed", "error", err)
	}
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	if !strings.HasPrefix(cb.Data, callbackDeletePrefix) {
		return
	}
	chatID := cb.Message.Chat.ID
	if err := p.gate.Authorize(ctx, cb.From.ID, CmdDeleteNote.String()); err != nil {
		p.reply(ctx, chatID, unauthorizedText, nil)
		return
	}
	rawID := strings.TrimPrefix(cb.Data, callbackDeletePrefix)
	id, err := domain.ParseNoteID(rawID)
	if err == nil {
		err = p.vault.DeleteNote(ctx, id)
	}
	var text string
	switch {
	case errors.Is(err, domain.ErrNotFound):
		text = noteMissingText(rawID)
	case err != nil:
		p.log.Error("delete note via button", "id", rawID, "error", err)
		text = saveFailedText
	default:
		p.log.Info("note deleted via inline button", "id", rawID)
		text = noteDeletedText(id)
	}
	if err := p.send.EditMessageText(ctx, chatID, cb.Message.MessageID, text); err != nil {
		p.log.Warn("edit message failed", "error", err)
	}
}

func (p *Processor) reply(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) {
	if err := p.send.SendMessage(ctx, chatID, text, markup); err != nil {
		p.log.Warn("reply failed", "chat", chatID, "error", err)
	}
}
