// Package auth implements the owner-only authorization gate. It is a pure
// predicate over the caller identity with two side effects: an audit row
// and a log line. It must run before any vault access, including reads.
package auth

import (
	"context"
	"log/slog"

	"github.com/kverch/vaultbot/internal/audit"
	"github.com/kverch/vaultbot/internal/domain"
)

// Recorder is the subset of the audit log the gate needs. Satisfied by
// *audit.Log in production and faked in tests.
type Recorder interface {
	Record(ctx context.Context, actor int64, command, decision string) error
}

// Gate checks callers against the single configured owner identity.
type Gate struct {
	owner int64
	audit Recorder
	log   *slog.Logger
}

// New returns a Gate for the given owner. audit may be nil (decisions are
// then only logged).
func New(owner int64, audit Recorder, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{owner: owner, audit: audit, log: logger.With("domain", "auth")}
}

// Authorize passes the owner through and rejects everyone else with
// domain.ErrUnauthorized. Both outcomes are recorded; a failed audit write
// never blocks the command itself.
func (g *Gate) Authorize(ctx context.Context, caller int64, command string) error {
	if caller == g.owner {
		g.record(ctx, caller, command, audit.DecisionAllow)
		return nil
	}
	g.record(ctx, caller, command, audit.DecisionDeny)
	g.log.Warn("unauthorized access attempt", "caller", caller, "command", command)
	return domain.ErrUnauthorized
}

func (g *Gate) record(ctx context.Context, caller int64, command, decision string) {
	if g.audit == nil {
		return
	}
	if err := g.audit.Record(ctx, caller, command, decision); err != nil {
		g.log.Error("audit write failed", "error", err)
	}
}
