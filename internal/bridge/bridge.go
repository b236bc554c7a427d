// Package bridge moves updates from the multi-threaded HTTP layer into the
// update processor's single-threaded loop. It is the only synchronization
// point between the two scheduling domains: HTTP handlers call Submit, the
// processor receives from its inbox, and neither side ever touches the
// other's state directly.
package bridge

import (
	"context"
	"time"

	"github.com/kverch/vaultbot/internal/domain"
	"github.com/kverch/vaultbot/internal/telegram"
)

// DefaultHandoffTimeout bounds how long Submit blocks on a saturated inbox
// before reporting the processor unavailable.
const DefaultHandoffTimeout = 2 * time.Second

// Bridge hands updates to the processor inbox. Safe for concurrent use; an
// update accepted by Submit is delivered to the inbox exactly once, and
// submissions from one goroutine keep their order.
type Bridge struct {
	inbox   chan<- telegram.Update
	ready   <-chan struct{}
	done    <-chan struct{}
	timeout time.Duration
}

// New wires a Bridge to a processor's inbox and its readiness and
// completion signals. A non-positive timeout falls back to
// DefaultHandoffTimeout.
func New(inbox chan<- telegram.Update, ready, done <-chan struct{}, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultHandoffTimeout
	}
	return &Bridge{inbox: inbox, ready: ready, done: done, timeout: timeout}
}

// Submit offers one update to the processor. It returns domain.ErrNotReady
// when the processor has not started yet (startup race), has already
// stopped, or when the inbox stays full past the handoff timeout; all are
// retryable and the caller must surface them as such. The stopped check
// matters because the inbox buffer would otherwise keep absorbing sends
// that no one will ever drain. Submit never waits for the update to be
// handled, only for it to be accepted.
func (b *Bridge) Submit(ctx context.Context, u telegram.Update) error {
	select {
	case <-b.ready:
	default:
		return domain.ErrNotReady
	}
	select {
	case <-b.done:
		return domain.ErrNotReady
	default:
	}
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()
	select {
	case b.inbox <- u:
		return nil
	case <-b.done:
		return domain.ErrNotReady
	case <-ctx.Done():
		return domain.ErrNotReady
	case <-timer.C:
		return domain.ErrNotReady
	}
}
