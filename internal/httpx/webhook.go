package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kverch/vaultbot/internal/domain"
	"github.com/kverch/vaultbot/internal/telegram"
)

// maxWebhookBody caps the decoded payload; Telegram updates are small.
const maxWebhookBody = 1 << 20

// handleWebhook decodes one update and submits it to the bridge. The
// response is sent immediately after the handoff: 200 means accepted,
// 503 means the processor is unavailable and the provider should redeliver.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cid, _ := GetCorrelationID(ctx)

	var u telegram.Update
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err := dec.Decode(&u); err != nil {
		h.Log.Warn("malformed webhook payload", "cid", cid)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if u.Message != nil && u.Message.From != nil {
		h.Log.Info("received message", "cid", cid, "from", u.Message.From.ID, "name", u.Message.From.FirstName)
	}

	switch err := h.Bridge.Submit(ctx, u); {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, domain.ErrNotReady):
		h.Log.Warn("processor not ready", "cid", cid, "update", u.UpdateID)
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		h.Log.Error("webhook handoff failed", "cid", cid, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
