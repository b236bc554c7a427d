package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kverch/vaultbot/internal/domain"
	"github.com/kverch/vaultbot/internal/httpx"
	"github.com/kverch/vaultbot/internal/telegram"
)

// fakeBridge records submitted updates and returns a configured error.
type fakeBridge struct {
	submitted []telegram.Update
	err       error
}

func (f *fakeBridge) Submit(_ context.Context, u telegram.Update) error {
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, u)
	return nil
}

func doRequest(t *testing.T, fb *fakeBridge, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := httpx.New(fb, nil)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)
	return rr
}

const updateJSON = `{"update_id":9,"message":{"message_id":1,"from":{"id":42,"first_name":"Kim"},"chat":{"id":42},"text":"/listkeys"}}`

func TestWebhookAccepted(t *testing.T) {
	fb := &fakeBridge{}
	rr := doRequest(t, fb, http.MethodPost, "/webhook", updateJSON)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, fb.submitted, 1)
	assert.EqualValues(t, 9, fb.submitted[0].UpdateID)
	require.NotNil(t, fb.submitted[0].Message)
	assert.Equal(t, "/listkeys", fb.submitted[0].Message.Text)
}

func TestWebhookMalformedJSON(t *testing.T) {
	fb := &fakeBridge{}
	rr := doRequest(t, fb, http.MethodPost, "/webhook", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, fb.submitted)
}

func TestWebhookNotReady(t *testing.T) {
	fb := &fakeBridge{err: domain.ErrNotReady}
	rr := doRequest(t, fb, http.MethodPost, "/webhook", updateJSON)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestWebhookUnexpectedError(t *testing.T) {
	fb := &fakeBridge{err: errors.New("boom")}
	rr := doRequest(t, fb, http.MethodPost, "/webhook", updateJSON)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestWebhookRejectsGet(t *testing.T) {
	fb := &fakeBridge{}
	rr := doRequest(t, fb, http.MethodGet, "/webhook", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHealth(t *testing.T) {
	rr := doRequest(t, &fakeBridge{}, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestCorrelationIDGenerated(t *testing.T) {
	rr := doRequest(t, &fakeBridge{}, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rr.Header().Get(httpx.CorrelationIDHeader))
}

func TestCorrelationIDPropagated(t *testing.T) {
	fb := &fakeBridge{}
	h := httpx.New(fb, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(httpx.CorrelationIDHeader, "cid-123")
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)
	assert.Equal(t, "cid-123", rr.Header().Get(httpx.CorrelationIDHeader))
}
