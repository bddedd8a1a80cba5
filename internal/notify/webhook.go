package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"voicecoach/internal/session"
)

// Webhook emails a copy of the finished call record by posting it to an
// external relay. Strictly best-effort: failures are logged and never
// retried or surfaced to the user.
type Webhook struct {
	url  string
	http *http.Client
	log  *slog.Logger
}

func NewWebhook(url string, httpClient *http.Client, log *slog.Logger) *Webhook {
	if log == nil {
		log = slog.Default()
	}
	return &Webhook{url: url, http: httpClient, log: log}
}

// payload matches what the relay template expects: the full record with
// the recipient address folded in, wrapped under "message".
type payload struct {
	Message message `json:"message"`
}

type message struct {
	session.CallRecord
	Email string `json:"email"`
}

func (w *Webhook) CallSummarized(ctx context.Context, rec session.CallRecord, email string) {
	if w.url == "" {
		w.log.Debug("notification webhook not configured; skipping")
		return
	}
	if email == "" {
		w.log.Warn("no contact address for call summary; skipping notification")
		return
	}

	body, err := json.Marshal(payload{Message: message{CallRecord: rec, Email: email}})
	if err != nil {
		w.log.Error("notification payload marshal failed", "err", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.log.Error("notification request build failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		w.log.Error("notification send failed", "err", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.log.Error("notification relay rejected summary", "status", resp.StatusCode)
		return
	}
	w.log.Info("call summary emailed", "email", email)
}
