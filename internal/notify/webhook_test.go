package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"voicecoach/internal/session"
)

func TestWebhookPostsRecordWithEmail(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, srv.Client(), nil)
	w.CallSummarized(context.Background(), session.CallRecord{Summary: "great call", DurationMinutes: 2.5}, "user@example.com")

	msg, ok := got["message"].(map[string]any)
	if !ok {
		t.Fatalf("expected message wrapper, got %+v", got)
	}
	if msg["email"] != "user@example.com" {
		t.Fatalf("expected email in payload, got %+v", msg)
	}
	if msg["summary"] != "great call" {
		t.Fatalf("expected summary in payload, got %+v", msg)
	}
}

func TestWebhookSwallowsRelayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, srv.Client(), nil)
	// Must not panic or surface anything.
	w.CallSummarized(context.Background(), session.CallRecord{}, "user@example.com")
}

func TestWebhookSkipsWhenUnconfigured(t *testing.T) {
	w := NewWebhook("", nil, nil)
	w.CallSummarized(context.Background(), session.CallRecord{}, "user@example.com")
}
