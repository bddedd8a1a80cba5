package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voicecoach/internal/auth"
	"voicecoach/internal/config"
	"voicecoach/internal/engine"
	"voicecoach/internal/recordapi"
	"voicecoach/internal/session"

	"github.com/gin-gonic/gin"
)

type stubRecords struct{}

func (stubRecords) ListAssistants(ctx context.Context) ([]recordapi.Assistant, error) {
	return []recordapi.Assistant{{ID: "asst-1", Name: "Interview Coach"}}, nil
}

func (stubRecords) GetCall(ctx context.Context, callID string) (recordapi.CallDetail, error) {
	return recordapi.CallDetail{Status: "in-progress"}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("auth: %v", err)
	}

	registry := NewRegistry(func(ctx context.Context, email string) (*session.Controller, error) {
		return session.New(ctx, session.Deps{
			Engine: func(h engine.Handler) (engine.Engine, error) {
				eng := engine.NewFake(h)
				eng.NextCallID = "call-1"
				return eng, nil
			},
			Records: stubRecords{},
		}, email)
	})

	h := Handlers{Auth: m, Sessions: registry}

	r := gin.New()
	r.POST("/v1/auth/login", h.Login)
	v1 := r.Group("/v1", auth.RequireAccessToken(m))
	{
		v1.GET("/session", h.GetSession)
		v1.GET("/assistants", h.ListAssistants)
		v1.POST("/session/assistant", h.SelectAssistant)
		v1.POST("/session/call/start", h.StartCall)
		v1.POST("/session/call/stop", h.StopCall)
		v1.POST("/session/reset", h.ResetSession)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", `{"user_id":"u1","email":"u1@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out.AccessToken
}

func TestSessionRequiresAuth(t *testing.T) {
	r := newTestRouter(t)
	if w := doJSON(t, r, http.MethodGet, "/v1/session", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestLoginRejectsBadEmail(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", `{"user_id":"u1","email":"nope"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSelectStartStopFlow(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	w := doJSON(t, r, http.MethodGet, "/v1/assistants", token, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Interview Coach") {
		t.Fatalf("assistants: %d %s", w.Code, w.Body.String())
	}

	// Start before selecting must fail.
	w = doJSON(t, r, http.MethodPost, "/v1/session/call/start", token, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without selection, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/v1/session/assistant", token, `{"assistant_id":"asst-1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("select: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/v1/session/call/start", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}
	var snap session.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Phase != session.PhaseStarting || snap.CallID != "call-1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// Double-start conflicts.
	w = doJSON(t, r, http.MethodPost, "/v1/session/call/start", token, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/v1/session/call/stop", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("stop: %d %s", w.Code, w.Body.String())
	}
	// Snapshot fields are omitempty, so decode into a zero value each time
	// rather than layering responses onto a reused struct.
	snap = session.Snapshot{}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Phase != session.PhaseEnded {
		t.Fatalf("expected ended, got %+v", snap)
	}

	w = doJSON(t, r, http.MethodPost, "/v1/session/reset", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("reset: %d %s", w.Code, w.Body.String())
	}
	snap = session.Snapshot{}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Phase != session.PhaseIdle || snap.CallID != "" || snap.SelectedAssistant != "" {
		t.Fatalf("expected idle after reset, got %+v", snap)
	}
}

func TestSessionIsPerUser(t *testing.T) {
	r := newTestRouter(t)
	token1 := login(t, r)

	w := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", `{"user_id":"u2","email":"u2@example.com"}`)
	var out struct {
		AccessToken string `json:"access_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &out)
	token2 := out.AccessToken

	doJSON(t, r, http.MethodPost, "/v1/session/assistant", token1, `{"assistant_id":"asst-1"}`)

	w = doJSON(t, r, http.MethodGet, "/v1/session", token2, "")
	var snap session.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.SelectedAssistant != "" {
		t.Fatalf("selection leaked across users: %+v", snap)
	}
}
