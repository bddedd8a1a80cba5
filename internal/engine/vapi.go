package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// VapiEngine drives web calls against the Vapi API: the start command is a
// REST call that creates a web call, and lifecycle events arrive over the
// call's monitor websocket.
type VapiEngine struct {
	baseURL   string
	publicKey string
	http      *http.Client
	dialer    *websocket.Dialer
	handler   Handler
	log       *slog.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	controlURL string
	active     bool
}

type VapiOptions struct {
	BaseURL   string
	PublicKey string

	// HTTPClient is required; build it with utils.NewHTTPClient.
	HTTPClient *http.Client

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

func NewVapiEngine(opts VapiOptions, handler Handler, log *slog.Logger) (*VapiEngine, error) {
	if opts.BaseURL == "" || opts.PublicKey == "" {
		return nil, errors.New("engine: vapi base URL and public key are required")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("engine: http client is required")
	}
	if handler == nil {
		return nil, errors.New("engine: event handler is required")
	}
	d := opts.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}
	if log == nil {
		log = slog.Default()
	}
	return &VapiEngine{
		baseURL:   opts.BaseURL,
		publicKey: opts.PublicKey,
		http:      opts.HTTPClient,
		dialer:    d,
		handler:   handler,
		log:       log,
	}, nil
}

type createWebCallRequest struct {
	AssistantID string `json:"assistantId"`
}

type createWebCallResponse struct {
	ID      string `json:"id"`
	Monitor struct {
		ListenURL  string `json:"listenUrl"`
		ControlURL string `json:"controlUrl"`
	} `json:"monitor"`
}

func (e *VapiEngine) Start(ctx context.Context, assistantID string) (StartedCall, error) {
	if assistantID == "" {
		return StartedCall{}, errors.New("engine: assistant id is required")
	}

	body, err := json.Marshal(createWebCallRequest{AssistantID: assistantID})
	if err != nil {
		return StartedCall{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/call/web", bytes.NewReader(body))
	if err != nil {
		return StartedCall{}, err
	}
	req.Header.Set("Authorization", "Bearer "+e.publicKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return StartedCall{}, fmt.Errorf("engine: start command failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return StartedCall{}, fmt.Errorf("engine: start command failed with status %d", resp.StatusCode)
	}

	var out createWebCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return StartedCall{}, fmt.Errorf("engine: start response decode failed: %w", err)
	}
	if out.ID == "" {
		return StartedCall{}, errors.New("engine: start command returned no call id")
	}

	var conn *websocket.Conn
	if out.Monitor.ListenURL != "" {
		c, _, err := e.dialer.DialContext(ctx, out.Monitor.ListenURL, nil)
		if err != nil {
			// The call exists at the provider; surface the lost event
			// channel as an engine error rather than failing the start.
			e.log.Error("vapi monitor dial failed", "call_id", out.ID, "err", err)
			e.handler(Event{Kind: EventError, Message: "event channel unavailable: " + err.Error()})
		} else {
			conn = c
		}
	}

	e.mu.Lock()
	if e.conn != nil {
		// A superseded call's monitor; closing it ends its read loop.
		e.conn.Close()
	}
	e.conn = conn
	e.controlURL = out.Monitor.ControlURL
	e.active = true
	e.mu.Unlock()

	if conn != nil {
		go e.readLoop(conn, out.ID)
	}

	return StartedCall{ID: out.ID}, nil
}

// Stop ends the active call by posting an end-call command to the call's
// control URL and tearing down the monitor connection. Calling it with no
// active call is a no-op.
func (e *VapiEngine) Stop(ctx context.Context) error {
	e.mu.Lock()
	conn := e.conn
	control := e.controlURL
	active := e.active
	e.conn = nil
	e.controlURL = ""
	e.active = false
	e.mu.Unlock()

	if conn != nil {
		defer conn.Close()
	}
	if !active {
		return nil
	}
	if control == "" {
		return errors.New("engine: active call has no control channel")
	}

	body, err := json.Marshal(map[string]string{"type": "end-call"})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, control, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("engine: stop command failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("engine: stop command failed with status %d", resp.StatusCode)
	}
	return nil
}

// monitorFrame is the subset of the monitor stream we react to.
// Anything else (audio frames, transcripts, metadata) is ignored.
type monitorFrame struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e *VapiEngine) readLoop(conn *websocket.Conn, callID string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Socket teardown after call end is normal; the controller
			// has already seen call-end by then.
			e.log.Debug("vapi monitor closed", "call_id", callID, "err", err)
			return
		}

		var f monitorFrame
		if err := json.Unmarshal(data, &f); err != nil {
			e.log.Warn("vapi monitor frame unreadable", "call_id", callID, "err", err)
			continue
		}

		switch f.Type {
		case "speech-update":
			if f.Status == "started" {
				e.handler(Event{Kind: EventSpeechStart})
			} else if f.Status == "stopped" {
				e.handler(Event{Kind: EventSpeechEnd})
			}
		case "status-update":
			switch f.Status {
			case "in-progress":
				e.handler(Event{Kind: EventCallStart})
			case "ended":
				e.handler(Event{Kind: EventCallEnd})
			}
		case "error":
			msg := f.Message
			if msg == "" {
				msg = "engine reported an error"
			}
			e.handler(Event{Kind: EventError, Message: msg})
		default:
			// audio / transcript frames; informational only
		}
	}
}
