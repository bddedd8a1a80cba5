package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"voicecoach/internal/engine"
	"voicecoach/internal/recordapi"
)

var (
	ErrNoAssistantSelected = errors.New("session: no assistant selected")
	ErrCallActive          = errors.New("session: a call is already active")
	ErrUnknownAssistant    = errors.New("session: unknown assistant")
)

// RecordAPI is the slice of the record API the controller needs.
type RecordAPI interface {
	GetCall(ctx context.Context, callID string) (recordapi.CallDetail, error)
	ListAssistants(ctx context.Context) ([]recordapi.Assistant, error)
}

// Notifier receives the finished record exactly once per published call.
// Implementations must be best-effort; the controller never checks errors.
type Notifier interface {
	CallSummarized(ctx context.Context, rec CallRecord, email string)
}

// Sleeper waits for d or until ctx is done. Injectable for tests.
type Sleeper func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PollPolicy controls the post-call record poll loop.
// MaxAttempts == 0 retries until a finished record appears.
type PollPolicy struct {
	InitialDelay time.Duration
	RetryDelay   time.Duration
	MaxAttempts  int
}

// EngineFactory builds the engine session bound to the controller's
// event handler. The controller owns exactly one engine instance.
type EngineFactory func(engine.Handler) (engine.Engine, error)

// Deps are the controller's collaborators. Engine and Records are
// required; everything else has safe defaults.
type Deps struct {
	Engine   EngineFactory
	Records  RecordAPI
	Notifier Notifier
	Poll     PollPolicy
	Sleep    Sleeper
	Clock    func() time.Time
	Log      *slog.Logger
}

// Controller owns the call-lifecycle state machine for one user session.
//
// All state lives behind one mutex; engine events, user actions, and the
// poll loop goroutine each take it for short critical sections. The poll
// loop captures the epoch current at its start and publishes only if the
// controller has not moved on (reset or a newer call) in the meantime.
type Controller struct {
	eng      engine.Engine
	records  RecordAPI
	notifier Notifier
	poll     PollPolicy
	sleep    Sleeper
	clock    func() time.Time
	log      *slog.Logger
	email    string

	mu          sync.Mutex
	phase       Phase
	callID      string
	selected    string
	loading     bool
	errMsg      string
	record      *CallRecord
	assistants  []Assistant
	pollRunning bool
	epoch       uint64
}

// New builds a controller and performs the one-time assistant directory
// fetch. A directory fetch failure is surfaced as a controller error but
// does not fail construction; starting a call stays impossible anyway
// because nothing can be selected.
func New(ctx context.Context, deps Deps, email string) (*Controller, error) {
	if deps.Engine == nil {
		return nil, errors.New("session: engine factory is required")
	}
	if deps.Records == nil {
		return nil, errors.New("session: record API is required")
	}
	if deps.Poll.InitialDelay <= 0 {
		deps.Poll.InitialDelay = 2 * time.Second
	}
	if deps.Poll.RetryDelay <= 0 {
		deps.Poll.RetryDelay = 1 * time.Second
	}
	if deps.Sleep == nil {
		deps.Sleep = realSleep
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	c := &Controller{
		records:  deps.Records,
		notifier: deps.Notifier,
		poll:     deps.Poll,
		sleep:    deps.Sleep,
		clock:    deps.Clock,
		log:      deps.Log,
		email:    email,
		phase:    PhaseIdle,
	}

	eng, err := deps.Engine(c.HandleEvent)
	if err != nil {
		return nil, fmt.Errorf("session: engine init failed: %w", err)
	}
	c.eng = eng

	if list, err := deps.Records.ListAssistants(ctx); err != nil {
		c.log.Error("assistant directory fetch failed", "err", err)
		c.mu.Lock()
		c.errMsg = "failed to load assistants: " + err.Error()
		c.mu.Unlock()
	} else {
		opts := make([]Assistant, 0, len(list))
		for _, a := range list {
			opts = append(opts, Assistant{AssistantID: a.ID, AssistantName: a.Name})
		}
		c.mu.Lock()
		c.assistants = opts
		c.mu.Unlock()
	}

	return c, nil
}

// Snapshot returns a copy of the current state for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Phase:             c.phase,
		CallID:            c.callID,
		SelectedAssistant: c.selected,
		Loading:           c.loading,
		Error:             c.errMsg,
		Assistants:        append([]Assistant(nil), c.assistants...),
	}
	if c.record != nil {
		rec := *c.record
		s.Record = &rec
	}
	return s
}

// SelectAssistant picks one assistant configuration. Selection is
// mutually exclusive and rejected while a call is active.
func (c *Controller) SelectAssistant(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseStarting || c.phase == PhaseInCall {
		return ErrCallActive
	}
	for _, a := range c.assistants {
		if a.AssistantID == id {
			c.selected = id
			return nil
		}
	}
	return ErrUnknownAssistant
}

// RequestStart issues the engine start command for the selected
// assistant. Preconditions: an assistant is selected, nothing is loading,
// and no call is active. A failed command records the error and leaves
// the session not started.
func (c *Controller) RequestStart(ctx context.Context) error {
	c.mu.Lock()
	if c.selected == "" {
		c.mu.Unlock()
		return ErrNoAssistantSelected
	}
	if c.loading || c.phase == PhaseStarting || c.phase == PhaseInCall {
		c.mu.Unlock()
		return ErrCallActive
	}
	c.loading = true
	c.errMsg = ""
	assistantID := c.selected
	c.mu.Unlock()

	started, err := c.eng.Start(ctx, assistantID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil || started.ID == "" {
		if err == nil {
			err = errors.New("session: engine returned no call id")
		}
		c.loading = false
		c.errMsg = err.Error()
		c.log.Error("call start failed", "assistant_id", assistantID, "err", err)
		return err
	}

	c.callID = started.ID
	c.phase = PhaseStarting
	c.record = nil
	c.pollRunning = false
	c.epoch++
	c.log.Info("call starting", "call_id", c.callID, "assistant_id", assistantID)
	return nil
}

// RequestStop hangs up via the engine and optimistically leaves the
// in-call phase so the session is never stuck active after an explicit
// stop, even if the engine never acknowledges. The record poll still
// waits for the engine's call-end event.
func (c *Controller) RequestStop(ctx context.Context) {
	if err := c.eng.Stop(ctx); err != nil {
		c.mu.Lock()
		c.errMsg = err.Error()
		c.mu.Unlock()
		c.log.Error("call stop failed", "err", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseStarting || c.phase == PhaseInCall {
		c.phase = PhaseEnded
		c.loading = false
	}
}

// Reset returns the session to idle: call ID, selection, error, and any
// published record are cleared. Bumping the epoch invalidates any poll
// loop still in flight for the old call.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.phase = PhaseIdle
	c.callID = ""
	c.selected = ""
	c.loading = false
	c.errMsg = ""
	c.record = nil
	c.pollRunning = false
}

// HandleEvent is the single dispatch point for engine lifecycle events.
func (c *Controller) HandleEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventSpeechStart, engine.EventSpeechEnd:
		c.log.Debug("assistant speech", "event", ev.Kind.String())

	case engine.EventCallStart:
		c.mu.Lock()
		c.loading = false
		c.phase = PhaseInCall
		c.mu.Unlock()

	case engine.EventCallEnd:
		c.mu.Lock()
		if c.phase == PhaseSummarized {
			// Late duplicate after the record is already published.
			c.mu.Unlock()
			return
		}
		if c.phase == PhaseStarting || c.phase == PhaseInCall {
			c.phase = PhaseEnded
		}
		c.loading = false
		callID := c.callID
		if callID == "" {
			c.mu.Unlock()
			c.log.Error("call ended with no call id; skipping record fetch")
			return
		}
		if c.pollRunning {
			c.mu.Unlock()
			return
		}
		c.pollRunning = true
		epoch := c.epoch
		c.mu.Unlock()

		go c.pollRecord(context.Background(), callID, epoch)

	case engine.EventError:
		c.mu.Lock()
		c.errMsg = ev.Message
		c.loading = false
		if c.phase == PhaseStarting || c.phase == PhaseInCall {
			// The engine gave up on the call; treat it as not started.
			c.phase = PhaseIdle
		}
		c.mu.Unlock()
		c.log.Error("engine error", "err", ev.Message)
	}
}
