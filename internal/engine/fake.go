package engine

import (
	"context"
	"errors"
	"sync"
)

// Fake is an in-process engine for tests. Start returns a scripted call ID
// and the test emits events by hand through Emit.
type Fake struct {
	mu sync.Mutex

	// NextCallID is returned by the next Start. Empty means Start fails
	// with "no call id", mirroring a provider that accepted the command
	// but returned nothing usable.
	NextCallID string

	// StartErr, when set, makes Start fail outright.
	StartErr error

	StartCalls []string
	StopCalls  int

	handler Handler
}

func NewFake(handler Handler) *Fake {
	return &Fake{handler: handler}
}

func (f *Fake) Start(ctx context.Context, assistantID string) (StartedCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.StartCalls = append(f.StartCalls, assistantID)
	if f.StartErr != nil {
		return StartedCall{}, f.StartErr
	}
	if f.NextCallID == "" {
		return StartedCall{}, errors.New("engine: start command returned no call id")
	}
	return StartedCall{ID: f.NextCallID}, nil
}

func (f *Fake) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StopCalls++
	return nil
}

// Emit delivers an event to the bound handler, as the provider would.
func (f *Fake) Emit(ev Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(ev)
	}
}
