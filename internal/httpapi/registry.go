package httpapi

import (
	"context"
	"sync"

	"voicecoach/internal/session"
)

// ControllerFactory builds a call-lifecycle controller for one user.
type ControllerFactory func(ctx context.Context, email string) (*session.Controller, error)

// Registry holds one live controller per signed-in user, created lazily
// on first touch. There is no cross-user coordination; each controller
// is an independent single-session state machine.
type Registry struct {
	factory ControllerFactory

	mu       sync.Mutex
	sessions map[string]*session.Controller
}

func NewRegistry(factory ControllerFactory) *Registry {
	return &Registry{
		factory:  factory,
		sessions: make(map[string]*session.Controller),
	}
}

func (r *Registry) Get(ctx context.Context, userID, email string) (*session.Controller, error) {
	r.mu.Lock()
	if ctrl, ok := r.sessions[userID]; ok {
		r.mu.Unlock()
		return ctrl, nil
	}
	r.mu.Unlock()

	// Construction fetches the assistant directory; keep it outside the
	// lock so a slow upstream does not stall other users.
	ctrl, err := r.factory(ctx, email)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[userID]; ok {
		return existing, nil
	}
	r.sessions[userID] = ctrl
	return ctrl, nil
}
