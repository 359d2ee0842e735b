package oauthflow

import (
	"errors"
	"sync"

	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.Mutex
	states map[string]FlowState
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]FlowState),
	}
}

func (r *InMemoryRepo) Upsert(state string, flow *FlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if flow == nil {
		return errors.New("flow cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[state] = *flow
	return nil
}

func (r *InMemoryRepo) Take(state string) (*FlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, ok := r.states[state]
	if !ok || state == "" {
		return nil, apperrors.ErrInvalidState
	}
	delete(r.states, state)
	return &flow, nil
}
