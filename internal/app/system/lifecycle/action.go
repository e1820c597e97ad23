package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	"github.com/google/uuid"
)

// Kind is the mutation a staged action will perform once approved.
type Kind string

const (
	KindFire   Kind = "fire"
	KindSubmit Kind = "submit"
)

// ErrUnknownAction is returned for tokens that were never staged, were
// already approved or cancelled, or have expired. It matches errs.ErrNotFound.
var ErrUnknownAction = fmt.Errorf("%w: unknown or expired action", errs.ErrNotFound)

// Action is an intent waiting at the confirmation gate. Nothing it describes
// has happened yet.
type Action struct {
	Token     string             `json:"token"`
	Kind      Kind               `json:"kind"`
	PieceID   int64              `json:"pieceId,omitempty"`
	Piece     *models.Piece      `json:"piece,omitempty"`
	Input     *models.PieceInput `json:"input,omitempty"`
	StagedAt  time.Time          `json:"stagedAt"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// Expired reports whether the action can no longer be approved at now.
func (a Action) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

// gate holds staged actions keyed by token.
type gate struct {
	mu      sync.Mutex
	actions map[string]Action
}

func newGate() *gate {
	return &gate{actions: make(map[string]Action)}
}

func (g *gate) put(a Action) Action {
	a.Token = uuid.NewString()
	g.mu.Lock()
	g.actions[a.Token] = a
	g.mu.Unlock()
	return a
}

// take removes and returns the action for token. Exactly one caller can take
// a given token.
func (g *gate) take(token string, now time.Time) (Action, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	a, ok := g.actions[token]
	if !ok {
		return Action{}, ErrUnknownAction
	}
	delete(g.actions, token)
	if a.Expired(now) {
		return Action{}, ErrUnknownAction
	}
	return a, nil
}

func (g *gate) peek(token string, now time.Time) (Action, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	a, ok := g.actions[token]
	if !ok || a.Expired(now) {
		return Action{}, ErrUnknownAction
	}
	return a, nil
}

// expire drops every action that has expired at now.
func (g *gate) expire(now time.Time) []Action {
	g.mu.Lock()
	defer g.mu.Unlock()

	var dropped []Action
	for token, a := range g.actions {
		if a.Expired(now) {
			dropped = append(dropped, a)
			delete(g.actions, token)
		}
	}
	return dropped
}

func (g *gate) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.actions)
}

// IsUnknownAction reports whether err came from an unknown or expired token.
func IsUnknownAction(err error) bool {
	return errors.Is(err, ErrUnknownAction)
}
