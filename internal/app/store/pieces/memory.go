// internal/app/store/pieces/memory.go
package piecestore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/domain/models"
)

// Memory keeps both collections in process memory. Contents are lost on
// restart. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	pending []models.Piece
	fired   []models.Piece

	ids *IDGen
	now func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{ids: NewIDGen(), now: nowUTC}
}

// List returns pending pieces, optionally restricted to one owner.
func (m *Memory) List(ctx context.Context, ownerEmail string) ([]models.Piece, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterOwner(m.pending, ownerEmail), nil
}

// ListFired returns the fired history, optionally restricted to one owner.
func (m *Memory) ListFired(ctx context.Context, ownerEmail string) ([]models.Piece, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterOwner(m.fired, ownerEmail), nil
}

// Get returns a pending or fired piece by id.
func (m *Memory) Get(ctx context.Context, id int64) (models.Piece, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := indexOf(m.pending, id); i >= 0 {
		return m.pending[i], nil
	}
	if i := indexOf(m.fired, id); i >= 0 {
		return m.fired[i], nil
	}
	return models.Piece{}, &errs.NotFoundError{ID: id}
}

// Create validates the submission and appends a new pending piece.
func (m *Memory) Create(ctx context.Context, in models.PieceInput) (models.Piece, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := Prepare(in, m.ids.Next(), m.now())
	if err != nil {
		return models.Piece{}, err
	}
	m.pending = append(m.pending, p)
	return p, nil
}

// SetClock replaces the time source used for createdAt and firedDate.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// MarkFired moves a pending piece into the fired history.
func (m *Memory) MarkFired(ctx context.Context, id int64) (models.Piece, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := indexOf(m.pending, id)
	if i < 0 {
		return models.Piece{}, &errs.NotFoundError{ID: id}
	}

	p := m.pending[i]
	firedAt := m.now()
	if firedAt.Before(p.CreatedAt) {
		firedAt = p.CreatedAt
	}
	p.Status = models.PieceStatusFired
	p.FiredDate = &firedAt

	m.pending = slices.Delete(m.pending, i, i+1)
	m.fired = append(m.fired, p)
	return p, nil
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error { return nil }

func indexOf(list []models.Piece, id int64) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// filterOwner copies list, keeping only pieces owned by email when it is set.
// The result is never nil so it encodes as [] rather than null.
func filterOwner(list []models.Piece, email string) []models.Piece {
	out := make([]models.Piece, 0, len(list))
	for _, p := range list {
		if email == "" || p.SubmittedBy.Email == email {
			out = append(out, p)
		}
	}
	return out
}
