package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/kilntrack/internal/domain/models"
)

// PieceInput returns a minimal valid submission for the given title and
// owner email.
func PieceInput(title, email string) models.PieceInput {
	return models.PieceInput{
		Title: title,
		SubmittedBy: models.Submitter{
			Email:     email,
			FirstName: "Test",
			LastName:  "Practician",
		},
	}
}

// DueIn returns a submission whose desired date is d from now.
func DueIn(title, email string, d time.Duration) models.PieceInput {
	in := PieceInput(title, email)
	due := time.Now().Add(d).UTC()
	in.DesiredDate = &due
	return in
}

// PieceCreator is the slice of the piece store fixtures need.
type PieceCreator interface {
	Create(ctx context.Context, in models.PieceInput) (models.Piece, error)
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	store PieceCreator
	t     *testing.T
}

// NewFixtures creates a Fixtures instance writing to store.
func NewFixtures(t *testing.T, store PieceCreator) *Fixtures {
	t.Helper()
	return &Fixtures{store: store, t: t}
}

// CreatePiece creates a pending piece and fails the test on error.
func (f *Fixtures) CreatePiece(ctx context.Context, title, email string) models.Piece {
	f.t.Helper()

	p, err := f.store.Create(ctx, PieceInput(title, email))
	if err != nil {
		f.t.Fatalf("failed to create test piece: %v", err)
	}
	return p
}

// CreatePieceDueIn creates a pending piece with a desired date d from now.
func (f *Fixtures) CreatePieceDueIn(ctx context.Context, title, email string, d time.Duration) models.Piece {
	f.t.Helper()

	p, err := f.store.Create(ctx, DueIn(title, email, d))
	if err != nil {
		f.t.Fatalf("failed to create test piece: %v", err)
	}
	return p
}
