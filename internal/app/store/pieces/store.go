// internal/app/store/pieces/store.go
package piecestore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/domain/models"
)

// Store holds the pending collection and the fired history.
//
// List and ListFired return pieces in insertion (respectively firing) order.
// An empty ownerEmail means "every owner". MarkFired moves a pending piece to
// the fired history in a single atomic step; a second call for the same id
// fails with *errs.NotFoundError.
type Store interface {
	List(ctx context.Context, ownerEmail string) ([]models.Piece, error)
	ListFired(ctx context.Context, ownerEmail string) ([]models.Piece, error)
	Get(ctx context.Context, id int64) (models.Piece, error)
	Create(ctx context.Context, in models.PieceInput) (models.Piece, error)
	MarkFired(ctx context.Context, id int64) (models.Piece, error)
	Ping(ctx context.Context) error
}

// Validate checks the presence rules for a submission without building a
// piece. Title and submittedBy.email are required; priority, when given, must
// be one of models.Priorities.
func Validate(in models.PieceInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return errs.Required("title")
	}
	if strings.TrimSpace(in.SubmittedBy.Email) == "" {
		return errs.Required("submittedBy.email")
	}
	if in.Priority != "" && !slices.Contains(models.Priorities, in.Priority) {
		return &errs.ValidationError{Field: "priority", Message: "must be 'Normal' or 'Urgent'"}
	}
	return nil
}

// Prepare validates a submission and turns it into a pending piece with the
// given id and creation time, applying defaults to the optional fields.
// Every backend goes through Prepare so validation and defaults cannot drift.
func Prepare(in models.PieceInput, id int64, now time.Time) (models.Piece, error) {
	if err := Validate(in); err != nil {
		return models.Piece{}, err
	}

	p := models.Piece{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		ClayType:    in.ClayType,
		GlazeType:   in.GlazeType,
		FiringType:  in.FiringType,
		Priority:    in.Priority,
		Status:      models.PieceStatusPending,
		CreatedAt:   now,
		SubmittedBy: models.Submitter{
			Email:     strings.TrimSpace(in.SubmittedBy.Email),
			FirstName: in.SubmittedBy.FirstName,
			LastName:  in.SubmittedBy.LastName,
		},
	}
	if in.DesiredDate != nil {
		d := in.DesiredDate.UTC()
		p.DesiredDate = &d
	}
	if strings.TrimSpace(p.FiringType) == "" {
		p.FiringType = models.DefaultFiringType
	}
	if p.Priority == "" {
		p.Priority = models.PriorityNormal
	}
	return p, nil
}

// IDGen hands out time-based ids that are strictly increasing within a
// process: the current Unix millisecond, bumped past the last id issued.
type IDGen struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGen returns a generator driven by the wall clock.
func NewIDGen() *IDGen {
	return &IDGen{now: time.Now}
}

// Next returns a new id greater than every id issued or observed so far.
func (g *IDGen) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe records an id that already exists (e.g. loaded from a database) so
// that later ids stay above it.
func (g *IDGen) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
