// internal/app/store/pieces/sqlite.go
package piecestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	_ "github.com/mattn/go-sqlite3"
)

// sqliteSchema is applied on open. Timestamps are stored as UTC text so they
// round-trip without depending on driver type detection.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pieces (
	id                   INTEGER PRIMARY KEY,
	title                TEXT NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	image_url            TEXT NOT NULL DEFAULT '',
	clay_type            TEXT NOT NULL DEFAULT '',
	glaze_type           TEXT NOT NULL DEFAULT '',
	firing_type          TEXT NOT NULL,
	desired_date         TEXT,
	priority             TEXT NOT NULL,
	status               TEXT NOT NULL,
	created_at           TEXT NOT NULL,
	fired_date           TEXT,
	submitter_email      TEXT NOT NULL,
	submitter_first_name TEXT NOT NULL DEFAULT '',
	submitter_last_name  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_pieces_status_owner ON pieces(status, submitter_email);
`

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const pieceColumns = `id, title, description, image_url, clay_type, glaze_type, firing_type,
	desired_date, priority, status, created_at, fired_date,
	submitter_email, submitter_first_name, submitter_last_name`

// SQLite stores pieces in a single SQLite table.
type SQLite struct {
	db  *sql.DB
	ids *IDGen
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection: SQLite has a single writer, and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)

	s, err := NewSQLite(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite applies the schema to db and seeds the id generator from the
// highest stored id.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLite{db: db, ids: NewIDGen(), now: nowUTC}

	var maxID sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(id) FROM pieces").Scan(&maxID); err != nil {
		return nil, fmt.Errorf("failed to read max piece id: %w", err)
	}
	if maxID.Valid {
		s.ids.Observe(maxID.Int64)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// List returns pending pieces in insertion order.
func (s *SQLite) List(ctx context.Context, ownerEmail string) ([]models.Piece, error) {
	return s.list(ctx, models.PieceStatusPending, ownerEmail, "id")
}

// ListFired returns fired pieces in firing order.
func (s *SQLite) ListFired(ctx context.Context, ownerEmail string) ([]models.Piece, error) {
	return s.list(ctx, models.PieceStatusFired, ownerEmail, "fired_date, id")
}

// Get returns a piece by id regardless of status.
func (s *SQLite) Get(ctx context.Context, id int64) (models.Piece, error) {
	return getPiece(ctx, s.db, id)
}

// Create validates the submission and inserts a new pending piece.
func (s *SQLite) Create(ctx context.Context, in models.PieceInput) (models.Piece, error) {
	p, err := Prepare(in, s.ids.Next(), s.now())
	if err != nil {
		return models.Piece{}, err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO pieces ("+pieceColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Title, p.Description, p.ImageURL, p.ClayType, p.GlazeType, p.FiringType,
		formatTime(p.DesiredDate), p.Priority, p.Status, p.CreatedAt.UTC().Format(sqliteTimeLayout), nil,
		p.SubmittedBy.Email, p.SubmittedBy.FirstName, p.SubmittedBy.LastName,
	)
	if err != nil {
		return models.Piece{}, fmt.Errorf("failed to create piece: %w", err)
	}
	return p, nil
}

// SetClock replaces the time source used for createdAt and firedDate.
func (s *SQLite) SetClock(now func() time.Time) { s.now = now }

// MarkFired flips a pending piece to fired inside a transaction; the
// status guard in the UPDATE makes a second call a no-op that reports
// not found. fired_date never sorts before created_at.
func (s *SQLite) MarkFired(ctx context.Context, id int64) (models.Piece, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Piece{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	firedAt := s.now()
	res, err := tx.ExecContext(ctx,
		"UPDATE pieces SET status = ?, fired_date = MAX(?, created_at) WHERE id = ? AND status = ?",
		models.PieceStatusFired, firedAt.UTC().Format(sqliteTimeLayout), id, models.PieceStatusPending,
	)
	if err != nil {
		return models.Piece{}, fmt.Errorf("failed to mark piece fired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Piece{}, fmt.Errorf("failed to mark piece fired: %w", err)
	}
	if n == 0 {
		return models.Piece{}, &errs.NotFoundError{ID: id}
	}

	p, err := getPiece(ctx, tx, id)
	if err != nil {
		return models.Piece{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Piece{}, fmt.Errorf("failed to commit: %w", err)
	}
	return p, nil
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) list(ctx context.Context, status, ownerEmail, orderBy string) ([]models.Piece, error) {
	query := "SELECT " + pieceColumns + " FROM pieces WHERE status = ?"
	args := []any{status}
	if ownerEmail != "" {
		query += " AND submitter_email = ?"
		args = append(args, ownerEmail)
	}
	query += " ORDER BY " + orderBy

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pieces: %w", err)
	}
	defer rows.Close()

	out := []models.Piece{}
	for rows.Next() {
		p, err := scanPiece(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getPiece(ctx context.Context, q queryer, id int64) (models.Piece, error) {
	row := q.QueryRowContext(ctx, "SELECT "+pieceColumns+" FROM pieces WHERE id = ?", id)
	p, err := scanPiece(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Piece{}, &errs.NotFoundError{ID: id}
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPiece(row scanner) (models.Piece, error) {
	var (
		p              models.Piece
		desired, fired sql.NullString
		createdAt      string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.ClayType, &p.GlazeType, &p.FiringType,
		&desired, &p.Priority, &p.Status, &createdAt, &fired,
		&p.SubmittedBy.Email, &p.SubmittedBy.FirstName, &p.SubmittedBy.LastName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Piece{}, err
		}
		return models.Piece{}, fmt.Errorf("failed to scan piece: %w", err)
	}

	if p.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return models.Piece{}, fmt.Errorf("bad created_at for piece %d: %w", p.ID, err)
	}
	if p.DesiredDate, err = parseNullTime(desired); err != nil {
		return models.Piece{}, fmt.Errorf("bad desired_date for piece %d: %w", p.ID, err)
	}
	if p.FiredDate, err = parseNullTime(fired); err != nil {
		return models.Piece{}, fmt.Errorf("bad fired_date for piece %d: %w", p.ID, err)
	}
	return p, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(sqliteTimeLayout)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(sqliteTimeLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
