// internal/app/store/pieces/mongostore.go
package piecestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CollectionName is the Mongo collection holding both pending and fired
// pieces; the status field tells them apart.
const CollectionName = "pieces"

// insertAttempts bounds id-collision retries when several processes share
// one database.
const insertAttempts = 3

// Mongo stores pieces in a single MongoDB collection keyed by piece id.
type Mongo struct {
	c   *mongo.Collection
	ids *IDGen
	now func() time.Time
}

// NewMongo returns a store over db's pieces collection.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{c: db.Collection(CollectionName), ids: NewIDGen(), now: nowUTC}
}

// List returns pending pieces in creation order.
func (s *Mongo) List(ctx context.Context, ownerEmail string) ([]models.Piece, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, ownerFilter(models.PieceStatusPending, ownerEmail), opts)
}

// ListFired returns fired pieces in firing order.
func (s *Mongo) ListFired(ctx context.Context, ownerEmail string) ([]models.Piece, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fired_date", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, ownerFilter(models.PieceStatusFired, ownerEmail), opts)
}

// Get returns a piece by id regardless of status.
func (s *Mongo) Get(ctx context.Context, id int64) (models.Piece, error) {
	var p models.Piece
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Piece{}, &errs.NotFoundError{ID: id}
	}
	if err != nil {
		return models.Piece{}, err
	}
	return p, nil
}

// Create validates the submission and inserts a new pending piece. A
// duplicate id (another process issued the same millisecond) is retried
// with a fresh id.
func (s *Mongo) Create(ctx context.Context, in models.PieceInput) (models.Piece, error) {
	var lastErr error
	for attempt := 0; attempt < insertAttempts; attempt++ {
		p, err := Prepare(in, s.ids.Next(), s.now())
		if err != nil {
			return models.Piece{}, err
		}
		_, err = s.c.InsertOne(ctx, p)
		if err == nil {
			return p, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Piece{}, err
		}
		s.ids.Observe(p.ID)
		lastErr = err
	}
	return models.Piece{}, lastErr
}

// SetClock replaces the time source used for createdAt and firedDate.
func (s *Mongo) SetClock(now func() time.Time) { s.now = now }

// MarkFired flips a pending piece to fired with a conditional update, so only
// one of several concurrent callers can succeed. The update pipeline keeps
// fired_date at or after created_at.
func (s *Mongo) MarkFired(ctx context.Context, id int64) (models.Piece, error) {
	firedAt := s.now()
	filter := bson.M{"_id": id, "status": models.PieceStatusPending}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: models.PieceStatusFired},
			{Key: "fired_date", Value: bson.D{{Key: "$max", Value: bson.A{firedAt, "$created_at"}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Piece
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Piece{}, &errs.NotFoundError{ID: id}
	}
	if err != nil {
		return models.Piece{}, err
	}
	return p, nil
}

// Ping checks connectivity to the primary.
func (s *Mongo) Ping(ctx context.Context) error {
	return s.c.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *Mongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Piece, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Piece{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func ownerFilter(status, ownerEmail string) bson.M {
	filter := bson.M{"status": status}
	if ownerEmail != "" {
		filter["submitted_by.email"] = ownerEmail
	}
	return filter
}
