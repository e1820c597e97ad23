// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryLifecycle = "lifecycle"
)

// Lifecycle event types
const (
	EventPieceSubmitted     = "piece_submitted"
	EventPieceFired         = "piece_fired"
	EventActionStaged       = "action_staged"
	EventActionCancelled    = "action_cancelled"
	EventActionExpired      = "action_expired"
	EventNotificationSent   = "notification_sent"
	EventNotificationFailed = "notification_failed"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	// What
	PieceID     int64  `bson:"piece_id,omitempty" json:"pieceId,omitempty"`
	ActionToken string `bson:"action_token,omitempty" json:"actionToken,omitempty"`
	OwnerEmail  string `bson:"owner_email,omitempty" json:"ownerEmail,omitempty"`

	// Context
	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	PieceID   int64
	EventType string
	Limit     int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// CollectionName is the Mongo collection holding audit events. Its indexes
// are managed by the indexes package.
const CollectionName = "audit_events"

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the given filter, oldest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query := bson.M{}
	if filter.PieceID != 0 {
		query["piece_id"] = filter.PieceID
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
