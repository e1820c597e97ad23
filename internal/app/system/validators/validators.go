// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dalemusser/kilntrack/internal/app/store/audit"
	piecestore "github.com/dalemusser/kilntrack/internal/app/store/pieces"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Info("validator ensured", zap.String("collection", coll))
	}

	ensure(piecestore.CollectionName, piecesSchema())
	ensure(audit.CollectionName, auditSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

// ensureCollection idempotently makes sure <name> exists.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err == nil && slices.Contains(names, name) {
		return nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	logger.Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	return db.RunCommand(ctx, cmd).Decode(&out)
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	return hasCode(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return hasCode(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return hasCode(err, 115, "not implemented", "not supported")
}

// hasCode matches a Mongo command error by code, falling back to message text
// for servers that report a different code.
func hasCode(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

// piecesSchema mirrors the piece invariants: a fired piece carries a fired
// date and a pending one does not.
func piecesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "title", "status", "priority", "created_at", "submitted_by"},
			"properties": bson.M{
				"_id":          bson.M{"bsonType": "long"},
				"title":        nonBlank,
				"status":       bson.M{"enum": bson.A{models.PieceStatusPending, models.PieceStatusFired}},
				"priority":     bson.M{"enum": bson.A{models.PriorityNormal, models.PriorityUrgent}},
				"created_at":   bson.M{"bsonType": "date"},
				"desired_date": bson.M{"bsonType": bson.A{"date", "null"}},
				"fired_date":   bson.M{"bsonType": bson.A{"date", "null"}},
				"submitted_by": bson.M{
					"bsonType": "object",
					"required": bson.A{"email"},
					"properties": bson.M{
						"email": nonBlank,
					},
				},
			},
		},
		"$or": bson.A{
			bson.M{"status": models.PieceStatusPending, "fired_date": bson.M{"$exists": false}},
			bson.M{"status": models.PieceStatusFired, "fired_date": bson.M{"$type": "date"}},
		},
	}
}

func auditSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"timestamp", "category", "event_type", "success"},
			"properties": bson.M{
				"timestamp":  bson.M{"bsonType": "date"},
				"category":   nonBlank,
				"event_type": nonBlank,
				"success":    bson.M{"bsonType": "bool"},
			},
		},
	}
}
