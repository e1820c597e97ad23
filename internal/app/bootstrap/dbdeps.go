// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	piecestore "github.com/dalemusser/kilntrack/internal/app/store/pieces"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Exactly one piece store backend is open at a time. MongoClient and
// MongoDatabase are set only for the mongo backend, SQLite only for sqlite.
type DBDeps struct {
	Backend string
	Pieces  piecestore.Store

	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	SQLite        *piecestore.SQLite

	// services built in Startup and shared with BuildHandler and Shutdown
	services *services
}
