// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	piecestore "github.com/dalemusser/kilntrack/internal/app/store/pieces"
	"github.com/dalemusser/kilntrack/internal/app/system/indexes"
	"github.com/dalemusser/kilntrack/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const mongoConnectTimeout = 10 * time.Second

// ConnectDB opens the configured piece store backend.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{Backend: appCfg.StoreBackend, services: &services{}}

	switch appCfg.StoreBackend {
	case BackendMongo:
		client, err := connectMongo(ctx, appCfg)
		if err != nil {
			logger.Error("MongoDB connect failed", zap.Error(err))
			return DBDeps{}, err
		}
		db := client.Database(appCfg.MongoDatabase)
		deps.MongoClient = client
		deps.MongoDatabase = db
		deps.Pieces = piecestore.NewMongo(db)
		logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	case BackendSQLite:
		s, err := piecestore.OpenSQLite(ctx, appCfg.SQLitePath)
		if err != nil {
			logger.Error("SQLite open failed", zap.String("path", appCfg.SQLitePath), zap.Error(err))
			return DBDeps{}, err
		}
		deps.SQLite = s
		deps.Pieces = s
		logger.Info("opened SQLite piece store", zap.String("path", appCfg.SQLitePath))

	default:
		deps.Backend = BackendMemory
		deps.Pieces = piecestore.NewMemory()
		logger.Warn("using in-memory piece store; pieces are lost on restart")
	}

	return deps, nil
}

func connectMongo(ctx context.Context, appCfg AppConfig) (*mongo.Client, error) {
	cctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}
	return client, nil
}

// EnsureSchema sets up indexes or schema as needed.
// On Mongo this attaches collection validators and indexes. SQLite creates
// its tables when opened; the memory store has no schema.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
