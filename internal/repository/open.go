package repository

import (
	"context"
	"fmt"

	"github.com/princeprakhar/product-catalog/internal/config"
	"github.com/princeprakhar/product-catalog/internal/database"
)

// Open builds the store selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StorageDriver {
	case config.StorageFile:
		return NewFileStore(cfg.DataDir)
	case config.StoragePostgres:
		db, err := database.Init(cfg.DatabaseURL, cfg.Environment != "production")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return NewGormStore(db), nil
	case config.StorageMongo:
		client, db, err := database.InitMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(client, db), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
}
