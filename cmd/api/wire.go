package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notka/internal/config"
	"notka/internal/database"
	"notka/internal/database/migration"
	"notka/internal/repository"
	"notka/internal/repository/mongodb"
	"notka/internal/repository/postgres"
	"notka/internal/storage"
)

// noteStore is an opened note repository together with its health probe and cleanup.
type noteStore struct {
	repo  repository.NoteRepository
	ping  func(context.Context) error
	close func() error
}

// openNoteStore connects to the configured DB_DRIVER. With migrate set the
// schema or indexes are brought up to date before the store is returned.
func openNoteStore(ctx context.Context, c *config.AppConfig, log *zap.Logger, migrate bool) (*noteStore, error) {
	switch c.DBDriver {
	case config.DriverPostgres:
		db, err := database.NewPostgres(c.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if migrate {
			if err := migration.EnsureMigrated(ctx, db, log, c.Database.Host); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &noteStore{
			repo:  postgres.NewNotePostgres(db),
			ping:  db.PingContext,
			close: db.Close,
		}, nil

	case config.DriverMongo:
		client, coll, err := database.NewMongo(c.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		repo := mongodb.NewNoteMongo(coll)
		if migrate {
			if err := repo.EnsureIndexes(ctx); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, fmt.Errorf("ensure indexes: %w", err)
			}
			log.Info("mongo indexes ensured",
				zap.String("component", "migration"),
				zap.String("collection", coll.Name()),
			)
		}
		return &noteStore{
			repo: repo,
			ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return client.Disconnect(ctx)
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

// openFileStore builds the attachment store on the configured STORAGE_DRIVER.
func openFileStore(c *config.AppConfig, log *zap.Logger) (*storage.FileStore, error) {
	var (
		backend storage.Storage
		err     error
	)
	switch c.StorageDriver {
	case config.StorageDisk:
		backend, err = storage.NewDisk(c.Upload.Dir)
	case config.StorageMinIO:
		backend, err = storage.NewMinIO(c.MinIO)
	default:
		err = fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}
	log.Info("file storage ready",
		zap.String("component", "storage"),
		zap.String("driver", c.StorageDriver),
		zap.String("upload_dir", c.Upload.Dir),
	)
	return storage.NewFileStore(backend, c.Upload.Dir, log), nil
}
