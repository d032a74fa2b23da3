package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// SetupBookStorage connects to the configured records store and provides the
// matching book storage along with the function releasing its connection.
func SetupBookStorage(config *Config, logger *zap.Logger) (BookStorage, func(), error) {
	switch config.Store.Driver {
	case StoreMongo:
		client, err := GetMongoClient(config)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongodb server: %s", err)
		}
		collection := client.Database(config.Mongo.Database).Collection(config.Mongo.Collection)
		closer := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error("failed to disconnect from mongodb server", zap.Error(err))
			}
		}
		return NewMongoBookStorage(logger, collection), closer, nil

	case StoreRedis:
		client, err := GetRedisClient(config)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		closer := func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close redis client", zap.Error(err))
			}
		}
		return NewRedisBookStorage(logger, client), closer, nil

	case StoreBolt:
		if err := os.MkdirAll(filepath.Dir(config.BoltDB.FilePath), 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create boltDB folder: %s", err)
		}
		client, err := GetBoltDBClient(&config.BoltDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open boltDB database: %s", err)
		}
		closer := func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close boltDB database", zap.Error(err))
			}
		}
		return NewBoltBookStorage(logger, &config.BoltDB, client), closer, nil

	case StorePostgres:
		db, err := GetPostgresClient(config)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres server: %s", err)
		}
		closer := func() {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.Close()
			}
			if err != nil {
				logger.Error("failed to close postgres connection", zap.Error(err))
			}
		}
		return NewPostgresBookStorage(logger, db), closer, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver %q", config.Store.Driver)
}
