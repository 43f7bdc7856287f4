package repository

import (
	"context"

	"thoughtwave/internal/config"
	"thoughtwave/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

// NewGormStore builds a Store over an open GORM connection.
func NewGormStore(db *gorm.DB, driver string) *Store {
	return &Store{
		Users:    NewUserRepository(db),
		Thoughts: NewThoughtRepository(db),
		Driver:   driver,
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		close: func(_ context.Context) error {
			return database.Close(db)
		},
	}
}

// NewMongoStore builds a Store over a connected Mongo client and database.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Users:    NewMongoUserRepository(db),
		Thoughts: NewMongoThoughtRepository(db),
		Driver:   config.DriverMongo,
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}
}

// Open connects to the backend selected by cfg.DatabaseURL.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	if driver == config.DriverMongo {
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(client, db), nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return NewGormStore(db, driver), nil
}
