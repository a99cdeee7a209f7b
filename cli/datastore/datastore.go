// Package datastore connects the contacts store selected by the options.
package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	ds "github.com/andredosreis/contacts-api/datastores"
)

type StoreOptions struct {
	Store          string        `doc:"contacts store: inmem, mongo or postgres" default:"inmem"`
	MongoURI       string        `doc:"MongoDB connection string"                default:"mongodb://localhost:27017"`
	MongoDatabase  string        `doc:"MongoDB database name"                    default:"contacts"`
	PostgresDSN    string        `doc:"PostgreSQL connection string"`
	ConnectTimeout time.Duration `doc:"time allowed to connect to the store"     default:"10s"`
}

// Open connects the store and returns it with a function releasing its
// resources.
func Open(ctx context.Context, opts *StoreOptions, logger *slog.Logger) (ds.ContactsStore, func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	switch strings.ToLower(opts.Store) {
	case "", "inmem":
		logger.Warn("using in-memory store, contacts are lost on exit")
		return ds.NewContactsInmem(), func(context.Context) error { return nil }, nil

	case "mongo", "mongodb":
		client, err := mongo.Connect(options.Client().ApplyURI(opts.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		store, err := ds.NewContactsMongo(ctx, client.Database(opts.MongoDatabase), "contacts")
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.Info("connected to mongo", "database", opts.MongoDatabase)
		return store, client.Disconnect, nil

	case "postgres", "postgresql":
		pool, err := pgxpool.New(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store, err := ds.NewContactsPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return store, func(context.Context) error { pool.Close(); return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", opts.Store)
	}
}
