package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout    = 3 * time.Second
	defaultCollection = "visitor_storage"
)

// Config selects the MongoDB deployment and where visitor storage lives in it.
type Config struct {
	URI        string
	Database   string
	Collection string
	// Timeout bounds connecting, server selection and index creation.
	Timeout time.Duration
	// TTL expires a visitor document after its last write. Zero keeps it.
	TTL time.Duration
}

// Open connects, pings, ensures the expiry index and returns the visitor
// store. The store owns the client; Close disconnects it.
func Open(ctx context.Context, cfg Config) (*KVStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("reservation-console").
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := newKVStore(client.Database(cfg.Database).Collection(collection))
	if err := s.ensureIndexes(connectCtx, cfg.TTL); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}
