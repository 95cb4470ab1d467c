// Package storage owns the MongoDB connection and the collection handles
// built on it. A Client is not usable until Connect has succeeded.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	// ErrNotConnected is returned by collection accessors before Connect completes.
	ErrNotConnected = errors.New("database not connected")
	// ErrClosed is returned by Connect once Close has been called.
	ErrClosed = errors.New("storage client closed")
)

// Options configures a Client.
type Options struct {
	URI             string
	Database        string
	UsersCollection string
	ConnectTimeout  time.Duration
}

// Client wraps a mongo.Client. Readiness flips once, after a successful
// connect and ping, and the underlying handles are never reassigned.
// mu orders a late Connect against Close.
type Client struct {
	opts   Options
	log    *slog.Logger
	mu     sync.Mutex
	closed bool
	client *mongo.Client
	users  *mongo.Collection
	ready  atomic.Bool
}

// New returns an unconnected Client.
func New(opts Options, log *slog.Logger) *Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{opts: opts, log: log}
}

// Connect dials MongoDB, pings the primary and ensures indexes.
// It must be called at most once.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(c.opts.URI))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		_ = mc.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}

	users := mc.Database(c.opts.Database).Collection(c.opts.UsersCollection)
	if err := ensureIndexes(ctx, users); err != nil {
		_ = mc.Disconnect(context.Background())
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = mc.Disconnect(context.Background())
		return ErrClosed
	}
	c.client = mc
	c.users = users
	c.ready.Store(true)
	c.mu.Unlock()
	c.log.Info("connected to MongoDB", "database", c.opts.Database, "collection", c.opts.UsersCollection)
	return nil
}

// Attach marks the client ready with an already connected users collection.
func (c *Client) Attach(users *mongo.Collection) {
	c.users = users
	c.ready.Store(true)
}

// Ready reports whether Connect has completed successfully.
func (c *Client) Ready() bool {
	return c.ready.Load()
}

// Users returns the users collection handle.
func (c *Client) Users() (*mongo.Collection, error) {
	if !c.ready.Load() {
		return nil, ErrNotConnected
	}
	return c.users, nil
}

// Ping checks the live connection.
func (c *Client) Ping(ctx context.Context) error {
	if !c.ready.Load() || c.client == nil {
		return ErrNotConnected
	}
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects if connected. A Connect still in flight is
// disconnected as soon as it finishes and reports ErrClosed.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.ready.Store(false)
	mc := c.client
	c.mu.Unlock()
	if mc == nil {
		return nil
	}
	return mc.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, users *mongo.Collection) error {
	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetName("username_1"),
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}
