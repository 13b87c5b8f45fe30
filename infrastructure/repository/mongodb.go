// Package repository persists analysis runs in MongoDB or in memory.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB is a connected history database.
type MongoDB struct {
	client   *mongo.Client
	analyses *mongo.Collection
	logger   *slog.Logger
}

// MongoDBConfig contains configuration for the history database.
type MongoDBConfig struct {
	URI      string
	Database string
	// AppName is reported to the server and shows up in its logs.
	AppName                string
	ConnectTimeout         time.Duration
	PingTimeout            time.Duration
	ServerSelectionTimeout time.Duration
}

// DefaultMongoDBConfig returns default configuration.
func DefaultMongoDBConfig() *MongoDBConfig {
	return &MongoDBConfig{
		URI:                    "mongodb://localhost:27017",
		Database:               "pitchtrack",
		AppName:                "pitchtrack",
		ConnectTimeout:         10 * time.Second,
		PingTimeout:            5 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
	}
}

// Validate rejects settings the driver would only fail on at connect time.
func (c *MongoDBConfig) Validate() error {
	if !strings.HasPrefix(c.URI, "mongodb://") && !strings.HasPrefix(c.URI, "mongodb+srv://") {
		return fmt.Errorf("mongo uri %q must start with mongodb:// or mongodb+srv://", redactURI(c.URI))
	}
	if c.Database == "" {
		return errors.New("mongo database name must be set")
	}
	return nil
}

// NewMongoDB connects, verifies the server answers and creates the indexes
// the history queries rely on.
func NewMongoDB(ctx context.Context, cfg *MongoDBConfig, logger *slog.Logger) (*MongoDB, error) {
	if cfg == nil {
		cfg = DefaultMongoDBConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	defaults := DefaultMongoDBConfig()
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaults.ConnectTimeout
	}
	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaults.PingTimeout
	}

	clientOptions := options.Client().ApplyURI(cfg.URI)
	if cfg.AppName != "" {
		clientOptions.SetAppName(cfg.AppName)
	}
	clientOptions.SetConnectTimeout(connectTimeout)
	if cfg.ServerSelectionTimeout > 0 {
		clientOptions.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, pingTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m := &MongoDB{
		client:   client,
		analyses: client.Database(cfg.Database).Collection(AnalysisCollection),
		logger:   logger,
	}
	indexCtx, indexCancel := context.WithTimeout(ctx, pingTimeout)
	defer indexCancel()
	// History still works without the index, only slower.
	if err := m.ensureIndexes(indexCtx); err != nil {
		logger.Warn("Failed to create history indexes", "error", err)
	}

	logger.Info("Connected to MongoDB", "uri", redactURI(cfg.URI), "database", cfg.Database)
	return m, nil
}

// Analyses returns the collection holding analysis runs.
func (m *MongoDB) Analyses() *mongo.Collection {
	return m.analyses
}

// Close disconnects from MongoDB.
func (m *MongoDB) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.analyses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "started_at", Value: -1}},
		Options: options.Index().SetName("started_at_desc"),
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// redactURI hides the password of a connection string for logging.
func redactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		// Seed lists such as host1,host2 may not parse; drop the credentials by hand.
		scheme, rest, ok := strings.Cut(raw, "://")
		if !ok {
			return "<invalid uri>"
		}
		if at := strings.LastIndex(rest, "@"); at >= 0 {
			rest = "xxxxx@" + rest[at+1:]
		}
		return scheme + "://" + rest
	}
	return u.Redacted()
}
