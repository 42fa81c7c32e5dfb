package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

const (
	collectionUsers         = "users"
	collectionBadgeRequests = "badge_requests"
	collectionBadges        = "badges"
	collectionLocks         = "locks"

	adminRosterLock = "admin_roster"

	indexUserEmail     = "uniq_user_email"
	indexBadgeNumber   = "uniq_badge_number"
	indexBadgeRequest  = "uniq_badge_request"
	indexRequestOwner  = "badge_request_owner"
	indexRequestStatus = "badge_request_status"
	indexBadgeOwner    = "badge_owner"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the indexes every collection relies on. The unique
// ones back the email, badge number and one-badge-per-request rules.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(indexUserEmail).SetUnique(true)},
		},
		collectionBadgeRequests: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName(indexRequestOwner)},
			{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName(indexRequestStatus)},
		},
		collectionBadges: {
			{Keys: bson.D{{Key: "badge_number", Value: 1}}, Options: options.Index().SetName(indexBadgeNumber).SetUnique(true)},
			{Keys: bson.D{{Key: "badge_request_id", Value: 1}}, Options: options.Index().SetName(indexBadgeRequest).SetUnique(true)},
			{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: options.Index().SetName(indexBadgeOwner)},
		},
	}

	for coll, indexes := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}

	// lock documents are written inside transactions, so they must exist first
	_, err := db.Collection(collectionLocks).UpdateOne(ctx,
		bson.M{"_id": adminRosterLock},
		bson.M{"$setOnInsert": bson.M{"version": 0}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("seed lock documents: %w", err)
	}
	return nil
}

// duplicateKeyError maps a unique index violation onto the domain error for
// that index. Other errors are returned unchanged.
func duplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexUserEmail):
		return domain.ErrEmailTaken
	case strings.Contains(msg, indexBadgeNumber):
		return domain.ErrBadgeNumberTaken
	case strings.Contains(msg, indexBadgeRequest):
		return fmt.Errorf("%w: a badge was already issued for this request", domain.ErrInvalidState)
	}
	return fmt.Errorf("%w: %v", domain.ErrConflict, err)
}

// objectID parses a hex id. Malformed ids cannot exist, so they map to notFound.
func objectID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}

func notFoundOr(err, notFound error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return err
}
