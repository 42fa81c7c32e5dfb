package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/airport-ops/badge-system/internal/core/domain"
)

type BadgeRepository struct {
	col *mongo.Collection
}

func NewBadgeRepository(db *mongo.Database) *BadgeRepository {
	return &BadgeRepository{col: db.Collection(collectionBadges)}
}

type badgeDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID        primitive.ObjectID `bson:"owner_id"`
	BadgeRequestID primitive.ObjectID `bson:"badge_request_id"`
	BadgeNumber    string             `bson:"badge_number"`
	IssuedAt       time.Time          `bson:"issued_at"`
	ExpiresAt      *time.Time         `bson:"expires_at"`
	ArtifactPath   *string            `bson:"artifact_path"`
}

func (d badgeDoc) toDomain() *domain.Badge {
	return &domain.Badge{
		ID:             d.ID.Hex(),
		OwnerID:        d.OwnerID.Hex(),
		BadgeRequestID: d.BadgeRequestID.Hex(),
		BadgeNumber:    d.BadgeNumber,
		IssuedAt:       d.IssuedAt.UTC(),
		ExpiresAt:      utcPtr(d.ExpiresAt),
		ArtifactPath:   d.ArtifactPath,
	}
}

// Create inserts the badge. The unique indexes on badge_number and
// badge_request_id reject concurrent duplicates.
func (r *BadgeRepository) Create(ctx context.Context, b *domain.Badge) error {
	owner, err := objectID(b.OwnerID, domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	req, err := objectID(b.BadgeRequestID, domain.ErrBadgeRequestNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := badgeDoc{
		ID:             primitive.NewObjectID(),
		OwnerID:        owner,
		BadgeRequestID: req,
		BadgeNumber:    b.BadgeNumber,
		IssuedAt:       b.IssuedAt,
		ExpiresAt:      b.ExpiresAt,
		ArtifactPath:   b.ArtifactPath,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateKeyError(err)
		}
		return fmt.Errorf("insert badge: %w", err)
	}
	b.ID = doc.ID.Hex()
	return nil
}

func (r *BadgeRepository) FindByID(ctx context.Context, id string) (*domain.Badge, error) {
	oid, err := objectID(id, domain.ErrBadgeNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *BadgeRepository) FindByRequestID(ctx context.Context, requestID string) (*domain.Badge, error) {
	oid, err := objectID(requestID, domain.ErrBadgeNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"badge_request_id": oid})
}

func (r *BadgeRepository) findOne(ctx context.Context, filter bson.M) (*domain.Badge, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc badgeDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFoundOr(err, domain.ErrBadgeNotFound)
	}
	return doc.toDomain(), nil
}

// FindByRequestIDs loads the badges of many requests in one query.
func (r *BadgeRepository) FindByRequestIDs(ctx context.Context, requestIDs []string) (map[string]*domain.Badge, error) {
	out := make(map[string]*domain.Badge)
	ids := make([]primitive.ObjectID, 0, len(requestIDs))
	for _, id := range requestIDs {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			ids = append(ids, oid)
		}
	}
	if len(ids) == 0 {
		return out, nil
	}

	docs, err := r.find(ctx, bson.M{"badge_request_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		b := d.toDomain()
		out[b.BadgeRequestID] = b
	}
	return out, nil
}

// List returns badges newest first; an empty ownerID lists all of them.
func (r *BadgeRepository) List(ctx context.Context, ownerID string) ([]*domain.Badge, error) {
	filter := bson.M{}
	if ownerID != "" {
		owner, err := primitive.ObjectIDFromHex(ownerID)
		if err != nil {
			return []*domain.Badge{}, nil
		}
		filter["owner_id"] = owner
	}

	docs, err := r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "issued_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Badge, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *BadgeRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]badgeDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find badges: %w", err)
	}
	var docs []badgeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode badges: %w", err)
	}
	return docs, nil
}

func (r *BadgeRepository) SetArtifactPath(ctx context.Context, id, path string) error {
	oid, err := objectID(id, domain.ErrBadgeNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"artifact_path": path}})
	if err != nil {
		return fmt.Errorf("set artifact path: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrBadgeNotFound
	}
	return nil
}

func (r *BadgeRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"owner_id": owner}); err != nil {
		return fmt.Errorf("delete badges: %w", err)
	}
	return nil
}
