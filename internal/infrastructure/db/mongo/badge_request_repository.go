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
	"github.com/airport-ops/badge-system/internal/core/ports"
)

type BadgeRequestRepository struct {
	col *mongo.Collection
}

func NewBadgeRequestRepository(db *mongo.Database) *BadgeRequestRepository {
	return &BadgeRequestRepository{col: db.Collection(collectionBadgeRequests)}
}

type badgeRequestDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID        primitive.ObjectID `bson:"owner_id"`
	Type           string             `bson:"type"`
	RequestReason  string             `bson:"request_reason"`
	RequestedZones []string           `bson:"requested_zones"`
	ValidFrom      time.Time          `bson:"valid_from"`
	ValidUntil     *time.Time         `bson:"valid_until"`
	Status         string             `bson:"status"`
	AdminComment   *string            `bson:"admin_comment"`
	ProcessedAt    *time.Time         `bson:"processed_at"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (d badgeRequestDoc) toDomain() *domain.BadgeRequest {
	return &domain.BadgeRequest{
		ID:             d.ID.Hex(),
		OwnerID:        d.OwnerID.Hex(),
		Type:           domain.BadgeType(d.Type),
		RequestReason:  d.RequestReason,
		RequestedZones: d.RequestedZones,
		ValidFrom:      d.ValidFrom.UTC(),
		ValidUntil:     utcPtr(d.ValidUntil),
		Status:         domain.RequestStatus(d.Status),
		AdminComment:   d.AdminComment,
		ProcessedAt:    utcPtr(d.ProcessedAt),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

// Create inserts a new badge request and assigns its ID.
func (r *BadgeRequestRepository) Create(ctx context.Context, br *domain.BadgeRequest) error {
	owner, err := objectID(br.OwnerID, domain.ErrUserNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := badgeRequestDoc{
		ID:             primitive.NewObjectID(),
		OwnerID:        owner,
		Type:           string(br.Type),
		RequestReason:  br.RequestReason,
		RequestedZones: br.RequestedZones,
		ValidFrom:      br.ValidFrom,
		ValidUntil:     br.ValidUntil,
		Status:         string(br.Status),
		AdminComment:   br.AdminComment,
		ProcessedAt:    br.ProcessedAt,
		CreatedAt:      br.CreatedAt,
		UpdatedAt:      br.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert badge request: %w", err)
	}
	br.ID = doc.ID.Hex()
	return nil
}

func (r *BadgeRequestRepository) FindByID(ctx context.Context, id string) (*domain.BadgeRequest, error) {
	oid, err := objectID(id, domain.ErrBadgeRequestNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc badgeRequestDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, domain.ErrBadgeRequestNotFound)
	}
	return doc.toDomain(), nil
}

// List returns requests newest first. An empty OwnerID lists every owner.
func (r *BadgeRequestRepository) List(ctx context.Context, f ports.ListBadgeRequestsFilter) ([]*domain.BadgeRequest, error) {
	filter := bson.M{}
	if f.OwnerID != "" {
		owner, err := primitive.ObjectIDFromHex(f.OwnerID)
		if err != nil {
			return []*domain.BadgeRequest{}, nil
		}
		filter["owner_id"] = owner
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list badge requests: %w", err)
	}
	var docs []badgeRequestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode badge requests: %w", err)
	}

	out := make([]*domain.BadgeRequest, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

// UpdateStatus writes the decision only while the stored status equals from,
// so two concurrent decisions cannot both win.
func (r *BadgeRequestRepository) UpdateStatus(ctx context.Context, br *domain.BadgeRequest, from domain.RequestStatus) error {
	oid, err := objectID(br.ID, domain.ErrBadgeRequestNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "status": string(from)},
		bson.M{"$set": bson.M{
			"status":        string(br.Status),
			"admin_comment": br.AdminComment,
			"processed_at":  br.ProcessedAt,
			"updated_at":    br.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update badge request status: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("check badge request: %w", err)
		}
		if n == 0 {
			return domain.ErrBadgeRequestNotFound
		}
		return fmt.Errorf("%w: badge request is no longer %s", domain.ErrInvalidState, from)
	}
	return nil
}

func (r *BadgeRequestRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"owner_id": owner}); err != nil {
		return fmt.Errorf("delete badge requests: %w", err)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
