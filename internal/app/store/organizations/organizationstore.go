// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/loomos/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection is the Mongo collection organizations live in.
const Collection = "organizations"

// Unique index names. The duplicate-key error names the violated index,
// which is how MongoStore tells the three conflicts apart.
const (
	IndexSubdomain    = "uniq_orgs_subdomain"
	IndexCustomDomain = "uniq_orgs_custom_domain"
	IndexSlug         = "uniq_orgs_slug"
)

// MongoStore is the primary Store backend.
type MongoStore struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *MongoStore {
	return &MongoStore{c: db.Collection(Collection)}
}

func (s *MongoStore) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	org = prepareCreate(org, time.Now().UTC())
	if _, err := s.c.InsertOne(ctx, org); err != nil {
		return models.Organization{}, mongoErr(err)
	}
	return org, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetBySlug(ctx context.Context, slug string) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"slug": key(slug)})
}

func (s *MongoStore) GetBySubdomain(ctx context.Context, subdomain string) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"subdomain": key(subdomain)})
}

func (s *MongoStore) GetByCustomDomain(ctx context.Context, domain string) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"custom_domain": key(domain)})
}

// List returns every organization ordered by folded name.
func (s *MongoStore) List(ctx context.Context) ([]models.Organization, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (s *MongoStore) Update(ctx context.Context, org models.Organization) (models.Organization, error) {
	existing, err := s.GetByID(ctx, org.ID)
	if err != nil {
		return models.Organization{}, err
	}
	org = normalize(org)
	org.CreatedAt = existing.CreatedAt
	org.UpdatedAt = time.Now().UTC()

	// Replace so cleared addressing fields are removed from the document
	// (omitempty) and drop out of the partial unique indexes.
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": org.ID}, org)
	if err != nil {
		return models.Organization{}, mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return models.Organization{}, ErrNotFound
	}
	return org, nil
}

func (s *MongoStore) MarkDomainVerified(ctx context.Context, id string, at time.Time) (models.Organization, error) {
	org, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Organization{}, err
	}
	org, err = markVerified(org, at)
	if err != nil {
		return models.Organization{}, err
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "custom_domain": org.CustomDomainValue()},
		bson.M{"$set": bson.M{
			"domain_verification.verified_at": org.DomainVerification.VerifiedAt,
			"updated_at":                      org.UpdatedAt,
		}})
	if err != nil {
		return models.Organization{}, err
	}
	if res.MatchedCount == 0 {
		// Custom domain changed between the read and the write.
		return models.Organization{}, ErrNoPendingVerification
	}
	return org, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.c.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, filter).Decode(&org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Organization{}, ErrNotFound
	}
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// mongoErr maps duplicate-key errors onto the store's sentinel errors.
func mongoErr(err error) error {
	if !wafflemongo.IsDup(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, IndexSubdomain):
		return ErrDuplicateSubdomain
	case strings.Contains(msg, IndexCustomDomain):
		return ErrDuplicateCustomDomain
	case strings.Contains(msg, IndexSlug):
		return ErrDuplicateSlug
	case strings.Contains(msg, "_id_"):
		return ErrDuplicateID
	}
	return err
}
