// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"github.com/dalemusser/loomos/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		log := logger.With(zap.String("collection", coll))
		if _, err := ensureCollection(ctx, db, coll, log); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema, log); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				log.Info("validator skipped (unsupported)")
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure(organizationstore.Collection, OrganizationsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, log *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		log.Debug("collection exists")
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			log.Debug("collection exists")
			return false, nil
		}
		log.Warn("createCollection failed", zap.Error(err))
		return false, err
	}
	log.Info("created collection")
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	log.Info("validator ensured")
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// OrganizationsSchema is the validator attached to the organizations
// collection. Addressing fields are optional; when present they must
// already be in stored (lowercase) form.
func OrganizationsSchema() bson.M {
	nonBlank := bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "plan", "is_active", "is_suspended", "created_at", "updated_at"},
			"properties": bson.M{
				"name":          nonBlank,
				"name_ci":       nonBlank,
				"subdomain":     bson.M{"bsonType": "string", "pattern": "^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$"},
				"custom_domain": bson.M{"bsonType": "string", "pattern": "^[a-z0-9.-]+$", "maxLength": 253},
				"domain_verification": bson.M{
					"bsonType": "object",
					"required": bson.A{"token", "requested_at"},
					"properties": bson.M{
						"token":        nonBlank,
						"requested_at": bson.M{"bsonType": "date"},
						"verified_at":  bson.M{"bsonType": "date"},
					},
				},
				"plan":         bson.M{"enum": bson.A{models.PlanFree, models.PlanCommunity, models.PlanPro, models.PlanEnterprise}},
				"is_active":    bson.M{"bsonType": "bool"},
				"is_suspended": bson.M{"bsonType": "bool"},
				"created_at":   bson.M{"bsonType": "date"},
				"updated_at":   bson.M{"bsonType": "date"},
			},
		},
	}
}
