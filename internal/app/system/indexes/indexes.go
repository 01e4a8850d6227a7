// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	organizationstore "github.com/dalemusser/loomos/internal/app/store/organizations"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup (mongo driver only). Each ensure* function is
idempotent. Errors are aggregated so every problem is visible and startup can
fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	if err := ensureOrganizations(ctx, db, logger); err != nil {
		problems = append(problems, organizationstore.Collection+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// OrganizationIndexes is the desired index set for the organizations
// collection. Addressing indexes are partial on string values, so
// organizations without a subdomain or custom domain never collide.
func OrganizationIndexes() []mongo.IndexModel {
	whenString := func(field string) bson.D {
		return bson.D{{Key: field, Value: bson.D{{Key: "$type", Value: "string"}}}}
	}
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "subdomain", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(whenString("subdomain")).
				SetName(organizationstore.IndexSubdomain),
		},
		{
			Keys: bson.D{{Key: "custom_domain", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(whenString("custom_domain")).
				SetName(organizationstore.IndexCustomDomain),
		},
		{
			Keys: bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(whenString("slug")).
				SetName(organizationstore.IndexSlug),
		},
		// Listing sorts by folded name.
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_orgs_nameci__id"),
		},
	}
}

func ensureOrganizations(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection(organizationstore.Collection), OrganizationIndexes(), logger)
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.D `bson:"partialFilterExpression,omitempty"`
}

// desired is the comparable shape of an IndexModel.
type desired struct {
	name    string
	keys    string
	unique  bool
	partial string
}

func describe(m mongo.IndexModel) desired {
	d := desired{keys: docSig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique != nil && *m.Options.Unique
		if pf, ok := m.Options.PartialFilterExpression.(bson.D); ok {
			d.partial = docSig(pf)
		}
	}
	return d
}

func docSig(doc bson.D) string {
	parts := make([]string, 0, len(doc))
	for _, kv := range doc {
		if nested, ok := kv.Value.(bson.D); ok {
			parts = append(parts, fmt.Sprintf("%s:{%s}", kv.Key, docSig(nested)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // key signature -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			return nil, err
		}
		existing[docSig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

// ensureIndexSet creates missing indexes, reuses matching ones, and drops
// and recreates indexes whose name, uniqueness, or partial filter drifted.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		logger.Debug("listing indexes failed; creating all",
			zap.String("collection", coll.Name()),
			zap.Error(err))
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		want := describe(m)
		start := time.Now()
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("name", want.name),
			zap.String("keys", want.keys),
			zap.Bool("unique", want.unique))

		if ex, ok := existing[want.keys]; ok {
			have := desired{
				name:    ex.Name,
				keys:    want.keys,
				unique:  ex.Unique != nil && *ex.Unique,
				partial: docSig(ex.Partial),
			}
			if have == want || (want.name == "" && have.unique == want.unique && have.partial == want.partial) {
				log.Debug("reusing existing index")
				continue
			}
			log.Info("index drifted; recreating", zap.String("existing_name", ex.Name))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), want.name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if want.unique && isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), want.name, want.keys))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), want.name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// isDuplicateKeyErr detects E11000 across server versions.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), "E11000")
}
