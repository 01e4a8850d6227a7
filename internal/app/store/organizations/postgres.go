package organizationstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/loomos/internal/domain/models"
	"github.com/lib/pq"
)

// Postgres constraint names; unique violations are mapped by name.
const (
	pgConstraintSubdomain    = "organizations_subdomain_key"
	pgConstraintCustomDomain = "organizations_custom_domain_key"
	pgConstraintSlug         = "organizations_slug_key"
	pgConstraintPrimary      = "organizations_pkey"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Schema is the DDL PostgresStore.EnsureSchema applies. NULL addressing
// columns do not collide under UNIQUE, which gives "unique when set".
const Schema = `
CREATE TABLE IF NOT EXISTS organizations (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	name_ci             TEXT NOT NULL,
	slug                TEXT,
	subdomain           TEXT,
	custom_domain       TEXT,
	domain_verification JSONB,
	branding            JSONB NOT NULL DEFAULT '{}'::jsonb,
	features            JSONB,
	plan                TEXT NOT NULL,
	is_active           BOOLEAN NOT NULL DEFAULT FALSE,
	is_suspended        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	CONSTRAINT organizations_slug_key UNIQUE (slug),
	CONSTRAINT organizations_subdomain_key UNIQUE (subdomain),
	CONSTRAINT organizations_custom_domain_key UNIQUE (custom_domain)
);
CREATE INDEX IF NOT EXISTS idx_orgs_name_ci ON organizations (name_ci, id);
`

const orgColumns = `id, name, name_ci, slug, subdomain, custom_domain, domain_verification,
	branding, features, plan, is_active, is_suspended, created_at, updated_at`

// PostgresStore implements Store on database/sql with the lib/pq driver.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres creates a PostgresStore using the provided database handle.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the organizations table and its indexes.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure organizations schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	org = prepareCreate(org, time.Now().UTC())

	args, err := pgArgs(org)
	if err != nil {
		return models.Organization{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO organizations (`+orgColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, args...)
	if err != nil {
		return models.Organization{}, pgErr(err)
	}
	return org, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (models.Organization, error) {
	return s.getBy(ctx, "id", id)
}

func (s *PostgresStore) GetBySlug(ctx context.Context, slug string) (models.Organization, error) {
	return s.getBy(ctx, "slug", key(slug))
}

func (s *PostgresStore) GetBySubdomain(ctx context.Context, subdomain string) (models.Organization, error) {
	return s.getBy(ctx, "subdomain", key(subdomain))
}

func (s *PostgresStore) GetByCustomDomain(ctx context.Context, domain string) (models.Organization, error) {
	return s.getBy(ctx, "custom_domain", key(domain))
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orgColumns+`
		FROM organizations
		ORDER BY name_ci, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Organization
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, org)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, org models.Organization) (models.Organization, error) {
	existing, err := s.GetByID(ctx, org.ID)
	if err != nil {
		return models.Organization{}, err
	}
	org = normalize(org)
	org.CreatedAt = existing.CreatedAt
	org.UpdatedAt = time.Now().UTC()

	args, err := pgArgs(org)
	if err != nil {
		return models.Organization{}, err
	}
	// created_at is never rewritten; drop it so every placeholder is used.
	args = append(args[:12], args[13])
	result, err := s.db.ExecContext(ctx, `
		UPDATE organizations
		SET name = $2, name_ci = $3, slug = $4, subdomain = $5, custom_domain = $6,
			domain_verification = $7, branding = $8, features = $9, plan = $10,
			is_active = $11, is_suspended = $12, updated_at = $13
		WHERE id = $1
	`, args...)
	if err != nil {
		return models.Organization{}, pgErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return models.Organization{}, ErrNotFound
	}
	return org, nil
}

func (s *PostgresStore) MarkDomainVerified(ctx context.Context, id string, at time.Time) (models.Organization, error) {
	org, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Organization{}, err
	}
	org, err = markVerified(org, at)
	if err != nil {
		return models.Organization{}, err
	}
	dv, err := json.Marshal(org.DomainVerification)
	if err != nil {
		return models.Organization{}, err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE organizations
		SET domain_verification = $3, updated_at = $4
		WHERE id = $1 AND custom_domain = $2
	`, id, org.CustomDomainValue(), dv, org.UpdatedAt)
	if err != nil {
		return models.Organization{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return models.Organization{}, ErrNoPendingVerification
	}
	return org, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// getBy reads one organization by a unique column. column is never user input.
func (s *PostgresStore) getBy(ctx context.Context, column, value string) (models.Organization, error) {
	if value == "" {
		return models.Organization{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT `+orgColumns+`
		FROM organizations
		WHERE `+column+` = $1
	`, value)
	org, err := scanOrg(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Organization{}, ErrNotFound
	}
	return org, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrg(row rowScanner) (models.Organization, error) {
	var (
		org                          models.Organization
		slug, subdomain, customDom   sql.NullString
		verifyRaw, brandRaw, featRaw []byte
	)
	if err := row.Scan(
		&org.ID, &org.Name, &org.NameCI, &slug, &subdomain, &customDom, &verifyRaw,
		&brandRaw, &featRaw, &org.Plan, &org.IsActive, &org.IsSuspended,
		&org.CreatedAt, &org.UpdatedAt,
	); err != nil {
		return models.Organization{}, err
	}
	org.Slug = slug.String
	org.Subdomain = models.StringPtr(subdomain.String)
	org.CustomDomain = models.StringPtr(customDom.String)

	if len(verifyRaw) > 0 && string(verifyRaw) != "null" {
		var dv models.DomainVerification
		if err := json.Unmarshal(verifyRaw, &dv); err != nil {
			return models.Organization{}, fmt.Errorf("decode domain_verification for %s: %w", org.ID, err)
		}
		org.DomainVerification = &dv
	}
	if len(brandRaw) > 0 {
		if err := json.Unmarshal(brandRaw, &org.Branding); err != nil {
			return models.Organization{}, fmt.Errorf("decode branding for %s: %w", org.ID, err)
		}
	}
	if len(featRaw) > 0 {
		if err := json.Unmarshal(featRaw, &org.Features); err != nil {
			return models.Organization{}, fmt.Errorf("decode features for %s: %w", org.ID, err)
		}
	}
	return org, nil
}

// pgArgs returns the column values of org in orgColumns order.
func pgArgs(org models.Organization) ([]any, error) {
	// JSON columns use an untyped nil so the driver sends NULL.
	var verify, feat any
	if org.DomainVerification != nil {
		b, err := json.Marshal(org.DomainVerification)
		if err != nil {
			return nil, err
		}
		verify = b
	}
	brand, err := json.Marshal(org.Branding)
	if err != nil {
		return nil, err
	}
	if len(org.Features) > 0 {
		b, err := json.Marshal(org.Features)
		if err != nil {
			return nil, err
		}
		feat = b
	}
	return []any{
		org.ID, org.Name, org.NameCI,
		nullString(org.Slug), nullString(org.SubdomainValue()), nullString(org.CustomDomainValue()),
		verify, brand, feat, org.Plan, org.IsActive, org.IsSuspended,
		org.CreatedAt, org.UpdatedAt,
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// pgErr maps unique violations onto the store's sentinel errors.
func pgErr(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case pgConstraintSubdomain:
		return ErrDuplicateSubdomain
	case pgConstraintCustomDomain:
		return ErrDuplicateCustomDomain
	case pgConstraintSlug:
		return ErrDuplicateSlug
	case pgConstraintPrimary:
		return ErrDuplicateID
	}
	return err
}
