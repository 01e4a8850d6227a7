package organizationstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/loomos/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.etcd.io/bbolt"
)

var (
	orgsBucket         = []byte("organizations")
	subdomainBucket    = []byte("organizations_by_subdomain")
	customDomainBucket = []byte("organizations_by_custom_domain")
	slugBucket         = []byte("organizations_by_slug")
)

// BoltStore keeps organizations in an embedded bbolt file. Secondary
// buckets map each unique key to an organization id and are maintained in
// the same transaction as the record.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// NewBolt returns a BoltStore on db, creating its buckets.
func NewBolt(db *bbolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{orgsBucket, subdomainBucket, customDomainBucket, slugBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Create(_ context.Context, org models.Organization) (models.Organization, error) {
	org = prepareCreate(org, time.Now().UTC())
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(orgsBucket).Get([]byte(org.ID)) != nil {
			return ErrDuplicateID
		}
		if err := checkBoltUnique(tx, org); err != nil {
			return err
		}
		return putBolt(tx, org)
	})
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

func (s *BoltStore) GetByID(_ context.Context, id string) (models.Organization, error) {
	var org models.Organization
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		org, err = getBolt(tx, id)
		return err
	})
	return org, err
}

func (s *BoltStore) GetBySlug(_ context.Context, slug string) (models.Organization, error) {
	return s.getByIndex(slugBucket, key(slug))
}

func (s *BoltStore) GetBySubdomain(_ context.Context, subdomain string) (models.Organization, error) {
	return s.getByIndex(subdomainBucket, key(subdomain))
}

func (s *BoltStore) GetByCustomDomain(_ context.Context, domain string) (models.Organization, error) {
	return s.getByIndex(customDomainBucket, key(domain))
}

func (s *BoltStore) List(_ context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(orgsBucket).ForEach(func(k, v []byte) error {
			org, err := decodeBolt(v)
			if err != nil {
				return err
			}
			orgs = append(orgs, org)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortByName(orgs)
	return orgs, nil
}

func (s *BoltStore) Update(_ context.Context, org models.Organization) (models.Organization, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		existing, err := getBolt(tx, org.ID)
		if err != nil {
			return err
		}
		org = normalize(org)
		org.CreatedAt = existing.CreatedAt
		org.UpdatedAt = time.Now().UTC()
		if err := checkBoltUnique(tx, org); err != nil {
			return err
		}
		if err := deleteBoltIndexes(tx, existing); err != nil {
			return err
		}
		return putBolt(tx, org)
	})
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

func (s *BoltStore) MarkDomainVerified(_ context.Context, id string, at time.Time) (models.Organization, error) {
	var org models.Organization
	err := s.db.Update(func(tx *bbolt.Tx) error {
		existing, err := getBolt(tx, id)
		if err != nil {
			return err
		}
		if org, err = markVerified(existing, at); err != nil {
			return err
		}
		return putBolt(tx, org)
	})
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// Ping reports whether the bbolt file is still open.
func (s *BoltStore) Ping(context.Context) error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

func (s *BoltStore) getByIndex(bucket []byte, k string) (models.Organization, error) {
	if k == "" {
		return models.Organization{}, ErrNotFound
	}
	var org models.Organization
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucket).Get([]byte(k))
		if id == nil {
			return ErrNotFound
		}
		var err error
		org, err = getBolt(tx, string(id))
		return err
	})
	return org, err
}

func getBolt(tx *bbolt.Tx, id string) (models.Organization, error) {
	if id == "" {
		return models.Organization{}, ErrNotFound
	}
	v := tx.Bucket(orgsBucket).Get([]byte(id))
	if v == nil {
		return models.Organization{}, ErrNotFound
	}
	return decodeBolt(v)
}

func decodeBolt(v []byte) (models.Organization, error) {
	var org models.Organization
	if err := json.Unmarshal(v, &org); err != nil {
		return models.Organization{}, fmt.Errorf("decode organization: %w", err)
	}
	org.NameCI = text.Fold(org.Name) // not part of the JSON form
	return org, nil
}

func checkBoltUnique(tx *bbolt.Tx, org models.Organization) error {
	checks := []struct {
		bucket []byte
		value  string
		err    error
	}{
		{slugBucket, org.Slug, ErrDuplicateSlug},
		{subdomainBucket, org.SubdomainValue(), ErrDuplicateSubdomain},
		{customDomainBucket, org.CustomDomainValue(), ErrDuplicateCustomDomain},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		if id := tx.Bucket(c.bucket).Get([]byte(c.value)); id != nil && string(id) != org.ID {
			return c.err
		}
	}
	return nil
}

func putBolt(tx *bbolt.Tx, org models.Organization) error {
	data, err := json.Marshal(org)
	if err != nil {
		return err
	}
	if err := tx.Bucket(orgsBucket).Put([]byte(org.ID), data); err != nil {
		return err
	}
	return forEachBoltIndex(org, func(bucket []byte, k string) error {
		return tx.Bucket(bucket).Put([]byte(k), []byte(org.ID))
	})
}

func deleteBoltIndexes(tx *bbolt.Tx, org models.Organization) error {
	return forEachBoltIndex(org, func(bucket []byte, k string) error {
		return tx.Bucket(bucket).Delete([]byte(k))
	})
}

func forEachBoltIndex(org models.Organization, fn func(bucket []byte, k string) error) error {
	var errs []error
	if org.Slug != "" {
		errs = append(errs, fn(slugBucket, org.Slug))
	}
	if org.HasSubdomain() {
		errs = append(errs, fn(subdomainBucket, *org.Subdomain))
	}
	if org.HasCustomDomain() {
		errs = append(errs, fn(customDomainBucket, *org.CustomDomain))
	}
	return errors.Join(errs...)
}
