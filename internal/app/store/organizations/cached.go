package organizationstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dalemusser/loomos/internal/app/system/metrics"
	"github.com/dalemusser/loomos/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultCacheTTL bounds how long a stale entry can survive a write that
// failed to invalidate it.
const DefaultCacheTTL = 5 * time.Minute

const cachePrefix = "loomos:org:"

// generationKey is bumped by every write made through the cache.
const generationKey = cachePrefix + "gen"

var errStaleFill = errors.New("cache generation changed")

// CachedStore is a read-through Redis cache in front of another Store. It
// caches the lookups tenant resolution performs on every request (by id,
// subdomain, and custom domain) and invalidates them on every write made
// through it. Misses are not cached.
//
// Redis failures never fail a read: the cache is bypassed and the inner
// store answers.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

var _ Store = (*CachedStore)(nil)

// NewCached wraps inner with a cache on client. ttl <= 0 uses DefaultCacheTTL.
func NewCached(inner Store, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{inner: inner, client: client, ttl: ttl, log: logger}
}

// Inner returns the wrapped store.
func (s *CachedStore) Inner() Store { return s.inner }

func (s *CachedStore) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	return s.inner.Create(ctx, org)
}

func (s *CachedStore) GetByID(ctx context.Context, id string) (models.Organization, error) {
	return s.readThrough(ctx, idKey(id), func() (models.Organization, error) {
		return s.inner.GetByID(ctx, id)
	})
}

func (s *CachedStore) GetBySlug(ctx context.Context, slug string) (models.Organization, error) {
	return s.inner.GetBySlug(ctx, slug)
}

func (s *CachedStore) GetBySubdomain(ctx context.Context, subdomain string) (models.Organization, error) {
	return s.readThrough(ctx, subdomainKey(key(subdomain)), func() (models.Organization, error) {
		return s.inner.GetBySubdomain(ctx, subdomain)
	})
}

func (s *CachedStore) GetByCustomDomain(ctx context.Context, domain string) (models.Organization, error) {
	return s.readThrough(ctx, customDomainKey(key(domain)), func() (models.Organization, error) {
		return s.inner.GetByCustomDomain(ctx, domain)
	})
}

func (s *CachedStore) List(ctx context.Context) ([]models.Organization, error) {
	return s.inner.List(ctx)
}

// Update writes through and drops cache entries for both the old and the
// new addressing keys, so a released subdomain stops resolving at once.
func (s *CachedStore) Update(ctx context.Context, org models.Organization) (models.Organization, error) {
	old, err := s.inner.GetByID(ctx, org.ID)
	if err != nil {
		return models.Organization{}, err
	}
	updated, err := s.inner.Update(ctx, org)
	if err != nil {
		return models.Organization{}, err
	}
	s.Invalidate(ctx, old, updated)
	return updated, nil
}

func (s *CachedStore) MarkDomainVerified(ctx context.Context, id string, at time.Time) (models.Organization, error) {
	org, err := s.inner.MarkDomainVerified(ctx, id, at)
	if err != nil {
		return models.Organization{}, err
	}
	s.Invalidate(ctx, org)
	return org, nil
}

func (s *CachedStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// PingCache checks the Redis connection.
func (s *CachedStore) PingCache(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Invalidate drops every cache entry addressing the given organizations and
// bumps the cache generation, so fills that loaded before this write are
// discarded. Failures are logged; the TTL bounds the staleness they can cause.
func (s *CachedStore) Invalidate(ctx context.Context, orgs ...models.Organization) {
	var keys []string
	for _, org := range orgs {
		keys = append(keys, cacheKeys(org)...)
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		return nil
	})
	if err != nil {
		metrics.RecordCache("error")
		s.log.Warn("organization cache invalidation failed",
			zap.Strings("keys", keys),
			zap.Error(err))
	}
}

func (s *CachedStore) readThrough(ctx context.Context, k string, load func() (models.Organization, error)) (models.Organization, error) {
	raw, err := s.client.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		var org models.Organization
		if jerr := json.Unmarshal(raw, &org); jerr == nil {
			metrics.RecordCache("hit")
			org.NameCI = text.Fold(org.Name)
			return org, nil
		}
		s.log.Warn("discarding undecodable organization cache entry", zap.String("key", k))
		metrics.RecordCache("error")
	case errors.Is(err, redis.Nil):
		metrics.RecordCache("miss")
	default:
		metrics.RecordCache("error")
		s.log.Warn("organization cache read failed", zap.String("key", k), zap.Error(err))
	}

	// The generation is read before loading; a write that lands between
	// the load and the fill changes it and the fill is dropped.
	gen, genErr := s.generation(ctx)
	org, err := load()
	if err != nil {
		return models.Organization{}, err
	}
	if genErr == nil {
		s.store(ctx, gen, org)
	}
	return org, nil
}

// generation returns the current cache generation. Unset is zero.
func (s *CachedStore) generation(ctx context.Context) (int64, error) {
	n, err := s.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// store caches org under all of its keys, unless the generation moved on
// since gen was read.
func (s *CachedStore) store(ctx context.Context, gen int64, org models.Organization) {
	data, err := json.Marshal(org)
	if err != nil {
		return
	}
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range cacheKeys(org) {
				pipe.Set(ctx, k, data, s.ttl)
			}
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		s.log.Debug("organization cache fill raced a write; skipped",
			zap.String("organization_id", org.ID))
	default:
		s.log.Warn("organization cache write failed",
			zap.String("organization_id", org.ID),
			zap.Error(err))
	}
}

func cacheKeys(org models.Organization) []string {
	keys := []string{idKey(org.ID)}
	if org.HasSubdomain() {
		keys = append(keys, subdomainKey(*org.Subdomain))
	}
	if org.HasCustomDomain() {
		keys = append(keys, customDomainKey(*org.CustomDomain))
	}
	return keys
}

func idKey(id string) string { return cachePrefix + "id:" + id }

func subdomainKey(sub string) string { return cachePrefix + "sub:" + sub }

func customDomainKey(domain string) string { return cachePrefix + "domain:" + domain }
