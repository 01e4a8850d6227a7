package organizationstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/loomos/internal/domain/models"
)

// MemoryStore keeps organizations in process memory. It is used by tests,
// by loomctl against fixture files, and for store_driver=memory.
type MemoryStore struct {
	mu          sync.RWMutex
	byID        map[string]models.Organization
	bySubdomain map[string]string // subdomain -> id
	byDomain    map[string]string // custom domain -> id
	bySlug      map[string]string // slug -> id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:        make(map[string]models.Organization),
		bySubdomain: make(map[string]string),
		byDomain:    make(map[string]string),
		bySlug:      make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, org models.Organization) (models.Organization, error) {
	org = prepareCreate(org, time.Now().UTC())

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[org.ID]; exists {
		return models.Organization{}, ErrDuplicateID
	}
	if err := s.checkUnique(org); err != nil {
		return models.Organization{}, err
	}
	s.put(org)
	return clone(org), nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *MemoryStore) GetBySlug(_ context.Context, slug string) (models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(s.bySlug[key(slug)])
}

func (s *MemoryStore) GetBySubdomain(_ context.Context, subdomain string) (models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(s.bySubdomain[key(subdomain)])
}

func (s *MemoryStore) GetByCustomDomain(_ context.Context, domain string) (models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(s.byDomain[key(domain)])
}

func (s *MemoryStore) List(_ context.Context) ([]models.Organization, error) {
	s.mu.RLock()
	out := make([]models.Organization, 0, len(s.byID))
	for _, org := range s.byID {
		out = append(out, clone(org))
	}
	s.mu.RUnlock()

	sortByName(out)
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, org models.Organization) (models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[org.ID]
	if !ok {
		return models.Organization{}, ErrNotFound
	}
	org = normalize(clone(org))
	org.CreatedAt = existing.CreatedAt
	org.UpdatedAt = time.Now().UTC()
	if err := s.checkUnique(org); err != nil {
		return models.Organization{}, err
	}
	s.remove(existing)
	s.put(org)
	return clone(org), nil
}

func (s *MemoryStore) MarkDomainVerified(_ context.Context, id string, at time.Time) (models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[id]
	if !ok {
		return models.Organization{}, ErrNotFound
	}
	org, err := markVerified(clone(existing), at)
	if err != nil {
		return models.Organization{}, err
	}
	s.byID[id] = org
	return clone(org), nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// checkUnique reports a conflict with any organization other than org.
// Callers hold the write lock.
func (s *MemoryStore) checkUnique(org models.Organization) error {
	if id, ok := s.bySlug[org.Slug]; ok && org.Slug != "" && id != org.ID {
		return ErrDuplicateSlug
	}
	if id, ok := s.bySubdomain[org.SubdomainValue()]; ok && org.HasSubdomain() && id != org.ID {
		return ErrDuplicateSubdomain
	}
	if id, ok := s.byDomain[org.CustomDomainValue()]; ok && org.HasCustomDomain() && id != org.ID {
		return ErrDuplicateCustomDomain
	}
	return nil
}

func (s *MemoryStore) put(org models.Organization) {
	s.byID[org.ID] = org
	if org.Slug != "" {
		s.bySlug[org.Slug] = org.ID
	}
	if org.HasSubdomain() {
		s.bySubdomain[*org.Subdomain] = org.ID
	}
	if org.HasCustomDomain() {
		s.byDomain[*org.CustomDomain] = org.ID
	}
}

func (s *MemoryStore) remove(org models.Organization) {
	delete(s.byID, org.ID)
	delete(s.bySlug, org.Slug)
	delete(s.bySubdomain, org.SubdomainValue())
	delete(s.byDomain, org.CustomDomainValue())
}

func (s *MemoryStore) get(id string) (models.Organization, error) {
	org, ok := s.byID[id]
	if !ok || id == "" {
		return models.Organization{}, ErrNotFound
	}
	return clone(org), nil
}

func sortByName(orgs []models.Organization) {
	sort.Slice(orgs, func(i, j int) bool {
		if orgs[i].NameCI != orgs[j].NameCI {
			return orgs[i].NameCI < orgs[j].NameCI
		}
		return orgs[i].ID < orgs[j].ID
	})
}
