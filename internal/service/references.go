package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ctam-data/internal/access"
	"ctam-data/internal/domain"
	"ctam-data/internal/repository"
	"ctam-data/internal/workflow"
)

// referenceTTL the org hierarchy changes rarely; cache it briefly.
const referenceTTL = 5 * time.Minute

// referenceCache loads provinces/offices/hospitals once per TTL and turns
// profiles and assessments into workflow actors and targets.
type referenceCache struct {
	orgs repository.OrganizationsRepository
	now  func() time.Time

	mu       sync.Mutex
	refs     access.References
	loadedAt time.Time
}

func newReferenceCache(orgs repository.OrganizationsRepository) *referenceCache {
	return &referenceCache{orgs: orgs, now: time.Now}
}

func (c *referenceCache) get(ctx context.Context) (access.References, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loadedAt.IsZero() && c.now().Sub(c.loadedAt) < referenceTTL {
		return c.refs, nil
	}
	provinces, err := c.orgs.ListProvinces(ctx)
	if err != nil {
		return access.References{}, fmt.Errorf("load provinces: %w", err)
	}
	offices, err := c.orgs.ListHealthOffices(ctx, "")
	if err != nil {
		return access.References{}, fmt.Errorf("load health offices: %w", err)
	}
	hospitals, err := c.orgs.ListHospitals(ctx, "")
	if err != nil {
		return access.References{}, fmt.Errorf("load hospitals: %w", err)
	}
	c.refs = access.NewReferences(provinces, offices, hospitals)
	c.loadedAt = c.now()
	return c.refs, nil
}

func (c *referenceCache) actor(ctx context.Context, p *domain.Profile) (workflow.Actor, error) {
	refs, err := c.get(ctx)
	if err != nil {
		return workflow.Actor{}, err
	}
	s := access.ResolveScope(p, refs)
	return workflow.Actor{Profile: p, ProvinceID: s.ProvinceID, RegionID: s.RegionID}, nil
}

func (c *referenceCache) target(ctx context.Context, a *domain.Assessment) (workflow.Target, error) {
	refs, err := c.get(ctx)
	if err != nil {
		return workflow.Target{}, err
	}
	s := access.FacilityScope(a, refs)
	return workflow.Target{Assessment: a, ProvinceID: s.ProvinceID, RegionID: s.RegionID}, nil
}
