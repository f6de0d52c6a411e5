package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ctam-data/internal/domain"
)

// MemoryOrganizationsRepo static reference hierarchy, seeded at startup.
type MemoryOrganizationsRepo struct {
	mu        sync.RWMutex
	regions   []domain.HealthRegion
	provinces []domain.Province
	offices   []domain.HealthOffice
	hospitals []domain.Hospital
}

func NewMemoryOrganizationsRepo() *MemoryOrganizationsRepo {
	return &MemoryOrganizationsRepo{}
}

var _ OrganizationsRepository = (*MemoryOrganizationsRepo)(nil)

// Seed replaces the reference data.
func (r *MemoryOrganizationsRepo) Seed(regions []domain.HealthRegion, provinces []domain.Province, offices []domain.HealthOffice, hospitals []domain.Hospital) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regions = append([]domain.HealthRegion(nil), regions...)
	r.provinces = append([]domain.Province(nil), provinces...)
	r.offices = append([]domain.HealthOffice(nil), offices...)
	r.hospitals = append([]domain.Hospital(nil), hospitals...)
	sort.Slice(r.regions, func(i, j int) bool { return r.regions[i].RegionNumber < r.regions[j].RegionNumber })
}

func (r *MemoryOrganizationsRepo) ListHealthRegions(context.Context) ([]domain.HealthRegion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.HealthRegion(nil), r.regions...), nil
}

func (r *MemoryOrganizationsRepo) ListProvinces(context.Context) ([]domain.Province, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Province(nil), r.provinces...), nil
}

func (r *MemoryOrganizationsRepo) ListHealthOffices(_ context.Context, regionID string) ([]domain.HealthOffice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.HealthOffice, 0, len(r.offices))
	for _, o := range r.offices {
		if regionID == "" || o.HealthRegionID == regionID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *MemoryOrganizationsRepo) ListHospitals(_ context.Context, provinceID string) ([]domain.Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Hospital, 0, len(r.hospitals))
	for _, h := range r.hospitals {
		if provinceID == "" || h.ProvinceID == provinceID {
			out = append(out, h)
		}
	}
	return out, nil
}

type policyKey struct {
	role       domain.Role
	reportType string
}

type MemoryReportPoliciesRepo struct {
	mu   sync.RWMutex
	rows map[policyKey]domain.ReportAccessPolicy
}

func NewMemoryReportPoliciesRepo(seed ...domain.ReportAccessPolicy) *MemoryReportPoliciesRepo {
	r := &MemoryReportPoliciesRepo{rows: map[policyKey]domain.ReportAccessPolicy{}}
	for _, p := range seed {
		r.rows[policyKey{p.Role, p.ReportType}] = p
	}
	return r
}

var _ ReportPoliciesRepository = (*MemoryReportPoliciesRepo)(nil)

func (r *MemoryReportPoliciesRepo) Get(_ context.Context, role domain.Role, reportType string) (*domain.ReportAccessPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[policyKey{role, reportType}]
	if !ok {
		return nil, fmt.Errorf("report policy %s/%s: %w", role, reportType, domain.ErrNotFound)
	}
	return &p, nil
}

func (r *MemoryReportPoliciesRepo) List(context.Context) ([]domain.ReportAccessPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ReportAccessPolicy, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].ReportType < out[j].ReportType
	})
	return out, nil
}
