package backend

import (
	"context"
	"fmt"

	"ctam-data/internal/domain"
	"ctam-data/internal/repository"
)

// OrganizationsRepo reference hierarchy over the hosted backend.
type OrganizationsRepo struct {
	c *Client
}

func NewOrganizationsRepo(c *Client) *OrganizationsRepo { return &OrganizationsRepo{c: c} }

var _ repository.OrganizationsRepository = (*OrganizationsRepo)(nil)

func (r *OrganizationsRepo) ListHealthRegions(ctx context.Context) ([]domain.HealthRegion, error) {
	var out []domain.HealthRegion
	err := r.c.selectRows(ctx, "health_regions", map[string]string{"order": "region_number.asc"}, &out)
	return out, err
}

func (r *OrganizationsRepo) ListProvinces(ctx context.Context) ([]domain.Province, error) {
	var out []domain.Province
	err := r.c.selectRows(ctx, "provinces", map[string]string{"order": "name.asc"}, &out)
	return out, err
}

func (r *OrganizationsRepo) ListHealthOffices(ctx context.Context, regionID string) ([]domain.HealthOffice, error) {
	params := map[string]string{"order": "code.asc"}
	if regionID != "" {
		params["health_region_id"] = eq(regionID)
	}
	var rows []struct {
		ID             string  `json:"id"`
		Code           string  `json:"code"`
		Name           string  `json:"name"`
		ProvinceID     *string `json:"province_id"`
		HealthRegionID string  `json:"health_region_id"`
	}
	if err := r.c.selectRows(ctx, "health_offices", params, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.HealthOffice, 0, len(rows))
	for _, x := range rows {
		out = append(out, domain.HealthOffice{ID: x.ID, Code: x.Code, Name: x.Name, ProvinceID: str(x.ProvinceID), HealthRegionID: x.HealthRegionID})
	}
	return out, nil
}

func (r *OrganizationsRepo) ListHospitals(ctx context.Context, provinceID string) ([]domain.Hospital, error) {
	params := map[string]string{"order": "code.asc"}
	if provinceID != "" {
		params["province_id"] = eq(provinceID)
	}
	var out []domain.Hospital
	err := r.c.selectRows(ctx, "hospitals", params, &out)
	return out, err
}

type ReportPoliciesRepo struct {
	c *Client
}

func NewReportPoliciesRepo(c *Client) *ReportPoliciesRepo { return &ReportPoliciesRepo{c: c} }

var _ repository.ReportPoliciesRepository = (*ReportPoliciesRepo)(nil)

func (r *ReportPoliciesRepo) Get(ctx context.Context, role domain.Role, reportType string) (*domain.ReportAccessPolicy, error) {
	var rows []domain.ReportAccessPolicy
	params := map[string]string{"role": eq(string(role)), "report_type": eq(reportType), "limit": "1"}
	if err := r.c.selectRows(ctx, "report_access_policies", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("report policy %s/%s: %w", role, reportType, domain.ErrNotFound)
	}
	return &rows[0], nil
}

func (r *ReportPoliciesRepo) List(ctx context.Context) ([]domain.ReportAccessPolicy, error) {
	var out []domain.ReportAccessPolicy
	err := r.c.selectRows(ctx, "report_access_policies", map[string]string{"order": "role.asc,report_type.asc"}, &out)
	return out, err
}
