package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ctam-data/internal/domain"
)

// PostgresOrganizationsRepository health_regions / provinces / health_offices / hospitals.
type PostgresOrganizationsRepository struct {
	db *sql.DB
}

func NewPostgresOrganizationsRepository(db *sql.DB) *PostgresOrganizationsRepository {
	return &PostgresOrganizationsRepository{db: db}
}

var _ OrganizationsRepository = (*PostgresOrganizationsRepository)(nil)

func (r *PostgresOrganizationsRepository) ListHealthRegions(ctx context.Context) ([]domain.HealthRegion, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id::text, name, region_number FROM health_regions ORDER BY region_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list health regions: %w", err)
	}
	defer rows.Close()
	out := []domain.HealthRegion{}
	for rows.Next() {
		var x domain.HealthRegion
		if err := rows.Scan(&x.ID, &x.Name, &x.RegionNumber); err != nil {
			return nil, fmt.Errorf("failed to scan health region: %w", err)
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *PostgresOrganizationsRepository) ListProvinces(ctx context.Context) ([]domain.Province, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id::text, name, health_region_id::text FROM provinces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list provinces: %w", err)
	}
	defer rows.Close()
	out := []domain.Province{}
	for rows.Next() {
		var x domain.Province
		if err := rows.Scan(&x.ID, &x.Name, &x.HealthRegionID); err != nil {
			return nil, fmt.Errorf("failed to scan province: %w", err)
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *PostgresOrganizationsRepository) ListHealthOffices(ctx context.Context, regionID string) ([]domain.HealthOffice, error) {
	query := `
		SELECT id::text, code, name, COALESCE(province_id::text, ''), health_region_id::text
		FROM health_offices
	`
	var args []any
	if regionID != "" {
		query += " WHERE health_region_id = $1::uuid"
		args = append(args, regionID)
	}
	query += " ORDER BY code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list health offices: %w", err)
	}
	defer rows.Close()
	out := []domain.HealthOffice{}
	for rows.Next() {
		var x domain.HealthOffice
		if err := rows.Scan(&x.ID, &x.Code, &x.Name, &x.ProvinceID, &x.HealthRegionID); err != nil {
			return nil, fmt.Errorf("failed to scan health office: %w", err)
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *PostgresOrganizationsRepository) ListHospitals(ctx context.Context, provinceID string) ([]domain.Hospital, error) {
	query := `SELECT id::text, code, name, province_id::text FROM hospitals`
	var args []any
	if provinceID != "" {
		query += " WHERE province_id = $1::uuid"
		args = append(args, provinceID)
	}
	query += " ORDER BY code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}
	defer rows.Close()
	out := []domain.Hospital{}
	for rows.Next() {
		var x domain.Hospital
		if err := rows.Scan(&x.ID, &x.Code, &x.Name, &x.ProvinceID); err != nil {
			return nil, fmt.Errorf("failed to scan hospital: %w", err)
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

type PostgresReportPoliciesRepository struct {
	db *sql.DB
}

func NewPostgresReportPoliciesRepository(db *sql.DB) *PostgresReportPoliciesRepository {
	return &PostgresReportPoliciesRepository{db: db}
}

var _ ReportPoliciesRepository = (*PostgresReportPoliciesRepository)(nil)

func (r *PostgresReportPoliciesRepository) Get(ctx context.Context, role domain.Role, reportType string) (*domain.ReportAccessPolicy, error) {
	var p domain.ReportAccessPolicy
	var rl, pd, hd string
	err := r.db.QueryRowContext(ctx, `
		SELECT role, report_type, province_drill, hospital_drill
		FROM report_access_policies
		WHERE role = $1 AND report_type = $2
	`, string(role), reportType).Scan(&rl, &p.ReportType, &pd, &hd)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("report policy %s/%s: %w", role, reportType, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report policy: %w", err)
	}
	p.Role, p.ProvinceDrill, p.HospitalDrill = domain.Role(rl), domain.Permission(pd), domain.Permission(hd)
	return &p, nil
}

func (r *PostgresReportPoliciesRepository) List(ctx context.Context) ([]domain.ReportAccessPolicy, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT role, report_type, province_drill, hospital_drill
		FROM report_access_policies
		ORDER BY role, report_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list report policies: %w", err)
	}
	defer rows.Close()
	out := []domain.ReportAccessPolicy{}
	for rows.Next() {
		var p domain.ReportAccessPolicy
		var rl, pd, hd string
		if err := rows.Scan(&rl, &p.ReportType, &pd, &hd); err != nil {
			return nil, fmt.Errorf("failed to scan report policy: %w", err)
		}
		p.Role, p.ProvinceDrill, p.HospitalDrill = domain.Role(rl), domain.Permission(pd), domain.Permission(hd)
		out = append(out, p)
	}
	return out, rows.Err()
}
