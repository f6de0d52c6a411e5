// Package repository persistence interfaces with in-memory and PostgreSQL
// implementations. Lookups of missing rows return errors wrapping
// domain.ErrNotFound; optimistic writes that lose the race return
// domain.ErrVersionConflict.
package repository

import (
	"context"

	"ctam-data/internal/domain"
)

// AssessmentFilter zero fields match everything.
type AssessmentFilter struct {
	FiscalYear     int
	Period         string
	Status         domain.Status
	HospitalID     string
	HealthOfficeID string
}

// Matches applies the filter to a in memory.
func (f AssessmentFilter) Matches(a *domain.Assessment) bool {
	if f.FiscalYear != 0 && a.FiscalYear != f.FiscalYear {
		return false
	}
	if f.Period != "" && a.Period != f.Period {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.HospitalID != "" && a.HospitalID != f.HospitalID {
		return false
	}
	if f.HealthOfficeID != "" && a.HealthOfficeID != f.HealthOfficeID {
		return false
	}
	return true
}

// AssessmentsRepository assessments table.
type AssessmentsRepository interface {
	// Create inserts a with version 1; assigns ID when empty. One row per
	// (facility, fiscal_year, period): duplicates return domain.ErrAlreadyExists.
	Create(ctx context.Context, a *domain.Assessment) error
	Get(ctx context.Context, id string) (*domain.Assessment, error)
	FindByFacilityPeriod(ctx context.Context, hospitalID, healthOfficeID string, fiscalYear int, period string) (*domain.Assessment, error)
	List(ctx context.Context, filter AssessmentFilter) ([]*domain.Assessment, error)

	// UpdateScores writes the four score columns if the row is still at
	// expectedVersion, then bumps a.Version.
	UpdateScores(ctx context.Context, a *domain.Assessment, expectedVersion int) error

	// SaveTransition writes status and all approval stamps of a and appends
	// history, guarded by expectedVersion. Row and history land together or not at all.
	SaveTransition(ctx context.Context, a *domain.Assessment, expectedVersion int, history []domain.ApprovalHistory) error
}

// HistoryRepository approval_history; append-only, no update or delete.
type HistoryRepository interface {
	Append(ctx context.Context, h *domain.ApprovalHistory) error
	ListByAssessment(ctx context.Context, assessmentID string) ([]domain.ApprovalHistory, error)
}

// QualitativeRepository qualitative_scores, keyed by assessment id.
type QualitativeRepository interface {
	Get(ctx context.Context, assessmentID string) (*domain.QualitativeScore, error)
	// Upsert last write wins.
	Upsert(ctx context.Context, q *domain.QualitativeScore) error
	// Delete is a no-op for a missing row.
	Delete(ctx context.Context, assessmentID string) error
}

// ProfilesRepository profiles.
type ProfilesRepository interface {
	Get(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
	UpdateContact(ctx context.Context, id, fullName, phone string) error
}

// CredentialsRepository login credentials (bcrypt hashes).
type CredentialsRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Credential, error)
	Create(ctx context.Context, c *domain.Credential) error
	UpdatePassword(ctx context.Context, profileID, passwordHash string) error
}

// OrganizationsRepository read-only reference hierarchy.
type OrganizationsRepository interface {
	ListHealthRegions(ctx context.Context) ([]domain.HealthRegion, error)
	ListProvinces(ctx context.Context) ([]domain.Province, error)
	// ListHealthOffices regionID "" lists all.
	ListHealthOffices(ctx context.Context, regionID string) ([]domain.HealthOffice, error)
	// ListHospitals provinceID "" lists all.
	ListHospitals(ctx context.Context, provinceID string) ([]domain.Hospital, error)
}

// ReportPoliciesRepository report_access_policies.
type ReportPoliciesRepository interface {
	// Get returns domain.ErrNotFound when no row exists for (role, reportType).
	Get(ctx context.Context, role domain.Role, reportType string) (*domain.ReportAccessPolicy, error)
	List(ctx context.Context) ([]domain.ReportAccessPolicy, error)
}
