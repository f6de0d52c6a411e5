package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctam-data/internal/domain"
)

func TestMemoryAssessments_CreateAndDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAssessmentsRepo(nil)

	a := &domain.Assessment{HospitalID: "h-1", FiscalYear: 2025, Period: "1", CreatedBy: "u-1"}
	require.NoError(t, repo.Create(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, domain.StatusDraft, a.Status)
	assert.Equal(t, 1, a.Version)

	err := repo.Create(ctx, &domain.Assessment{HospitalID: "h-1", FiscalYear: 2025, Period: "1"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	require.NoError(t, repo.Create(ctx, &domain.Assessment{HospitalID: "h-1", FiscalYear: 2025, Period: "2"}))

	got, err := repo.FindByFacilityPeriod(ctx, "h-1", "", 2025, "1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = repo.FindByFacilityPeriod(ctx, "", "o-1", 2025, "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryAssessments_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAssessmentsRepo(nil)
	a := &domain.Assessment{HospitalID: "h-1", FiscalYear: 2025, Period: "1"}
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	got.Status = domain.StatusCompleted

	again, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, again.Status)
}

func TestMemoryAssessments_ListFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAssessmentsRepo(nil)
	for _, a := range []*domain.Assessment{
		{HospitalID: "h-1", FiscalYear: 2024, Period: "1"},
		{HospitalID: "h-1", FiscalYear: 2025, Period: "2"},
		{HospitalID: "h-2", FiscalYear: 2025, Period: "1"},
		{HealthOfficeID: "o-1", FiscalYear: 2025, Period: "1"},
	} {
		require.NoError(t, repo.Create(ctx, a))
	}

	all, err := repo.List(ctx, AssessmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, 2025, all[0].FiscalYear)
	assert.Equal(t, 2024, all[3].FiscalYear)

	h1, err := repo.List(ctx, AssessmentFilter{HospitalID: "h-1", FiscalYear: 2025})
	require.NoError(t, err)
	require.Len(t, h1, 1)
	assert.Equal(t, "2", h1[0].Period)
}

func TestMemoryAssessments_VersionCAS(t *testing.T) {
	ctx := context.Background()
	history := NewMemoryHistoryRepo()
	repo := NewMemoryAssessmentsRepo(history)

	a := &domain.Assessment{HospitalID: "h-1", FiscalYear: 2025, Period: "1", QuantitativeScore: 40}
	require.NoError(t, repo.Create(ctx, a))

	first := a.Clone()
	second := a.Clone()

	first.Status = domain.StatusSubmitted
	first.SubmittedBy = "u-1"
	first.SubmittedAt = time.Now()
	require.NoError(t, repo.SaveTransition(ctx, first, 1, []domain.ApprovalHistory{
		{AssessmentID: a.ID, FromStatus: domain.StatusDraft, ToStatus: domain.StatusSubmitted, Action: domain.ActionSubmit, PerformedBy: "u-1"},
	}))
	assert.Equal(t, 2, first.Version)

	second.Status = domain.StatusSubmitted
	err := repo.SaveTransition(ctx, second, 1, []domain.ApprovalHistory{{AssessmentID: a.ID, Action: domain.ActionSubmit}})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	rows, err := history.ListByAssessment(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "losing write must not append history")

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, got.QuantitativeScore, "transition keeps scores")

	got.QuantitativeScore = 55
	got.RecalculateTotal()
	require.NoError(t, repo.UpdateScores(ctx, got, 2))
	assert.Equal(t, 3, got.Version)
	assert.ErrorIs(t, repo.UpdateScores(ctx, got, 2), domain.ErrVersionConflict)
}

func TestMemoryQualitative_UpsertLastWriteWins(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQualitativeRepo()

	_, err := repo.Get(ctx, "a-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, &domain.QualitativeScore{AssessmentID: "a-1", HasCISO: true}))
	require.NoError(t, repo.Upsert(ctx, &domain.QualitativeScore{AssessmentID: "a-1", HasDPO: true}))

	q, err := repo.Get(ctx, "a-1")
	require.NoError(t, err)
	assert.False(t, q.HasCISO)
	assert.True(t, q.HasDPO)

	require.NoError(t, repo.Delete(ctx, "a-1"))
	require.NoError(t, repo.Delete(ctx, "a-1"))
	_, err = repo.Get(ctx, "a-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryProfilesAndCredentials(t *testing.T) {
	ctx := context.Background()
	profiles := NewMemoryProfilesRepo()
	creds := NewMemoryCredentialsRepo()

	p := &domain.Profile{Email: "Admin@ctam.go.th", Role: domain.RoleCentralAdmin, IsActive: true}
	require.NoError(t, profiles.Create(ctx, p))
	assert.ErrorIs(t, profiles.Create(ctx, &domain.Profile{Email: "admin@ctam.go.th"}), domain.ErrAlreadyExists)

	got, err := profiles.GetByEmail(ctx, "admin@CTAM.go.th")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	require.NoError(t, profiles.UpdateContact(ctx, p.ID, "", "0891234567"))
	got, _ = profiles.Get(ctx, p.ID)
	assert.Equal(t, "0891234567", got.Phone)

	require.NoError(t, creds.Create(ctx, &domain.Credential{ProfileID: p.ID, Email: p.Email, PasswordHash: "h1"}))
	assert.ErrorIs(t, creds.Create(ctx, &domain.Credential{ProfileID: p.ID, Email: "ADMIN@ctam.go.th"}), domain.ErrAlreadyExists)
	require.NoError(t, creds.UpdatePassword(ctx, p.ID, "h2"))
	c, err := creds.GetByEmail(ctx, "admin@ctam.go.th")
	require.NoError(t, err)
	assert.Equal(t, "h2", c.PasswordHash)
	assert.ErrorIs(t, creds.UpdatePassword(ctx, "nobody", "x"), domain.ErrNotFound)
}

func TestMemoryOrganizationsAndPolicies(t *testing.T) {
	ctx := context.Background()
	orgs := NewMemoryOrganizationsRepo()
	orgs.Seed(
		[]domain.HealthRegion{{ID: "r-2", RegionNumber: 2}, {ID: "r-1", RegionNumber: 1}},
		[]domain.Province{{ID: "pv-1", HealthRegionID: "r-1"}},
		[]domain.HealthOffice{{ID: "o-1", HealthRegionID: "r-1"}, {ID: "o-2", HealthRegionID: "r-2"}},
		[]domain.Hospital{{ID: "h-1", ProvinceID: "pv-1"}, {ID: "h-2", ProvinceID: "pv-9"}},
	)

	regions, _ := orgs.ListHealthRegions(ctx)
	assert.Equal(t, "r-1", regions[0].ID)
	offices, _ := orgs.ListHealthOffices(ctx, "r-2")
	require.Len(t, offices, 1)
	assert.Equal(t, "o-2", offices[0].ID)
	hospitals, _ := orgs.ListHospitals(ctx, "pv-1")
	assert.Len(t, hospitals, 1)

	policies := NewMemoryReportPoliciesRepo(domain.ReportAccessPolicy{
		Role: domain.RoleProvincial, ReportType: domain.ReportScores,
		ProvinceDrill: domain.PermissionNone, HospitalDrill: domain.PermissionOwnProvince,
	})
	p, err := policies.Get(ctx, domain.RoleProvincial, domain.ReportScores)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionOwnProvince, p.HospitalDrill)
	_, err = policies.Get(ctx, domain.RoleRegional, domain.ReportScores)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
