package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ctam-data/internal/domain"
	"ctam-data/internal/workflow"
)

var testPolicies = []domain.ReportAccessPolicy{
	{Role: domain.RoleRegional, ReportType: domain.ReportOverview, ProvinceDrill: domain.PermissionOwnRegion, HospitalDrill: domain.PermissionAll},
	{Role: domain.RoleProvincial, ReportType: domain.ReportOverview, ProvinceDrill: domain.PermissionOwnRegion, HospitalDrill: domain.PermissionOwnProvince},
	{Role: domain.RoleProvincialCEO, ReportType: domain.ReportOverview, ProvinceDrill: domain.PermissionNone, HospitalDrill: domain.PermissionNone},
}

func newTestReports(t *testing.T) (*testEnv, ReportService) {
	t.Helper()
	env := newTestEnv(t, testPolicies...)
	ctx := context.Background()
	for _, a := range []*domain.Assessment{
		{HospitalID: "h1", FiscalYear: 2025, Period: "1", Status: domain.StatusCompleted, TotalScore: 80},
		{HospitalID: "h2", FiscalYear: 2025, Period: "1", Status: domain.StatusDraft, TotalScore: 60},
		{HospitalID: "h3", FiscalYear: 2025, Period: "1", Status: domain.StatusSubmitted, TotalScore: 50},
		{HealthOfficeID: "o1", FiscalYear: 2025, Period: "1", Status: domain.StatusDraft},
		{HospitalID: "h1", FiscalYear: 2024, Period: "1", Status: domain.StatusCompleted, TotalScore: 99},
	} {
		require.NoError(t, env.assessments.Create(ctx, a))
	}
	return env, NewReportService(env.assessments, env.orgs, env.policies, env.logger)
}

func rowByID(t *testing.T, s *Summary, id string) SummaryRow {
	t.Helper()
	for _, r := range s.Rows {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("row %s not in summary", id)
	return SummaryRow{}
}

func TestReportService_RegionSummary(t *testing.T) {
	_, svc := newTestReports(t)

	sum, err := svc.RegionSummary(context.Background(), supervisor, ReportRequest{FiscalYear: 2025})
	require.NoError(t, err)
	assert.Equal(t, LevelRegion, sum.Level)
	require.Len(t, sum.Rows, 2)

	r1 := rowByID(t, sum, "r1")
	assert.Equal(t, 3, r1.Assessments)
	assert.Equal(t, 1, r1.StatusCounts[domain.StatusCompleted])
	assert.Equal(t, 2, r1.StatusCounts[domain.StatusDraft])
	assert.Equal(t, 46.67, r1.AverageTotal)

	r2 := rowByID(t, sum, "r2")
	assert.Equal(t, 1, r2.Assessments)
	assert.Equal(t, 50.0, r2.AverageTotal)
}

func TestReportService_FacilityRolesAndMissingYear(t *testing.T) {
	_, svc := newTestReports(t)
	ctx := context.Background()

	for _, p := range []*domain.Profile{facilityIT, officeUser, hospitalCEO} {
		_, err := svc.RegionSummary(ctx, p, ReportRequest{FiscalYear: 2025})
		assert.ErrorIs(t, err, workflow.ErrForbidden, p.Role)
	}
	_, err := svc.RegionSummary(ctx, centralUser, ReportRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReportService_ProvinceDrill(t *testing.T) {
	_, svc := newTestReports(t)
	ctx := context.Background()

	sum, err := svc.ProvinceSummary(ctx, regional, ReportRequest{FiscalYear: 2025, RegionID: "r1"})
	require.NoError(t, err)
	require.Len(t, sum.Rows, 2)
	assert.Equal(t, 1, rowByID(t, sum, "p2").Assessments)
	// h1 and the provincial office o1
	assert.Equal(t, 2, rowByID(t, sum, "p1").Assessments)

	_, err = svc.ProvinceSummary(ctx, regional, ReportRequest{FiscalYear: 2025, RegionID: "r2"})
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	provCEO := &domain.Profile{ID: "u-pceo", Role: domain.RoleProvincialCEO, IsActive: true, ProvinceID: "p1"}
	_, err = svc.ProvinceSummary(ctx, provCEO, ReportRequest{FiscalYear: 2025, RegionID: "r1"})
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	// no policy row means no restriction
	sum, err = svc.ProvinceSummary(ctx, supervisor, ReportRequest{FiscalYear: 2025, RegionID: "r2"})
	require.NoError(t, err)
	assert.Len(t, sum.Rows, 1)

	_, err = svc.ProvinceSummary(ctx, supervisor, ReportRequest{FiscalYear: 2025})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReportService_HospitalDrill(t *testing.T) {
	_, svc := newTestReports(t)
	ctx := context.Background()

	sum, err := svc.HospitalSummary(ctx, provincial, ReportRequest{FiscalYear: 2025, ProvinceID: "p1"})
	require.NoError(t, err)
	require.Len(t, sum.Rows, 2)
	assert.Equal(t, "health_office", sum.Rows[0].Kind)
	assert.Equal(t, "o1", sum.Rows[0].ID)

	h1 := rowByID(t, sum, "h1")
	assert.Equal(t, domain.StatusCompleted, h1.Status)
	assert.Equal(t, 80.0, h1.TotalScore)
	assert.NotEmpty(t, h1.AssessmentID)

	_, err = svc.HospitalSummary(ctx, provincial, ReportRequest{FiscalYear: 2025, ProvinceID: "p2"})
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	sum, err = svc.HospitalSummary(ctx, regional, ReportRequest{FiscalYear: 2025, ProvinceID: "p3"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, rowByID(t, sum, "h3").Status)
}

func TestReportService_ExportXLSX(t *testing.T) {
	_, svc := newTestReports(t)

	b, err := svc.ExportSummaryXLSX(context.Background(), centralUser, ReportRequest{FiscalYear: 2025, Level: LevelRegion})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Equal(t, []string{"region 2568"}, sheets)
	header, err := f.GetCellValue(sheets[0], "A1")
	require.NoError(t, err)
	assert.Equal(t, "Code", header)
	name, err := f.GetCellValue(sheets[0], "B2")
	require.NoError(t, err)
	assert.Equal(t, "เขตสุขภาพที่ 1", name)
	count, err := f.GetCellValue(sheets[0], "C2")
	require.NoError(t, err)
	assert.Equal(t, "3", count)

	_, err = svc.ExportSummaryXLSX(context.Background(), centralUser, ReportRequest{FiscalYear: 2025, Level: "district"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReportService_CertificateOnlyWhenCompleted(t *testing.T) {
	env, svc := newTestReports(t)
	ctx := context.Background()

	list, err := env.assessments.List(ctx, repositoryFilter("h1", 2025))
	require.NoError(t, err)
	require.Len(t, list, 1)

	pdf, err := svc.Certificate(ctx, facilityIT, list[0].ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = svc.Certificate(ctx, otherIT, list[0].ID)
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	drafts, err := env.assessments.List(ctx, repositoryFilter("h2", 2025))
	require.NoError(t, err)
	_, err = svc.Certificate(ctx, otherIT, drafts[0].ID)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}
