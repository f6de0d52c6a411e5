package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ctam-data/internal/domain"
	"ctam-data/internal/events"
	"ctam-data/internal/repository"
)

// Two regions: r1 holds provinces p1 and p2, r2 holds p3.
var (
	testRegions = []domain.HealthRegion{
		{ID: "r1", Name: "เขตสุขภาพที่ 1", RegionNumber: 1},
		{ID: "r2", Name: "เขตสุขภาพที่ 2", RegionNumber: 2},
	}
	testProvinces = []domain.Province{
		{ID: "p1", Name: "เชียงใหม่", HealthRegionID: "r1"},
		{ID: "p2", Name: "ลำพูน", HealthRegionID: "r1"},
		{ID: "p3", Name: "พิษณุโลก", HealthRegionID: "r2"},
	}
	testOffices = []domain.HealthOffice{
		{ID: "o1", Code: "SSJ50", Name: "สำนักงานสาธารณสุขจังหวัดเชียงใหม่", ProvinceID: "p1", HealthRegionID: "r1"},
		{ID: "o-r1", Code: "REG01", Name: "สำนักงานเขตสุขภาพที่ 1", HealthRegionID: "r1"},
		{ID: "o3", Code: "SSJ65", Name: "สำนักงานสาธารณสุขจังหวัดพิษณุโลก", ProvinceID: "p3", HealthRegionID: "r2"},
	}
	testHospitals = []domain.Hospital{
		{ID: "h1", Code: "10713", Name: "โรงพยาบาลนครพิงค์", ProvinceID: "p1"},
		{ID: "h2", Code: "10714", Name: "โรงพยาบาลลำพูน", ProvinceID: "p2"},
		{ID: "h3", Code: "10676", Name: "โรงพยาบาลพุทธชินราช", ProvinceID: "p3"},
	}
)

var (
	facilityIT  = &domain.Profile{ID: "u-fac", Email: "it@h1.go.th", Role: domain.RoleHospitalIT, IsActive: true, HospitalID: "h1"}
	otherIT     = &domain.Profile{ID: "u-fac2", Email: "it@h2.go.th", Role: domain.RoleHospitalIT, IsActive: true, HospitalID: "h2"}
	officeUser  = &domain.Profile{ID: "u-office", Email: "ssj50@moph.go.th", Role: domain.RoleHealthOffice, IsActive: true, HealthOfficeID: "o1"}
	provincial  = &domain.Profile{ID: "u-prov", Email: "prov@p1.go.th", Role: domain.RoleProvincial, IsActive: true, ProvinceID: "p1"}
	regional    = &domain.Profile{ID: "u-reg", Email: "reg@r1.go.th", Role: domain.RoleRegional, IsActive: true, HealthRegionID: "r1"}
	regional2   = &domain.Profile{ID: "u-reg2", Email: "reg@r2.go.th", Role: domain.RoleRegional, IsActive: true, HealthRegionID: "r2"}
	centralUser = &domain.Profile{ID: "u-admin", Email: "admin@moph.go.th", Role: domain.RoleCentralAdmin, IsActive: true}
	supervisor  = &domain.Profile{ID: "u-sup", Email: "sup@moph.go.th", Role: domain.RoleSupervisor, IsActive: true}
	hospitalCEO = &domain.Profile{ID: "u-ceo", Email: "ceo@h1.go.th", Role: domain.RoleHospitalCEO, IsActive: true, HospitalID: "h1"}
)

type testEnv struct {
	orgs        *repository.MemoryOrganizationsRepo
	history     *repository.MemoryHistoryRepo
	assessments *repository.MemoryAssessmentsRepo
	qualitative *repository.MemoryQualitativeRepo
	profiles    *repository.MemoryProfilesRepo
	creds       *repository.MemoryCredentialsRepo
	policies    *repository.MemoryReportPoliciesRepo
	events      *recordingPublisher
	logger      *zap.Logger
}

func newTestEnv(t *testing.T, policies ...domain.ReportAccessPolicy) *testEnv {
	t.Helper()
	orgs := repository.NewMemoryOrganizationsRepo()
	orgs.Seed(testRegions, testProvinces, testOffices, testHospitals)
	history := repository.NewMemoryHistoryRepo()
	return &testEnv{
		orgs:        orgs,
		history:     history,
		assessments: repository.NewMemoryAssessmentsRepo(history),
		qualitative: repository.NewMemoryQualitativeRepo(),
		profiles: repository.NewMemoryProfilesRepo(
			*facilityIT, *otherIT, *officeUser, *provincial, *regional, *regional2, *centralUser, *supervisor, *hospitalCEO,
		),
		creds:    repository.NewMemoryCredentialsRepo(),
		policies: repository.NewMemoryReportPoliciesRepo(policies...),
		events:   &recordingPublisher{},
		logger:   zap.NewNop(),
	}
}

func (e *testEnv) assessmentService() *assessmentService {
	return NewAssessmentService(e.assessments, e.history, e.orgs, e.events, e.logger).(*assessmentService)
}

// addCredential stores a low-cost bcrypt hash for p.
func (e *testEnv) addCredential(t *testing.T, p *domain.Profile, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, e.creds.Create(context.Background(), &domain.Credential{ProfileID: p.ID, Email: p.Email, PasswordHash: string(hash)}))
}

// newDraft creates a draft for h1 with scores already filled in.
func (e *testEnv) newDraft(t *testing.T, svc AssessmentService) *domain.Assessment {
	t.Helper()
	ctx := context.Background()
	a, err := svc.Create(ctx, facilityIT, CreateAssessmentRequest{FiscalYear: 2025, Period: "1"})
	require.NoError(t, err)
	q, i := 55.5, 10.0
	a, err = svc.UpdateScores(ctx, facilityIT, UpdateScoresRequest{AssessmentID: a.ID, QuantitativeScore: &q, ImpactScore: &i})
	require.NoError(t, err)
	return a
}

// approveAll stamps the three sections as reviewer.
func approveAll(t *testing.T, svc AssessmentService, reviewer *domain.Profile, id string) *domain.Assessment {
	t.Helper()
	var a *domain.Assessment
	for _, s := range domain.Sections() {
		var err error
		a, err = svc.ApproveSection(context.Background(), reviewer, ReviewRequest{AssessmentID: id, Section: s})
		require.NoError(t, err, "%s approving %s", reviewer.Role, s)
	}
	return a
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TransitionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) all() []events.TransitionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.TransitionEvent(nil), p.events...)
}

func repositoryFilter(hospitalID string, fiscalYear int) repository.AssessmentFilter {
	return repository.AssessmentFilter{HospitalID: hospitalID, FiscalYear: fiscalYear}
}
