package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"ctam-data/internal/access"
	"ctam-data/internal/domain"
	"ctam-data/internal/repository"
	"ctam-data/internal/workflow"
)

// Summary levels.
const (
	LevelRegion   = "region"
	LevelProvince = "province"
	LevelHospital = "hospital"
)

// ReportService dashboard summaries with policy-gated drill-down.
type ReportService interface {
	RegionSummary(ctx context.Context, actor *domain.Profile, req ReportRequest) (*Summary, error)
	ProvinceSummary(ctx context.Context, actor *domain.Profile, req ReportRequest) (*Summary, error)
	HospitalSummary(ctx context.Context, actor *domain.Profile, req ReportRequest) (*Summary, error)
	// ExportSummaryXLSX renders the summary of req.Level as a workbook.
	ExportSummaryXLSX(ctx context.Context, actor *domain.Profile, req ReportRequest) ([]byte, error)
	// Certificate PDF of a completed assessment.
	Certificate(ctx context.Context, actor *domain.Profile, assessmentID string) ([]byte, error)
}

type ReportRequest struct {
	FiscalYear int
	Period     string
	ReportType string // overview (default) | scores
	Level      string // export only
	RegionID   string
	ProvinceID string
}

// Summary one row per region, province or facility.
type Summary struct {
	Level      string       `json:"level"`
	FiscalYear int          `json:"fiscal_year"`
	ParentID   string       `json:"parent_id,omitempty"`
	Rows       []SummaryRow `json:"rows"`
}

// SummaryRow counts per status and the average total over the group's
// assessments. Facility rows also carry the latest assessment.
type SummaryRow struct {
	ID           string                `json:"id"`
	Code         string                `json:"code,omitempty"`
	Name         string                `json:"name"`
	Kind         string                `json:"kind,omitempty"` // hospital | health_office on facility rows
	Assessments  int                   `json:"assessments"`
	StatusCounts map[domain.Status]int `json:"status_counts"`
	AverageTotal float64               `json:"average_total"`

	AssessmentID string        `json:"assessment_id,omitempty"`
	Status       domain.Status `json:"status,omitempty"`
	TotalScore   float64       `json:"total_score,omitempty"`
}

type reportService struct {
	assessments repository.AssessmentsRepository
	orgs        repository.OrganizationsRepository
	policies    repository.ReportPoliciesRepository
	refs        *referenceCache
	logger      *zap.Logger
}

func NewReportService(
	assessments repository.AssessmentsRepository,
	orgs repository.OrganizationsRepository,
	policies repository.ReportPoliciesRepository,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		assessments: assessments,
		orgs:        orgs,
		policies:    policies,
		refs:        newReferenceCache(orgs),
		logger:      logger,
	}
}

func (s *reportService) RegionSummary(ctx context.Context, actor *domain.Profile, req ReportRequest) (*Summary, error) {
	if _, _, err := s.gate(ctx, actor, req); err != nil {
		return nil, err
	}
	regions, err := s.orgs.ListHealthRegions(ctx)
	if err != nil {
		return nil, err
	}
	refs, err := s.refs.get(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.list(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := make([]SummaryRow, 0, len(regions))
	index := make(map[string]int, len(regions))
	for _, r := range regions {
		index[r.ID] = len(rows)
		rows = append(rows, newRow(r.ID, fmt.Sprintf("%d", r.RegionNumber), r.Name))
	}
	for _, a := range list {
		if i, ok := index[access.FacilityScope(a, refs).RegionID]; ok {
			rows[i].add(a)
		}
	}
	return finish(LevelRegion, req.FiscalYear, "", rows), nil
}

func (s *reportService) ProvinceSummary(ctx context.Context, actor *domain.Profile, req ReportRequest) (*Summary, error) {
	scope, policy, err := s.gate(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if req.RegionID == "" {
		return nil, fmt.Errorf("%w: region_id is required", ErrValidation)
	}
	refs, err := s.refs.get(ctx)
	if err != nil {
		return nil, err
	}

	var candidates, allowed []domain.Province
	for _, p := range refs.Provinces {
		if p.HealthRegionID != req.RegionID {
			continue
		}
		candidates = append(candidates, p)
		if access.CanDrillToProvince(scope, policy, p) {
			allowed = append(allowed, p)
		}
	}
	if len(candidates) > 0 && len(allowed) == 0 {
		s.logger.Info("Province drill-down denied",
			zap.String("profile_id", actor.ID),
			zap.String("role", string(actor.Role)),
			zap.String("region_id", req.RegionID),
		)
		return nil, fmt.Errorf("%w: province drill-down not allowed for %s", workflow.ErrForbidden, actor.Role)
	}
	sort.Slice(allowed, func(i, j int) bool { return allowed[i].Name < allowed[j].Name })

	list, err := s.list(ctx, req)
	if err != nil {
		return nil, err
	}
	rows := make([]SummaryRow, 0, len(allowed))
	index := make(map[string]int, len(allowed))
	for _, p := range allowed {
		index[p.ID] = len(rows)
		rows = append(rows, newRow(p.ID, "", p.Name))
	}
	for _, a := range list {
		if i, ok := index[access.FacilityScope(a, refs).ProvinceID]; ok {
			rows[i].add(a)
		}
	}
	return finish(LevelProvince, req.FiscalYear, req.RegionID, rows), nil
}

func (s *reportService) HospitalSummary(ctx context.Context, actor *domain.Profile, req ReportRequest) (*Summary, error) {
	scope, policy, err := s.gate(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if req.ProvinceID == "" {
		return nil, fmt.Errorf("%w: province_id is required", ErrValidation)
	}
	hospitals, err := s.orgs.ListHospitals(ctx, req.ProvinceID)
	if err != nil {
		return nil, err
	}
	refs, err := s.refs.get(ctx)
	if err != nil {
		return nil, err
	}

	var rows []SummaryRow
	byHospital := make(map[string]int)
	byOffice := make(map[string]int)
	candidates := 0
	for _, h := range hospitals {
		candidates++
		if !access.CanDrillToHospital(scope, policy, h) {
			continue
		}
		byHospital[h.ID] = len(rows)
		r := newRow(h.ID, h.Code, h.Name)
		r.Kind = "hospital"
		rows = append(rows, r)
	}
	// provincial health offices sit beside the hospitals of their province
	for _, o := range refs.HealthOffices {
		if o.ProvinceID != req.ProvinceID {
			continue
		}
		candidates++
		if !access.CanDrillToHospital(scope, policy, domain.Hospital{ID: o.ID, ProvinceID: o.ProvinceID}) {
			continue
		}
		byOffice[o.ID] = len(rows)
		r := newRow(o.ID, o.Code, o.Name)
		r.Kind = "health_office"
		rows = append(rows, r)
	}
	if candidates > 0 && len(rows) == 0 {
		s.logger.Info("Hospital drill-down denied",
			zap.String("profile_id", actor.ID),
			zap.String("role", string(actor.Role)),
			zap.String("province_id", req.ProvinceID),
		)
		return nil, fmt.Errorf("%w: hospital drill-down not allowed for %s", workflow.ErrForbidden, actor.Role)
	}

	list, err := s.list(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, a := range list {
		i, ok := byHospital[a.HospitalID]
		if a.HospitalID == "" {
			i, ok = byOffice[a.HealthOfficeID]
		}
		if !ok {
			continue
		}
		rows[i].add(a)
		// list is ordered by period then creation, so the last one wins
		rows[i].AssessmentID, rows[i].Status, rows[i].TotalScore = a.ID, a.Status, a.TotalScore
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind == "health_office"
		}
		return rows[i].Code < rows[j].Code
	})
	return finish(LevelHospital, req.FiscalYear, req.ProvinceID, rows), nil
}

// gate facility roles never see reports; everyone else gets their scope and
// the policy row for the report type (nil when none is configured).
func (s *reportService) gate(ctx context.Context, actor *domain.Profile, req ReportRequest) (access.Scope, *domain.ReportAccessPolicy, error) {
	if actor == nil || !actor.IsActive {
		return access.Scope{}, nil, workflow.ErrForbidden
	}
	if actor.Role.Facility() || actor.Role == domain.RoleHospitalCEO {
		return access.Scope{}, nil, fmt.Errorf("%w: %s cannot view reports", workflow.ErrForbidden, actor.Role)
	}
	if req.FiscalYear == 0 {
		return access.Scope{}, nil, fmt.Errorf("%w: fiscal_year is required", ErrValidation)
	}
	reportType := req.ReportType
	if reportType == "" {
		reportType = domain.ReportOverview
	}
	policy, err := s.policies.Get(ctx, actor.Role, reportType)
	if errors.Is(err, domain.ErrNotFound) {
		policy, err = nil, nil
	}
	if err != nil {
		return access.Scope{}, nil, err
	}
	refs, err := s.refs.get(ctx)
	if err != nil {
		return access.Scope{}, nil, err
	}
	return access.ResolveScope(actor, refs), policy, nil
}

func (s *reportService) list(ctx context.Context, req ReportRequest) ([]*domain.Assessment, error) {
	return s.assessments.List(ctx, repository.AssessmentFilter{FiscalYear: req.FiscalYear, Period: req.Period})
}

func newRow(id, code, name string) SummaryRow {
	return SummaryRow{ID: id, Code: code, Name: name, StatusCounts: map[domain.Status]int{}}
}

// add accumulates the sum into AverageTotal; finish divides.
func (r *SummaryRow) add(a *domain.Assessment) {
	r.Assessments++
	r.StatusCounts[a.Status]++
	r.AverageTotal += a.TotalScore
}

func finish(level string, fiscalYear int, parentID string, rows []SummaryRow) *Summary {
	for i := range rows {
		if rows[i].Assessments > 0 {
			rows[i].AverageTotal = roundTo2(rows[i].AverageTotal / float64(rows[i].Assessments))
		}
	}
	if rows == nil {
		rows = []SummaryRow{}
	}
	return &Summary{Level: level, FiscalYear: fiscalYear, ParentID: parentID, Rows: rows}
}

func roundTo2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
