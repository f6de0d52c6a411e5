package backend

import (
	"time"

	"ctam-data/internal/domain"
)

// assessmentRow wire shape of the assessments table.
type assessmentRow struct {
	ID             string  `json:"id,omitempty"`
	HospitalID     *string `json:"hospital_id"`
	HealthOfficeID *string `json:"health_office_id"`
	FiscalYear     int     `json:"fiscal_year"`
	Period         string  `json:"period"`
	Status         string  `json:"status"`

	QuantitativeScore float64 `json:"quantitative_score"`
	QualitativeScore  float64 `json:"qualitative_score"`
	ImpactScore       float64 `json:"impact_score"`
	TotalScore        float64 `json:"total_score"`

	QuantitativeApprovedBy *string    `json:"quantitative_approved_by"`
	QuantitativeApprovedAt *time.Time `json:"quantitative_approved_at"`
	QualitativeApprovedBy  *string    `json:"qualitative_approved_by"`
	QualitativeApprovedAt  *time.Time `json:"qualitative_approved_at"`
	ImpactApprovedBy       *string    `json:"impact_approved_by"`
	ImpactApprovedAt       *time.Time `json:"impact_approved_at"`

	ProvincialApprovedBy *string    `json:"provincial_approved_by"`
	ProvincialApprovedAt *time.Time `json:"provincial_approved_at"`
	ProvincialComment    *string    `json:"provincial_comment"`
	RegionalApprovedBy   *string    `json:"regional_approved_by"`
	RegionalApprovedAt   *time.Time `json:"regional_approved_at"`
	RegionalComment      *string    `json:"regional_comment"`

	SubmittedBy *string    `json:"submitted_by"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedBy   *string    `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int        `json:"version"`
}

func (r assessmentRow) toDomain() *domain.Assessment {
	return &domain.Assessment{
		ID:                   r.ID,
		HospitalID:           str(r.HospitalID),
		HealthOfficeID:       str(r.HealthOfficeID),
		FiscalYear:           r.FiscalYear,
		Period:               r.Period,
		Status:               domain.Status(r.Status),
		QuantitativeScore:    r.QuantitativeScore,
		QualitativeScore:     r.QualitativeScore,
		ImpactScore:          r.ImpactScore,
		TotalScore:           r.TotalScore,
		QuantitativeApproval: domain.NewSectionStamp(str(r.QuantitativeApprovedBy), tm(r.QuantitativeApprovedAt)),
		QualitativeApproval:  domain.NewSectionStamp(str(r.QualitativeApprovedBy), tm(r.QualitativeApprovedAt)),
		ImpactApproval:       domain.NewSectionStamp(str(r.ImpactApprovedBy), tm(r.ImpactApprovedAt)),
		ProvincialApproval: domain.LevelStamp{
			By: str(r.ProvincialApprovedBy), At: tm(r.ProvincialApprovedAt), Comment: str(r.ProvincialComment),
		},
		RegionalApproval: domain.LevelStamp{
			By: str(r.RegionalApprovedBy), At: tm(r.RegionalApprovedAt), Comment: str(r.RegionalComment),
		},
		SubmittedBy: str(r.SubmittedBy),
		SubmittedAt: tm(r.SubmittedAt),
		CreatedBy:   str(r.CreatedBy),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		Version:     r.Version,
	}
}

func newAssessmentRow(a *domain.Assessment) assessmentRow {
	return assessmentRow{
		ID:                a.ID,
		HospitalID:        ptr(a.HospitalID),
		HealthOfficeID:    ptr(a.HealthOfficeID),
		FiscalYear:        a.FiscalYear,
		Period:            a.Period,
		Status:            string(a.Status),
		QuantitativeScore: a.QuantitativeScore,
		QualitativeScore:  a.QualitativeScore,
		ImpactScore:       a.ImpactScore,
		TotalScore:        a.TotalScore,
		CreatedBy:         ptr(a.CreatedBy),
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
		Version:           a.Version,
	}
}

// transitionPatch status and stamp columns written by SaveTransition.
type transitionPatch struct {
	Status string `json:"status"`

	QuantitativeApprovedBy *string    `json:"quantitative_approved_by"`
	QuantitativeApprovedAt *time.Time `json:"quantitative_approved_at"`
	QualitativeApprovedBy  *string    `json:"qualitative_approved_by"`
	QualitativeApprovedAt  *time.Time `json:"qualitative_approved_at"`
	ImpactApprovedBy       *string    `json:"impact_approved_by"`
	ImpactApprovedAt       *time.Time `json:"impact_approved_at"`

	ProvincialApprovedBy *string    `json:"provincial_approved_by"`
	ProvincialApprovedAt *time.Time `json:"provincial_approved_at"`
	ProvincialComment    *string    `json:"provincial_comment"`
	RegionalApprovedBy   *string    `json:"regional_approved_by"`
	RegionalApprovedAt   *time.Time `json:"regional_approved_at"`
	RegionalComment      *string    `json:"regional_comment"`

	SubmittedBy *string    `json:"submitted_by"`
	SubmittedAt *time.Time `json:"submitted_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int        `json:"version"`
}

func newTransitionPatch(a *domain.Assessment, version int) transitionPatch {
	return transitionPatch{
		Status:                 string(a.Status),
		QuantitativeApprovedBy: ptr(a.QuantitativeApproval.By),
		QuantitativeApprovedAt: tptr(a.QuantitativeApproval.At),
		QualitativeApprovedBy:  ptr(a.QualitativeApproval.By),
		QualitativeApprovedAt:  tptr(a.QualitativeApproval.At),
		ImpactApprovedBy:       ptr(a.ImpactApproval.By),
		ImpactApprovedAt:       tptr(a.ImpactApproval.At),
		ProvincialApprovedBy:   ptr(a.ProvincialApproval.By),
		ProvincialApprovedAt:   tptr(a.ProvincialApproval.At),
		ProvincialComment:      ptr(a.ProvincialApproval.Comment),
		RegionalApprovedBy:     ptr(a.RegionalApproval.By),
		RegionalApprovedAt:     tptr(a.RegionalApproval.At),
		RegionalComment:        ptr(a.RegionalApproval.Comment),
		SubmittedBy:            ptr(a.SubmittedBy),
		SubmittedAt:            tptr(a.SubmittedAt),
		UpdatedAt:              a.UpdatedAt,
		Version:                version,
	}
}

type scoresPatch struct {
	QuantitativeScore float64   `json:"quantitative_score"`
	QualitativeScore  float64   `json:"qualitative_score"`
	ImpactScore       float64   `json:"impact_score"`
	TotalScore        float64   `json:"total_score"`
	UpdatedAt         time.Time `json:"updated_at"`
	Version           int       `json:"version"`
}

type historyRow struct {
	ID           string    `json:"id,omitempty"`
	AssessmentID string    `json:"assessment_id"`
	FromStatus   string    `json:"from_status"`
	ToStatus     string    `json:"to_status"`
	Action       string    `json:"action"`
	PerformedBy  string    `json:"performed_by"`
	Comment      *string   `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

func newHistoryRow(h domain.ApprovalHistory) historyRow {
	return historyRow{
		ID:           h.ID,
		AssessmentID: h.AssessmentID,
		FromStatus:   string(h.FromStatus),
		ToStatus:     string(h.ToStatus),
		Action:       h.Action,
		PerformedBy:  h.PerformedBy,
		Comment:      ptr(h.Comment),
		CreatedAt:    h.CreatedAt,
	}
}

func (r historyRow) toDomain() domain.ApprovalHistory {
	return domain.ApprovalHistory{
		ID:           r.ID,
		AssessmentID: r.AssessmentID,
		FromStatus:   domain.Status(r.FromStatus),
		ToStatus:     domain.Status(r.ToStatus),
		Action:       r.Action,
		PerformedBy:  r.PerformedBy,
		Comment:      str(r.Comment),
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type profileRow struct {
	ID             string  `json:"id,omitempty"`
	Email          string  `json:"email"`
	FullName       string  `json:"full_name"`
	Phone          *string `json:"phone"`
	Role           string  `json:"role"`
	IsActive       bool    `json:"is_active"`
	HospitalID     *string `json:"hospital_id"`
	ProvinceID     *string `json:"province_id"`
	HealthRegionID *string `json:"health_region_id"`
	HealthOfficeID *string `json:"health_office_id"`
}

func newProfileRow(p *domain.Profile) profileRow {
	return profileRow{
		ID: p.ID, Email: p.Email, FullName: p.FullName, Phone: ptr(p.Phone),
		Role: string(p.Role), IsActive: p.IsActive,
		HospitalID: ptr(p.HospitalID), ProvinceID: ptr(p.ProvinceID),
		HealthRegionID: ptr(p.HealthRegionID), HealthOfficeID: ptr(p.HealthOfficeID),
	}
}

// toDomain rejects roles this service does not know.
func (r profileRow) toDomain() (*domain.Profile, error) {
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{
		ID: r.ID, Email: r.Email, FullName: r.FullName, Phone: str(r.Phone),
		Role: role, IsActive: r.IsActive,
		HospitalID: str(r.HospitalID), ProvinceID: str(r.ProvinceID),
		HealthRegionID: str(r.HealthRegionID), HealthOfficeID: str(r.HealthOfficeID),
	}, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func tm(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return p.UTC()
}

func tptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
