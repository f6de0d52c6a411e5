package domain

import "time"

// LevelStamp level approval (provincial_approved_* / regional_approved_*).
type LevelStamp struct {
	By      string    `json:"by,omitempty"`
	At      time.Time `json:"at,omitempty"`
	Comment string    `json:"comment,omitempty"`
}

// Approved reports whether the level was stamped.
func (l LevelStamp) Approved() bool {
	return l.By != "" && !l.At.IsZero()
}

// Assessment one facility's self-assessment for a fiscal year and period.
type Assessment struct {
	ID             string `json:"id"`
	HospitalID     string `json:"hospital_id,omitempty"`
	HealthOfficeID string `json:"health_office_id,omitempty"`
	FiscalYear     int    `json:"fiscal_year"` // Gregorian; display adds 543
	Period         string `json:"period"`
	Status         Status `json:"status"`

	QuantitativeScore float64 `json:"quantitative_score"`
	QualitativeScore  float64 `json:"qualitative_score"`
	ImpactScore       float64 `json:"impact_score"`
	TotalScore        float64 `json:"total_score"`

	QuantitativeApproval SectionStamp `json:"quantitative_approval"`
	QualitativeApproval  SectionStamp `json:"qualitative_approval"`
	ImpactApproval       SectionStamp `json:"impact_approval"`

	ProvincialApproval LevelStamp `json:"provincial_approval"`
	RegionalApproval   LevelStamp `json:"regional_approval"`

	SubmittedBy string    `json:"submitted_by,omitempty"`
	SubmittedAt time.Time `json:"submitted_at,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Version optimistic concurrency token, incremented on every write.
	Version int `json:"version"`
}

// FacilityID returns the owning hospital or health office id.
func (a *Assessment) FacilityID() string {
	if a.HospitalID != "" {
		return a.HospitalID
	}
	return a.HealthOfficeID
}

// Approval returns the stamp of section s.
func (a *Assessment) Approval(s Section) SectionStamp {
	if p := a.approvalField(s); p != nil {
		return *p
	}
	return SectionStamp{}
}

// SetApproval replaces the stamp of section s.
func (a *Assessment) SetApproval(s Section, stamp SectionStamp) {
	if p := a.approvalField(s); p != nil {
		*p = stamp
	}
}

func (a *Assessment) approvalField(s Section) *SectionStamp {
	switch s {
	case SectionQuantitative:
		return &a.QuantitativeApproval
	case SectionQualitative:
		return &a.QualitativeApproval
	case SectionImpact:
		return &a.ImpactApproval
	}
	return nil
}

// AllSectionsApproved true when every section carries a stamp.
func (a *Assessment) AllSectionsApproved() bool {
	for _, s := range Sections() {
		if !a.Approval(s).Approved() {
			return false
		}
	}
	return true
}

// ClearSectionApprovals drops all three section stamps.
func (a *Assessment) ClearSectionApprovals() {
	for _, s := range Sections() {
		a.SetApproval(s, SectionStamp{})
	}
}

// RecalculateTotal total = quantitative + qualitative + impact.
func (a *Assessment) RecalculateTotal() {
	a.TotalScore = a.QuantitativeScore + a.QualitativeScore + a.ImpactScore
}

// BuddhistYear fiscal year for display (Gregorian + 543).
func (a *Assessment) BuddhistYear() int {
	return a.FiscalYear + 543
}

// Clone returns a copy safe to mutate.
func (a *Assessment) Clone() *Assessment {
	c := *a
	return &c
}
