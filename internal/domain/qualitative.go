package domain

import "time"

// QualitativeScore qualitative section inputs and derived scores (1:1 with an assessment).
type QualitativeScore struct {
	AssessmentID        string `json:"assessment_id"`
	HasCISO             bool   `json:"has_ciso"`
	HasDPO              bool   `json:"has_dpo"`
	HasITSecurityTeam   bool   `json:"has_it_security_team"`
	AnnualTrainingCount int    `json:"annual_training_count"`
	UsesOpenSource      bool   `json:"uses_opensource"`
	UsesFreeware        bool   `json:"uses_freeware"`

	LeadershipScore  float64 `json:"leadership_score"`
	SustainableScore float64 `json:"sustainable_score"`
	TotalScore       float64 `json:"total_score"`

	Comment   string    `json:"comment"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
