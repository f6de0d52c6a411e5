package domain

import "time"

// Actions recorded in approval_history.action.
const (
	ActionSubmit  = "submit"
	ActionApprove = "approve"
)

// ApproveSectionAction "approve_quantitative", ...
func ApproveSectionAction(s Section) string { return "approve_" + s.String() }

// ReturnSectionAction "return_quantitative", ...
func ReturnSectionAction(s Section) string { return "return_" + s.String() }

// ApprovalHistory append-only audit row per transition; never updated or deleted.
type ApprovalHistory struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	FromStatus   Status    `json:"from_status"`
	ToStatus     Status    `json:"to_status"`
	Action       string    `json:"action"`
	PerformedBy  string    `json:"performed_by"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
