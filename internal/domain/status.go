package domain

import "fmt"

// Status assessment approval status (assessments.status)
type Status string

const (
	StatusDraft              Status = "draft"
	StatusSubmitted          Status = "submitted"
	StatusApprovedProvincial Status = "approved_provincial"
	StatusApprovedRegional   Status = "approved_regional"
	StatusCompleted          Status = "completed"
	StatusReturned           Status = "returned"
)

var allStatuses = []Status{
	StatusDraft, StatusSubmitted, StatusApprovedProvincial,
	StatusApprovedRegional, StatusCompleted, StatusReturned,
}

// AllStatuses returns the statuses in lifecycle order, returned last.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus validates s.
func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status: %q", s)
}

// Editable reports whether the owning facility may still change the assessment.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusReturned
}

// UnderReview reports whether reviewers may act (approve/return sections).
func (s Status) UnderReview() bool {
	return s == StatusSubmitted || s == StatusApprovedProvincial || s == StatusApprovedRegional
}

// Terminal completed accepts no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}
