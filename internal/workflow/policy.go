// Package workflow implements the assessment approval state machine and the
// authorization policy shared by the HTTP layer (to hide actions) and the
// service layer (to reject them).
package workflow

import (
	"errors"
	"fmt"

	"ctam-data/internal/domain"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCommentRequired   = errors.New("comment is required to return a section")
	ErrInvalidSection    = errors.New("invalid section")
)

// Action something a profile may do to an assessment.
type Action string

const (
	ActionView              Action = "view"
	ActionEdit              Action = "edit"
	ActionSubmit            Action = "submit"
	ActionApproveSection    Action = "approve_section"
	ActionReturnSection     Action = "return_section"
	ActionExportCertificate Action = "export_certificate"
)

var allActions = []Action{
	ActionView, ActionEdit, ActionSubmit, ActionApproveSection,
	ActionReturnSection, ActionExportCertificate,
}

// Actor the acting profile with its resolved province/region scope.
type Actor struct {
	Profile    *domain.Profile
	ProvinceID string
	RegionID   string
}

// ID profile id, empty for a nil profile.
func (a Actor) ID() string {
	if a.Profile == nil {
		return ""
	}
	return a.Profile.ID
}

// Target the assessment plus the province/region of its facility.
type Target struct {
	Assessment *domain.Assessment
	ProvinceID string
	RegionID   string
}

// Authorize is the single authorization decision for every assessment action.
// It returns nil, ErrForbidden (role/scope) or ErrInvalidTransition (status).
func Authorize(actor Actor, act Action, t Target) error {
	p := actor.Profile
	if p == nil || !p.IsActive {
		return fmt.Errorf("%w: inactive or unknown profile", ErrForbidden)
	}
	a := t.Assessment
	if a == nil {
		return fmt.Errorf("%w: no assessment", ErrForbidden)
	}

	switch act {
	case ActionView:
		if !canView(actor, t) {
			return fmt.Errorf("%w: %s cannot view assessment %s", ErrForbidden, p.Role, a.ID)
		}
		return nil

	case ActionEdit, ActionSubmit:
		if !canEdit(actor, t) {
			return fmt.Errorf("%w: %s cannot %s assessment %s", ErrForbidden, p.Role, act, a.ID)
		}
		if a.Status.Terminal() {
			return fmt.Errorf("%w: assessment %s is %s and final", ErrInvalidTransition, a.ID, a.Status)
		}
		if !a.Status.Editable() {
			return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, act, a.Status)
		}
		return nil

	case ActionApproveSection, ActionReturnSection:
		if !p.Role.Reviewer() || !inReviewScope(actor, t) {
			return fmt.Errorf("%w: %s cannot review assessment %s", ErrForbidden, p.Role, a.ID)
		}
		if a.Status.Terminal() {
			return fmt.Errorf("%w: assessment %s is %s and final", ErrInvalidTransition, a.ID, a.Status)
		}
		if !reviewStatusAllowed(p.Role, a.Status) {
			return fmt.Errorf("%w: %s cannot review from %s", ErrInvalidTransition, p.Role, a.Status)
		}
		return nil

	case ActionExportCertificate:
		if !canView(actor, t) {
			return fmt.Errorf("%w: %s cannot export assessment %s", ErrForbidden, p.Role, a.ID)
		}
		if a.Status != domain.StatusCompleted {
			return fmt.Errorf("%w: certificate requires %s, got %s", ErrInvalidTransition, domain.StatusCompleted, a.Status)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown action %q", ErrForbidden, act)
}

// AllowedActions lists the actions Authorize currently permits.
func AllowedActions(actor Actor, t Target) []Action {
	out := make([]Action, 0, len(allActions))
	for _, act := range allActions {
		if Authorize(actor, act, t) == nil {
			out = append(out, act)
		}
	}
	return out
}

// reviewStatusAllowed provincial reviews submitted, regional reviews
// approved_provincial, central_admin reviews any status under review.
func reviewStatusAllowed(role domain.Role, s domain.Status) bool {
	switch role {
	case domain.RoleProvincial:
		return s == domain.StatusSubmitted
	case domain.RoleRegional:
		return s == domain.StatusApprovedProvincial
	case domain.RoleCentralAdmin:
		return s.UnderReview()
	}
	return false
}

func canEdit(actor Actor, t Target) bool {
	p := actor.Profile
	if p.Role == domain.RoleCentralAdmin {
		return true
	}
	return p.Role.Facility() && p.Owns(t.Assessment)
}

func inReviewScope(actor Actor, t Target) bool {
	switch actor.Profile.Role {
	case domain.RoleCentralAdmin:
		return true
	case domain.RoleProvincial:
		return actor.ProvinceID != "" && actor.ProvinceID == t.ProvinceID
	case domain.RoleRegional:
		return actor.RegionID != "" && actor.RegionID == t.RegionID
	}
	return false
}

func canView(actor Actor, t Target) bool {
	p := actor.Profile
	switch p.Role {
	case domain.RoleCentralAdmin, domain.RoleSupervisor:
		return true
	case domain.RoleHospitalIT, domain.RoleHealthOffice, domain.RoleHospitalCEO:
		return p.Owns(t.Assessment)
	case domain.RoleProvincial, domain.RoleProvincialCEO:
		return actor.ProvinceID != "" && actor.ProvinceID == t.ProvinceID
	case domain.RoleRegional, domain.RoleRegionalCEO:
		return actor.RegionID != "" && actor.RegionID == t.RegionID
	}
	return false
}
