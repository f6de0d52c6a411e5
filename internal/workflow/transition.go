package workflow

import (
	"fmt"
	"strings"
	"time"

	"ctam-data/internal/domain"
)

// CommentAllSectionsApproved history comment of a level transition.
const CommentAllSectionsApproved = "approved all sections"

// Transition result of applying an operation: the updated copy of the
// assessment and the history rows to append with it.
type Transition struct {
	Assessment *domain.Assessment
	From       domain.Status
	History    []domain.ApprovalHistory
}

// StatusChanged reports whether the transition moved the status.
func (t *Transition) StatusChanged() bool {
	return t.Assessment.Status != t.From
}

// Submit draft|returned -> submitted.
func Submit(actor Actor, t Target, now time.Time) (*Transition, error) {
	if err := Authorize(actor, ActionSubmit, t); err != nil {
		return nil, err
	}
	now = now.UTC()
	a := t.Assessment.Clone()
	from := a.Status

	a.Status = domain.StatusSubmitted
	a.SubmittedBy = actor.ID()
	a.SubmittedAt = now
	a.UpdatedAt = now

	return &Transition{
		Assessment: a,
		From:       from,
		History: []domain.ApprovalHistory{
			historyRow(a.ID, from, a.Status, domain.ActionSubmit, actor.ID(), "", now),
		},
	}, nil
}

// ApproveSection stamps section for the acting reviewer. When that completes
// all three sections the assessment advances one level: provincial ->
// approved_provincial, regional -> approved_regional, anything else ->
// completed. Below completed the section stamps are cleared so the next level
// reviews afresh, and the level stamp records who closed this level.
func ApproveSection(actor Actor, t Target, section domain.Section, comment string, now time.Time) (*Transition, error) {
	if !section.Valid() {
		return nil, ErrInvalidSection
	}
	if err := Authorize(actor, ActionApproveSection, t); err != nil {
		return nil, err
	}
	now = now.UTC()
	comment = strings.TrimSpace(comment)
	a := t.Assessment.Clone()
	from := a.Status

	a.SetApproval(section, domain.NewSectionStamp(actor.ID(), now))
	a.UpdatedAt = now
	tr := &Transition{
		Assessment: a,
		From:       from,
		History: []domain.ApprovalHistory{
			historyRow(a.ID, from, from, domain.ApproveSectionAction(section), actor.ID(), comment, now),
		},
	}

	if !a.AllSectionsApproved() {
		return tr, nil
	}

	next := nextLevelStatus(actor.Profile.Role)
	if next != domain.StatusCompleted {
		a.ClearSectionApprovals()
		stamp := domain.LevelStamp{By: actor.ID(), At: now, Comment: comment}
		switch next {
		case domain.StatusApprovedProvincial:
			a.ProvincialApproval = stamp
		case domain.StatusApprovedRegional:
			a.RegionalApproval = stamp
		}
	}
	a.Status = next
	tr.History = append(tr.History,
		historyRow(a.ID, from, next, domain.ActionApprove, actor.ID(), CommentAllSectionsApproved, now))
	return tr, nil
}

// ReturnSection sends the assessment back to the facility. All section
// approvals of the current level are discarded, whichever section triggered it.
func ReturnSection(actor Actor, t Target, section domain.Section, comment string, now time.Time) (*Transition, error) {
	if !section.Valid() {
		return nil, ErrInvalidSection
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrCommentRequired
	}
	if err := Authorize(actor, ActionReturnSection, t); err != nil {
		return nil, err
	}
	now = now.UTC()
	a := t.Assessment.Clone()
	from := a.Status

	a.Status = domain.StatusReturned
	a.ClearSectionApprovals()
	a.UpdatedAt = now

	return &Transition{
		Assessment: a,
		From:       from,
		History: []domain.ApprovalHistory{
			historyRow(a.ID, from, a.Status, domain.ReturnSectionAction(section), actor.ID(), comment, now),
		},
	}, nil
}

func nextLevelStatus(role domain.Role) domain.Status {
	switch role {
	case domain.RoleProvincial:
		return domain.StatusApprovedProvincial
	case domain.RoleRegional:
		return domain.StatusApprovedRegional
	default:
		return domain.StatusCompleted
	}
}

func historyRow(assessmentID string, from, to domain.Status, action, by, comment string, at time.Time) domain.ApprovalHistory {
	return domain.ApprovalHistory{
		AssessmentID: assessmentID,
		FromStatus:   from,
		ToStatus:     to,
		Action:       action,
		PerformedBy:  by,
		Comment:      comment,
		CreatedAt:    at,
	}
}

// Describe one-line summary for logs.
func (t *Transition) Describe() string {
	return fmt.Sprintf("%s: %s -> %s (%d history rows)", t.Assessment.ID, t.From, t.Assessment.Status, len(t.History))
}
