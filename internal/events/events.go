// Package events publishes assessment status changes to downstream consumers.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ctam-data/internal/domain"
)

// TransitionEvent one persisted workflow transition.
type TransitionEvent struct {
	AssessmentID string        `json:"assessment_id"`
	FacilityID   string        `json:"facility_id"`
	FiscalYear   int           `json:"fiscal_year"`
	Period       string        `json:"period"`
	Action       string        `json:"action"`
	FromStatus   domain.Status `json:"from_status"`
	ToStatus     domain.Status `json:"to_status"`
	PerformedBy  string        `json:"performed_by"`
	Comment      string        `json:"comment,omitempty"`
	Version      int           `json:"version"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

// NewTransitionEvent describes the last history row of a transition.
func NewTransitionEvent(a *domain.Assessment, from domain.Status, last domain.ApprovalHistory) TransitionEvent {
	return TransitionEvent{
		AssessmentID: a.ID,
		FacilityID:   a.FacilityID(),
		FiscalYear:   a.FiscalYear,
		Period:       a.Period,
		Action:       last.Action,
		FromStatus:   from,
		ToStatus:     a.Status,
		PerformedBy:  last.PerformedBy,
		Comment:      last.Comment,
		Version:      a.Version,
		OccurredAt:   last.CreatedAt,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev TransitionEvent) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, TransitionEvent) error { return nil }

// Logged wraps a publisher so failures are logged and swallowed; the
// transition is already committed when events go out.
type Logged struct {
	next   Publisher
	logger *zap.Logger
}

func NewLogged(next Publisher, logger *zap.Logger) *Logged {
	if next == nil {
		next = Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logged{next: next, logger: logger}
}

func (l *Logged) Publish(ctx context.Context, ev TransitionEvent) error {
	if err := l.next.Publish(ctx, ev); err != nil {
		l.logger.Warn("Failed to publish status event",
			zap.String("assessment_id", ev.AssessmentID),
			zap.String("action", ev.Action),
			zap.Error(err),
		)
	}
	return nil
}
