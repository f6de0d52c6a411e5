package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ctam-data/internal/domain"
	"ctam-data/internal/events"
	"ctam-data/internal/repository"
	"ctam-data/internal/scoring"
	"ctam-data/internal/workflow"
)

// maxCASAttempts read-compute-save rounds before giving up on a contended row.
const maxCASAttempts = 3

// AssessmentService assessment lifecycle. Every operation re-checks
// authorization through workflow.Authorize.
type AssessmentService interface {
	Create(ctx context.Context, actor *domain.Profile, req CreateAssessmentRequest) (*domain.Assessment, error)
	Get(ctx context.Context, actor *domain.Profile, id string) (*domain.Assessment, error)
	List(ctx context.Context, actor *domain.Profile, req ListAssessmentsRequest) ([]*domain.Assessment, error)
	UpdateScores(ctx context.Context, actor *domain.Profile, req UpdateScoresRequest) (*domain.Assessment, error)
	Submit(ctx context.Context, actor *domain.Profile, id string) (*domain.Assessment, error)
	ApproveSection(ctx context.Context, actor *domain.Profile, req ReviewRequest) (*domain.Assessment, error)
	ReturnSection(ctx context.Context, actor *domain.Profile, req ReviewRequest) (*domain.Assessment, error)
	History(ctx context.Context, actor *domain.Profile, id string) ([]domain.ApprovalHistory, error)
	Actions(ctx context.Context, actor *domain.Profile, id string) ([]workflow.Action, error)
}

type CreateAssessmentRequest struct {
	HospitalID     string `json:"hospital_id"`
	HealthOfficeID string `json:"health_office_id"`
	FiscalYear     int    `json:"fiscal_year" validate:"required,min=2000,max=2200"`
	Period         string `json:"period" validate:"required,max=16"`
}

type ListAssessmentsRequest struct {
	FiscalYear int
	Period     string
	Status     domain.Status
}

type UpdateScoresRequest struct {
	AssessmentID      string   `json:"-"`
	QuantitativeScore *float64 `json:"quantitative_score"`
	ImpactScore       *float64 `json:"impact_score"`
}

type ReviewRequest struct {
	AssessmentID string         `json:"-"`
	Section      domain.Section `json:"-"`
	Comment      string         `json:"comment"`
}

type assessmentService struct {
	assessments repository.AssessmentsRepository
	history     repository.HistoryRepository
	refs        *referenceCache
	publisher   events.Publisher
	validate    *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

func NewAssessmentService(
	assessments repository.AssessmentsRepository,
	history repository.HistoryRepository,
	orgs repository.OrganizationsRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) AssessmentService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &assessmentService{
		assessments: assessments,
		history:     history,
		refs:        newReferenceCache(orgs),
		publisher:   publisher,
		validate:    newValidator(),
		logger:      logger,
		now:         time.Now,
	}
}

func (s *assessmentService) Create(ctx context.Context, actor *domain.Profile, req CreateAssessmentRequest) (*domain.Assessment, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, workflow.ErrForbidden
	}
	// facility users always create for their own facility
	if actor.Role.Facility() {
		req.HospitalID, req.HealthOfficeID = actor.HospitalID, actor.HealthOfficeID
		if req.HospitalID != "" {
			req.HealthOfficeID = ""
		}
	}
	if (req.HospitalID == "") == (req.HealthOfficeID == "") {
		return nil, fmt.Errorf("%w: exactly one of hospital_id or health_office_id is required", ErrValidation)
	}

	a := &domain.Assessment{
		HospitalID:     req.HospitalID,
		HealthOfficeID: req.HealthOfficeID,
		FiscalYear:     req.FiscalYear,
		Period:         req.Period,
		Status:         domain.StatusDraft,
		CreatedBy:      actor.ID,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.authorize(ctx, actor, workflow.ActionEdit, a); err != nil {
		return nil, err
	}
	if err := s.assessments.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("Assessment created",
		zap.String("assessment_id", a.ID),
		zap.String("facility_id", a.FacilityID()),
		zap.Int("fiscal_year", a.FiscalYear),
		zap.String("period", a.Period),
	)
	return a, nil
}

func (s *assessmentService) Get(ctx context.Context, actor *domain.Profile, id string) (*domain.Assessment, error) {
	a, err := s.assessments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, workflow.ActionView, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns only assessments the actor may view.
func (s *assessmentService) List(ctx context.Context, actor *domain.Profile, req ListAssessmentsRequest) ([]*domain.Assessment, error) {
	if actor == nil {
		return nil, workflow.ErrForbidden
	}
	filter := repository.AssessmentFilter{FiscalYear: req.FiscalYear, Period: req.Period, Status: req.Status}
	if actor.Role.Facility() || actor.Role == domain.RoleHospitalCEO {
		filter.HospitalID, filter.HealthOfficeID = actor.HospitalID, actor.HealthOfficeID
		if filter.HospitalID == "" && filter.HealthOfficeID == "" {
			return []*domain.Assessment{}, nil
		}
		if filter.HospitalID != "" {
			filter.HealthOfficeID = ""
		}
	}
	all, err := s.assessments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	act, err := s.refs.actor(ctx, actor)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Assessment, 0, len(all))
	for _, a := range all {
		t, err := s.refs.target(ctx, a)
		if err != nil {
			return nil, err
		}
		if workflow.Authorize(act, workflow.ActionView, t) == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

// UpdateScores writes the quantitative and impact sections (clamped to their
// maxima) and recomputes the total. The qualitative section is only written
// by the qualitative auto-save.
func (s *assessmentService) UpdateScores(ctx context.Context, actor *domain.Profile, req UpdateScoresRequest) (*domain.Assessment, error) {
	return s.updateScores(ctx, actor, req.AssessmentID, func(a *domain.Assessment) {
		if req.QuantitativeScore != nil {
			a.QuantitativeScore = scoring.ClampSectionScore(*req.QuantitativeScore, scoring.MaxQuantitative)
		}
		if req.ImpactScore != nil {
			a.ImpactScore = scoring.ClampSectionScore(*req.ImpactScore, scoring.MaxImpact)
		}
	})
}

// updateScores edit-authorized CAS loop over the score columns.
func (s *assessmentService) updateScores(ctx context.Context, actor *domain.Profile, id string, mutate func(*domain.Assessment)) (*domain.Assessment, error) {
	for attempt := 1; ; attempt++ {
		a, err := s.assessments.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(ctx, actor, workflow.ActionEdit, a); err != nil {
			return nil, err
		}
		expected := a.Version
		mutate(a)
		a.RecalculateTotal()
		a.UpdatedAt = s.now().UTC()

		err = s.assessments.UpdateScores(ctx, a, expected)
		if errors.Is(err, domain.ErrVersionConflict) && attempt < maxCASAttempts {
			s.logger.Info("Assessment changed concurrently, retrying score update",
				zap.String("assessment_id", id), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

func (s *assessmentService) Submit(ctx context.Context, actor *domain.Profile, id string) (*domain.Assessment, error) {
	return s.transition(ctx, actor, id, func(act workflow.Actor, t workflow.Target, now time.Time) (*workflow.Transition, error) {
		return workflow.Submit(act, t, now)
	})
}

func (s *assessmentService) ApproveSection(ctx context.Context, actor *domain.Profile, req ReviewRequest) (*domain.Assessment, error) {
	return s.transition(ctx, actor, req.AssessmentID, func(act workflow.Actor, t workflow.Target, now time.Time) (*workflow.Transition, error) {
		return workflow.ApproveSection(act, t, req.Section, req.Comment, now)
	})
}

func (s *assessmentService) ReturnSection(ctx context.Context, actor *domain.Profile, req ReviewRequest) (*domain.Assessment, error) {
	return s.transition(ctx, actor, req.AssessmentID, func(act workflow.Actor, t workflow.Target, now time.Time) (*workflow.Transition, error) {
		return workflow.ReturnSection(act, t, req.Section, req.Comment, now)
	})
}

type transitionFunc func(workflow.Actor, workflow.Target, time.Time) (*workflow.Transition, error)

// transition loads the row, computes the transition purely and saves it
// guarded by the loaded version. A lost race re-reads and recomputes, so a
// decision is never made on a stale status.
func (s *assessmentService) transition(ctx context.Context, actor *domain.Profile, id string, apply transitionFunc) (*domain.Assessment, error) {
	if actor == nil {
		return nil, workflow.ErrForbidden
	}
	act, err := s.refs.actor(ctx, actor)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		a, err := s.assessments.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		t, err := s.refs.target(ctx, a)
		if err != nil {
			return nil, err
		}
		tr, err := apply(act, t, s.now())
		if err != nil {
			s.logger.Info("Assessment transition rejected",
				zap.String("assessment_id", id),
				zap.String("role", string(actor.Role)),
				zap.String("status", string(a.Status)),
				zap.Error(err),
			)
			return nil, err
		}

		err = s.assessments.SaveTransition(ctx, tr.Assessment, a.Version, tr.History)
		if errors.Is(err, domain.ErrVersionConflict) && attempt < maxCASAttempts {
			s.logger.Info("Assessment changed concurrently, recomputing transition",
				zap.String("assessment_id", id), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		last := tr.History[len(tr.History)-1]
		s.logger.Info("Assessment transition saved",
			zap.String("assessment_id", id),
			zap.String("action", last.Action),
			zap.String("transition", tr.Describe()),
			zap.String("role", string(actor.Role)),
		)
		_ = s.publisher.Publish(ctx, events.NewTransitionEvent(tr.Assessment, tr.From, last))
		return tr.Assessment, nil
	}
}

func (s *assessmentService) History(ctx context.Context, actor *domain.Profile, id string) ([]domain.ApprovalHistory, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.history.ListByAssessment(ctx, id)
}

// Actions what the actor may do now; the UI hides everything else.
func (s *assessmentService) Actions(ctx context.Context, actor *domain.Profile, id string) ([]workflow.Action, error) {
	a, err := s.assessments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	act, err := s.refs.actor(ctx, actor)
	if err != nil {
		return nil, err
	}
	t, err := s.refs.target(ctx, a)
	if err != nil {
		return nil, err
	}
	return workflow.AllowedActions(act, t), nil
}

func (s *assessmentService) authorize(ctx context.Context, actor *domain.Profile, action workflow.Action, a *domain.Assessment) error {
	act, err := s.refs.actor(ctx, actor)
	if err != nil {
		return err
	}
	t, err := s.refs.target(ctx, a)
	if err != nil {
		return err
	}
	return workflow.Authorize(act, action, t)
}
