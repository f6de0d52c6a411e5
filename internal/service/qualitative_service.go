package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ctam-data/internal/domain"
	"ctam-data/internal/events"
	"ctam-data/internal/repository"
	"ctam-data/internal/scoring"
	"ctam-data/internal/workflow"
)

// QualitativeService qualitative section form (auto-saved by the UI).
type QualitativeService interface {
	// Get returns the stored row, or an unsaved zero row with derived scores.
	Get(ctx context.Context, actor *domain.Profile, assessmentID string) (*domain.QualitativeScore, error)
	// Save recomputes the derived scores, upserts the row and copies the
	// qualitative total onto the assessment.
	Save(ctx context.Context, actor *domain.Profile, req SaveQualitativeRequest) (*domain.QualitativeScore, error)
}

type SaveQualitativeRequest struct {
	AssessmentID        string `json:"-" validate:"required"`
	HasCISO             bool   `json:"has_ciso"`
	HasDPO              bool   `json:"has_dpo"`
	HasITSecurityTeam   bool   `json:"has_it_security_team"`
	AnnualTrainingCount int    `json:"annual_training_count" validate:"max=1000"`
	UsesOpenSource      bool   `json:"uses_opensource"`
	UsesFreeware        bool   `json:"uses_freeware"`
	Comment             string `json:"comment" validate:"max=4000"`
}

type qualitativeService struct {
	qualitative repository.QualitativeRepository
	scores      *assessmentService
	logger      *zap.Logger
}

func NewQualitativeService(
	assessments repository.AssessmentsRepository,
	qualitative repository.QualitativeRepository,
	orgs repository.OrganizationsRepository,
	logger *zap.Logger,
) QualitativeService {
	return &qualitativeService{
		qualitative: qualitative,
		scores: &assessmentService{
			assessments: assessments,
			refs:        newReferenceCache(orgs),
			publisher:   events.Nop{},
			validate:    newValidator(),
			logger:      logger,
			now:         time.Now,
		},
		logger: logger,
	}
}

func (s *qualitativeService) Get(ctx context.Context, actor *domain.Profile, assessmentID string) (*domain.QualitativeScore, error) {
	if _, err := s.scores.Get(ctx, actor, assessmentID); err != nil {
		return nil, err
	}
	q, err := s.qualitative.Get(ctx, assessmentID)
	if errors.Is(err, domain.ErrNotFound) {
		q = &domain.QualitativeScore{AssessmentID: assessmentID}
		scoring.Apply(q)
		return q, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *qualitativeService) Save(ctx context.Context, actor *domain.Profile, req SaveQualitativeRequest) (*domain.QualitativeScore, error) {
	if err := validateStruct(s.scores.validate, req); err != nil {
		return nil, err
	}
	a, err := s.scores.assessments.Get(ctx, req.AssessmentID)
	if err != nil {
		return nil, err
	}
	if err := s.scores.authorize(ctx, actor, workflow.ActionEdit, a); err != nil {
		return nil, err
	}
	prev, err := s.qualitative.Get(ctx, req.AssessmentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	q := &domain.QualitativeScore{
		AssessmentID:        req.AssessmentID,
		HasCISO:             req.HasCISO,
		HasDPO:              req.HasDPO,
		HasITSecurityTeam:   req.HasITSecurityTeam,
		AnnualTrainingCount: req.AnnualTrainingCount,
		UsesOpenSource:      req.UsesOpenSource,
		UsesFreeware:        req.UsesFreeware,
		Comment:             req.Comment,
		UpdatedBy:           actor.ID,
		UpdatedAt:           s.scores.now().UTC().Truncate(time.Microsecond),
	}
	r := scoring.Apply(q)
	if err := s.qualitative.Upsert(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to save qualitative scores: %w", err)
	}

	// the edit check is repeated inside the CAS loop; when the total cannot
	// follow (a submit landed in between) the form row is put back
	if _, err := s.scores.updateScores(ctx, actor, req.AssessmentID, func(a *domain.Assessment) {
		a.QualitativeScore = q.TotalScore
	}); err != nil {
		s.restore(context.WithoutCancel(ctx), q, prev)
		return nil, err
	}

	s.logger.Debug("Qualitative scores saved",
		zap.String("assessment_id", req.AssessmentID),
		zap.Int("leadership", r.Leadership),
		zap.Int("sustainable", r.Sustainable),
		zap.Int("total", r.Total),
	)
	return q, nil
}

// restore replaces ours with prev (or removes it when there was none). A row
// that a later save already overwrote is left alone.
func (s *qualitativeService) restore(ctx context.Context, ours, prev *domain.QualitativeScore) {
	cur, err := s.qualitative.Get(ctx, ours.AssessmentID)
	if err != nil || cur.UpdatedBy != ours.UpdatedBy || !cur.UpdatedAt.Equal(ours.UpdatedAt) {
		return
	}
	if prev == nil {
		err = s.qualitative.Delete(ctx, ours.AssessmentID)
	} else {
		err = s.qualitative.Upsert(ctx, prev)
	}
	if err != nil {
		s.logger.Warn("Failed to restore qualitative scores",
			zap.String("assessment_id", ours.AssessmentID), zap.Error(err))
		return
	}
	s.logger.Info("Qualitative save rolled back, assessment no longer editable",
		zap.String("assessment_id", ours.AssessmentID))
}
