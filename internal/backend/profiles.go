package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ctam-data/internal/domain"
	"ctam-data/internal/repository"
)

type QualitativeRepo struct {
	c *Client
}

func NewQualitativeRepo(c *Client) *QualitativeRepo { return &QualitativeRepo{c: c} }

var _ repository.QualitativeRepository = (*QualitativeRepo)(nil)

type qualitativeRow struct {
	AssessmentID        string    `json:"assessment_id"`
	HasCISO             bool      `json:"has_ciso"`
	HasDPO              bool      `json:"has_dpo"`
	HasITSecurityTeam   bool      `json:"has_it_security_team"`
	AnnualTrainingCount int       `json:"annual_training_count"`
	UsesOpenSource      bool      `json:"uses_opensource"`
	UsesFreeware        bool      `json:"uses_freeware"`
	LeadershipScore     float64   `json:"leadership_score"`
	SustainableScore    float64   `json:"sustainable_score"`
	TotalScore          float64   `json:"total_score"`
	Comment             *string   `json:"comment"`
	UpdatedBy           *string   `json:"updated_by"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (r *QualitativeRepo) Get(ctx context.Context, assessmentID string) (*domain.QualitativeScore, error) {
	var rows []qualitativeRow
	if err := r.c.selectRows(ctx, "qualitative_scores", map[string]string{"assessment_id": eq(assessmentID)}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("qualitative score %s: %w", assessmentID, domain.ErrNotFound)
	}
	x := rows[0]
	return &domain.QualitativeScore{
		AssessmentID: x.AssessmentID, HasCISO: x.HasCISO, HasDPO: x.HasDPO,
		HasITSecurityTeam: x.HasITSecurityTeam, AnnualTrainingCount: x.AnnualTrainingCount,
		UsesOpenSource: x.UsesOpenSource, UsesFreeware: x.UsesFreeware,
		LeadershipScore: x.LeadershipScore, SustainableScore: x.SustainableScore, TotalScore: x.TotalScore,
		Comment: str(x.Comment), UpdatedBy: str(x.UpdatedBy), UpdatedAt: x.UpdatedAt.UTC(),
	}, nil
}

func (r *QualitativeRepo) Upsert(ctx context.Context, q *domain.QualitativeScore) error {
	if q.AssessmentID == "" {
		return fmt.Errorf("assessment_id is required")
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = time.Now().UTC()
	}
	row := qualitativeRow{
		AssessmentID: q.AssessmentID, HasCISO: q.HasCISO, HasDPO: q.HasDPO,
		HasITSecurityTeam: q.HasITSecurityTeam, AnnualTrainingCount: q.AnnualTrainingCount,
		UsesOpenSource: q.UsesOpenSource, UsesFreeware: q.UsesFreeware,
		LeadershipScore: q.LeadershipScore, SustainableScore: q.SustainableScore, TotalScore: q.TotalScore,
		Comment: ptr(q.Comment), UpdatedBy: ptr(q.UpdatedBy), UpdatedAt: q.UpdatedAt,
	}
	return r.c.upsertRows(ctx, "qualitative_scores", "assessment_id", []qualitativeRow{row}, nil)
}

func (r *QualitativeRepo) Delete(ctx context.Context, assessmentID string) error {
	return r.c.deleteRows(ctx, "qualitative_scores", map[string]string{"assessment_id": eq(assessmentID)})
}

type ProfilesRepo struct {
	c *Client
}

func NewProfilesRepo(c *Client) *ProfilesRepo { return &ProfilesRepo{c: c} }

var _ repository.ProfilesRepository = (*ProfilesRepo)(nil)

func (r *ProfilesRepo) Get(ctx context.Context, id string) (*domain.Profile, error) {
	return r.one(ctx, map[string]string{"id": eq(id)}, id)
}

// GetByEmail ilike without wildcards is a case-insensitive equality.
func (r *ProfilesRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.one(ctx, map[string]string{"email": "ilike." + email}, email)
}

func (r *ProfilesRepo) one(ctx context.Context, params map[string]string, what string) (*domain.Profile, error) {
	params["limit"] = "1"
	var rows []profileRow
	if err := r.c.selectRows(ctx, "profiles", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("profile %s: %w", what, domain.ErrNotFound)
	}
	p, err := rows[0].toDomain()
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", what, err)
	}
	return p, nil
}

func (r *ProfilesRepo) Create(ctx context.Context, p *domain.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := r.c.insertRows(ctx, "profiles", []profileRow{newProfileRow(p)}, nil); err != nil {
		if isConflict(err) {
			return fmt.Errorf("profile %s: %w", p.Email, domain.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *ProfilesRepo) UpdateContact(ctx context.Context, id, fullName, phone string) error {
	body := map[string]any{"phone": ptr(phone)}
	if fullName != "" {
		body["full_name"] = fullName
	}
	var out []profileRow
	if _, err := r.c.patchRows(ctx, "profiles", map[string]string{"id": eq(id)}, body, &out); err != nil {
		return err
	}
	if len(out) == 0 {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
