package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ctam-data/internal/domain"
)

type PostgresQualitativeRepository struct {
	db *sql.DB
}

func NewPostgresQualitativeRepository(db *sql.DB) *PostgresQualitativeRepository {
	return &PostgresQualitativeRepository{db: db}
}

var _ QualitativeRepository = (*PostgresQualitativeRepository)(nil)

func (r *PostgresQualitativeRepository) Get(ctx context.Context, assessmentID string) (*domain.QualitativeScore, error) {
	var q domain.QualitativeScore
	err := r.db.QueryRowContext(ctx, `
		SELECT assessment_id::text, has_ciso, has_dpo, has_it_security_team, annual_training_count,
			uses_opensource, uses_freeware, leadership_score, sustainable_score, total_score,
			COALESCE(comment, ''), COALESCE(updated_by::text, ''), updated_at
		FROM qualitative_scores
		WHERE assessment_id = $1::uuid
	`, assessmentID).Scan(
		&q.AssessmentID, &q.HasCISO, &q.HasDPO, &q.HasITSecurityTeam, &q.AnnualTrainingCount,
		&q.UsesOpenSource, &q.UsesFreeware, &q.LeadershipScore, &q.SustainableScore, &q.TotalScore,
		&q.Comment, &q.UpdatedBy, &q.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("qualitative score %s: %w", assessmentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get qualitative score: %w", err)
	}
	q.UpdatedAt = q.UpdatedAt.UTC()
	return &q, nil
}

func (r *PostgresQualitativeRepository) Upsert(ctx context.Context, q *domain.QualitativeScore) error {
	if q.AssessmentID == "" {
		return fmt.Errorf("assessment_id is required")
	}
	q.UpdatedAt = touch(q.UpdatedAt)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO qualitative_scores (
			assessment_id, has_ciso, has_dpo, has_it_security_team, annual_training_count,
			uses_opensource, uses_freeware, leadership_score, sustainable_score, total_score,
			comment, updated_by, updated_at
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::uuid, $13)
		ON CONFLICT (assessment_id) DO UPDATE SET
			has_ciso = EXCLUDED.has_ciso,
			has_dpo = EXCLUDED.has_dpo,
			has_it_security_team = EXCLUDED.has_it_security_team,
			annual_training_count = EXCLUDED.annual_training_count,
			uses_opensource = EXCLUDED.uses_opensource,
			uses_freeware = EXCLUDED.uses_freeware,
			leadership_score = EXCLUDED.leadership_score,
			sustainable_score = EXCLUDED.sustainable_score,
			total_score = EXCLUDED.total_score,
			comment = EXCLUDED.comment,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`,
		q.AssessmentID, q.HasCISO, q.HasDPO, q.HasITSecurityTeam, q.AnnualTrainingCount,
		q.UsesOpenSource, q.UsesFreeware, q.LeadershipScore, q.SustainableScore, q.TotalScore,
		nullString(q.Comment), nullString(q.UpdatedBy), q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert qualitative score: %w", err)
	}
	return nil
}

func (r *PostgresQualitativeRepository) Delete(ctx context.Context, assessmentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM qualitative_scores WHERE assessment_id = $1::uuid`, assessmentID); err != nil {
		return fmt.Errorf("failed to delete qualitative score: %w", err)
	}
	return nil
}
