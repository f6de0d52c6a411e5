package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ctam-data/internal/domain"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresHistoryRepository approval_history (INSERT and SELECT only).
type PostgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

var _ HistoryRepository = (*PostgresHistoryRepository)(nil)

func (r *PostgresHistoryRepository) Append(ctx context.Context, h *domain.ApprovalHistory) error {
	return insertHistory(ctx, r.db, h)
}

func insertHistory(ctx context.Context, db execer, h *domain.ApprovalHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO approval_history (id, assessment_id, from_status, to_status, action, performed_by, comment, created_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6::uuid, $7, $8)
	`, h.ID, h.AssessmentID, string(h.FromStatus), string(h.ToStatus), h.Action, h.PerformedBy, nullString(h.Comment), h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert approval history: %w", err)
	}
	return nil
}

// ListByAssessment oldest first; rows written by one transition share
// created_at and keep their insert order through seq.
func (r *PostgresHistoryRepository) ListByAssessment(ctx context.Context, assessmentID string) ([]domain.ApprovalHistory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, assessment_id::text, from_status, to_status, action,
			performed_by::text, COALESCE(comment, ''), created_at
		FROM approval_history
		WHERE assessment_id = $1::uuid
		ORDER BY created_at ASC, seq ASC
	`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}
	defer rows.Close()

	out := []domain.ApprovalHistory{}
	for rows.Next() {
		var h domain.ApprovalHistory
		var from, to string
		if err := rows.Scan(&h.ID, &h.AssessmentID, &from, &to, &h.Action, &h.PerformedBy, &h.Comment, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval history: %w", err)
		}
		h.FromStatus, h.ToStatus = domain.Status(from), domain.Status(to)
		h.CreatedAt = h.CreatedAt.UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}
