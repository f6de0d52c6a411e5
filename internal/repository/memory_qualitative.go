package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ctam-data/internal/domain"
)

type MemoryQualitativeRepo struct {
	mu   sync.RWMutex
	rows map[string]domain.QualitativeScore
}

func NewMemoryQualitativeRepo() *MemoryQualitativeRepo {
	return &MemoryQualitativeRepo{rows: map[string]domain.QualitativeScore{}}
}

var _ QualitativeRepository = (*MemoryQualitativeRepo)(nil)

func (r *MemoryQualitativeRepo) Get(_ context.Context, assessmentID string) (*domain.QualitativeScore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.rows[assessmentID]
	if !ok {
		return nil, fmt.Errorf("qualitative score %s: %w", assessmentID, domain.ErrNotFound)
	}
	return &q, nil
}

func (r *MemoryQualitativeRepo) Upsert(_ context.Context, q *domain.QualitativeScore) error {
	if q.AssessmentID == "" {
		return fmt.Errorf("assessment_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = time.Now().UTC()
	}
	r.rows[q.AssessmentID] = *q
	return nil
}

func (r *MemoryQualitativeRepo) Delete(_ context.Context, assessmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, assessmentID)
	return nil
}
