package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ctam-data/internal/domain"
)

// MemoryHistoryRepo approval history when DB is disabled.
type MemoryHistoryRepo struct {
	mu   sync.RWMutex
	rows map[string][]domain.ApprovalHistory // assessmentID -> rows in insert order
}

func NewMemoryHistoryRepo() *MemoryHistoryRepo {
	return &MemoryHistoryRepo{rows: map[string][]domain.ApprovalHistory{}}
}

var _ HistoryRepository = (*MemoryHistoryRepo)(nil)

func (r *MemoryHistoryRepo) Append(_ context.Context, h *domain.ApprovalHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(h)
	return nil
}

func (r *MemoryHistoryRepo) appendLocked(h *domain.ApprovalHistory) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	r.rows[h.AssessmentID] = append(r.rows[h.AssessmentID], *h)
}

func (r *MemoryHistoryRepo) ListByAssessment(_ context.Context, assessmentID string) ([]domain.ApprovalHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ApprovalHistory, len(r.rows[assessmentID]))
	copy(out, r.rows[assessmentID])
	return out, nil
}

// MemoryAssessmentsRepo assessments when DB is disabled. SaveTransition
// appends to the shared history repo under the assessments lock.
type MemoryAssessmentsRepo struct {
	mu      sync.RWMutex
	rows    map[string]*domain.Assessment
	history *MemoryHistoryRepo
}

func NewMemoryAssessmentsRepo(history *MemoryHistoryRepo) *MemoryAssessmentsRepo {
	if history == nil {
		history = NewMemoryHistoryRepo()
	}
	return &MemoryAssessmentsRepo{rows: map[string]*domain.Assessment{}, history: history}
}

var _ AssessmentsRepository = (*MemoryAssessmentsRepo)(nil)

func (r *MemoryAssessmentsRepo) Create(_ context.Context, a *domain.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, x := range r.rows {
		if samePeriod(x, a.HospitalID, a.HealthOfficeID, a.FiscalYear, a.Period) {
			return fmt.Errorf("assessment for %s %d/%s: %w", a.FacilityID(), a.FiscalYear, a.Period, domain.ErrAlreadyExists)
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	if a.Status == "" {
		a.Status = domain.StatusDraft
	}
	a.Version = 1
	r.rows[a.ID] = a.Clone()
	return nil
}

func (r *MemoryAssessmentsRepo) Get(_ context.Context, id string) (*domain.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	return a.Clone(), nil
}

func (r *MemoryAssessmentsRepo) FindByFacilityPeriod(_ context.Context, hospitalID, healthOfficeID string, fiscalYear int, period string) (*domain.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.rows {
		if samePeriod(a, hospitalID, healthOfficeID, fiscalYear, period) {
			return a.Clone(), nil
		}
	}
	return nil, fmt.Errorf("assessment for %s%s %d/%s: %w", hospitalID, healthOfficeID, fiscalYear, period, domain.ErrNotFound)
}

func (r *MemoryAssessmentsRepo) List(_ context.Context, filter AssessmentFilter) ([]*domain.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Assessment, 0, len(r.rows))
	for _, a := range r.rows {
		if filter.Matches(a) {
			out = append(out, a.Clone())
		}
	}
	sortAssessments(out)
	return out, nil
}

func (r *MemoryAssessmentsRepo) UpdateScores(_ context.Context, a *domain.Assessment, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, err := r.checkVersionLocked(a.ID, expectedVersion)
	if err != nil {
		return err
	}
	cur.QuantitativeScore = a.QuantitativeScore
	cur.QualitativeScore = a.QualitativeScore
	cur.ImpactScore = a.ImpactScore
	cur.TotalScore = a.TotalScore
	cur.UpdatedAt = touch(a.UpdatedAt)
	cur.Version++
	a.UpdatedAt = cur.UpdatedAt
	a.Version = cur.Version
	return nil
}

func (r *MemoryAssessmentsRepo) SaveTransition(_ context.Context, a *domain.Assessment, expectedVersion int, history []domain.ApprovalHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, err := r.checkVersionLocked(a.ID, expectedVersion)
	if err != nil {
		return err
	}
	next := a.Clone()
	// scores are owned by UpdateScores
	next.QuantitativeScore = cur.QuantitativeScore
	next.QualitativeScore = cur.QualitativeScore
	next.ImpactScore = cur.ImpactScore
	next.TotalScore = cur.TotalScore
	next.CreatedAt, next.CreatedBy = cur.CreatedAt, cur.CreatedBy
	next.UpdatedAt = touch(a.UpdatedAt)
	next.Version = cur.Version + 1
	r.rows[a.ID] = next

	r.history.mu.Lock()
	for i := range history {
		r.history.appendLocked(&history[i])
	}
	r.history.mu.Unlock()

	a.UpdatedAt = next.UpdatedAt
	a.Version = next.Version
	return nil
}

func (r *MemoryAssessmentsRepo) checkVersionLocked(id string, expectedVersion int) (*domain.Assessment, error) {
	cur, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	if cur.Version != expectedVersion {
		return nil, fmt.Errorf("assessment %s at version %d, expected %d: %w", id, cur.Version, expectedVersion, domain.ErrVersionConflict)
	}
	return cur, nil
}

func samePeriod(a *domain.Assessment, hospitalID, healthOfficeID string, fiscalYear int, period string) bool {
	return a.HospitalID == hospitalID && a.HealthOfficeID == healthOfficeID &&
		a.FiscalYear == fiscalYear && a.Period == period
}

// sortAssessments newest fiscal year first, then period, then creation order.
func sortAssessments(list []*domain.Assessment) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.FiscalYear != b.FiscalYear {
			return a.FiscalYear > b.FiscalYear
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func touch(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
