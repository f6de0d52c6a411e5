package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ctam-data/internal/domain"
	"ctam-data/internal/repository"
	"ctam-data/internal/resilience"
)

// AssessmentsRepo assessments over the hosted backend. Version guards are
// PostgREST filters (?version=eq.N); an empty PATCH result means the row moved.
//
// SaveTransition cannot span a transaction here: the row PATCH commits first
// and history rows are inserted after it. A failed history insert is reported
// to the caller with the status change already applied.
type AssessmentsRepo struct {
	c *Client
}

func NewAssessmentsRepo(c *Client) *AssessmentsRepo { return &AssessmentsRepo{c: c} }

var _ repository.AssessmentsRepository = (*AssessmentsRepo)(nil)

func (r *AssessmentsRepo) Create(ctx context.Context, a *domain.Assessment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = domain.StatusDraft
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt
	a.Version = 1

	var out []assessmentRow
	if err := r.c.insertRows(ctx, "assessments", []assessmentRow{newAssessmentRow(a)}, &out); err != nil {
		if isConflict(err) {
			return fmt.Errorf("assessment for %s %d/%s: %w", a.FacilityID(), a.FiscalYear, a.Period, domain.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *AssessmentsRepo) Get(ctx context.Context, id string) (*domain.Assessment, error) {
	return r.one(ctx, map[string]string{"id": eq(id)}, "assessment "+id)
}

func (r *AssessmentsRepo) FindByFacilityPeriod(ctx context.Context, hospitalID, healthOfficeID string, fiscalYear int, period string) (*domain.Assessment, error) {
	params := map[string]string{"fiscal_year": eq(strconv.Itoa(fiscalYear)), "period": eq(period)}
	switch {
	case hospitalID != "":
		params["hospital_id"] = eq(hospitalID)
	case healthOfficeID != "":
		params["health_office_id"] = eq(healthOfficeID)
	default:
		return nil, fmt.Errorf("hospital_id or health_office_id is required")
	}
	return r.one(ctx, params, fmt.Sprintf("assessment for %s%s %d/%s", hospitalID, healthOfficeID, fiscalYear, period))
}

func (r *AssessmentsRepo) one(ctx context.Context, params map[string]string, what string) (*domain.Assessment, error) {
	params["limit"] = "1"
	var rows []assessmentRow
	if err := r.c.selectRows(ctx, "assessments", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return rows[0].toDomain(), nil
}

func (r *AssessmentsRepo) List(ctx context.Context, filter repository.AssessmentFilter) ([]*domain.Assessment, error) {
	params := map[string]string{"order": "fiscal_year.desc,period.asc,created_at.asc"}
	if filter.FiscalYear != 0 {
		params["fiscal_year"] = eq(strconv.Itoa(filter.FiscalYear))
	}
	if filter.Period != "" {
		params["period"] = eq(filter.Period)
	}
	if filter.Status != "" {
		params["status"] = eq(string(filter.Status))
	}
	if filter.HospitalID != "" {
		params["hospital_id"] = eq(filter.HospitalID)
	}
	if filter.HealthOfficeID != "" {
		params["health_office_id"] = eq(filter.HealthOfficeID)
	}

	var rows []assessmentRow
	if err := r.c.selectRows(ctx, "assessments", params, &rows); err != nil {
		return nil, err
	}
	out := make([]*domain.Assessment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *AssessmentsRepo) UpdateScores(ctx context.Context, a *domain.Assessment, expectedVersion int) error {
	a.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	body := scoresPatch{
		QuantitativeScore: a.QuantitativeScore,
		QualitativeScore:  a.QualitativeScore,
		ImpactScore:       a.ImpactScore,
		TotalScore:        a.TotalScore,
		UpdatedAt:         a.UpdatedAt,
		Version:           expectedVersion + 1,
	}
	applied := func(cur *domain.Assessment) bool {
		return cur.UpdatedAt.Equal(a.UpdatedAt) && cur.TotalScore == a.TotalScore
	}
	if err := r.patchVersioned(ctx, a.ID, expectedVersion, body, applied); err != nil {
		return err
	}
	a.Version = expectedVersion + 1
	return nil
}

// SaveTransition history IDs are fixed before the row is patched and the
// insert ignores duplicates, so a replay after a lost response records each
// row once.
func (r *AssessmentsRepo) SaveTransition(ctx context.Context, a *domain.Assessment, expectedVersion int, history []domain.ApprovalHistory) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	// timestamptz keeps microseconds; the replay check compares it exactly
	a.UpdatedAt = a.UpdatedAt.Truncate(time.Microsecond)

	rows := make([]historyRow, len(history))
	for i := range history {
		if history[i].ID == "" {
			history[i].ID = uuid.NewString()
		}
		if history[i].CreatedAt.IsZero() {
			history[i].CreatedAt = a.UpdatedAt
		}
		rows[i] = newHistoryRow(history[i])
	}

	applied := func(cur *domain.Assessment) bool {
		return cur.Status == a.Status && cur.UpdatedAt.Equal(a.UpdatedAt)
	}
	if err := r.patchVersioned(ctx, a.ID, expectedVersion, newTransitionPatch(a, expectedVersion+1), applied); err != nil {
		return err
	}
	a.Version = expectedVersion + 1

	if len(rows) == 0 {
		return nil
	}
	if err := r.c.insertNewRows(ctx, "approval_history", "id", rows); err != nil {
		return fmt.Errorf("assessment %s updated but history not recorded: %w", a.ID, err)
	}
	return nil
}

// patchVersioned PATCH guarded by ?version=eq.expected. An empty result after
// a retried request is ambiguous: the first attempt may have committed. The
// row is then re-read and the write counts as done when it sits at
// expected+1 and applied recognises it as ours.
func (r *AssessmentsRepo) patchVersioned(ctx context.Context, id string, expectedVersion int, body any, applied func(*domain.Assessment) bool) error {
	var out []assessmentRow
	params := map[string]string{"id": eq(id), "version": eq(strconv.Itoa(expectedVersion))}
	sent, err := r.c.patchRows(ctx, "assessments", params, body, &out)
	if err != nil {
		return err
	}
	if len(out) > 0 {
		return nil
	}
	if sent > 1 {
		cur, err := r.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("assessment %s: confirm retried update: %w", id, err)
		}
		if cur.Version == expectedVersion+1 && applied(cur) {
			r.c.logger.Info("Retried assessment update had already been applied",
				zap.String("assessment_id", id), zap.Int("version", cur.Version))
			return nil
		}
	}
	return fmt.Errorf("assessment %s not at version %d: %w", id, expectedVersion, domain.ErrVersionConflict)
}

// HistoryRepo approval_history over the hosted backend.
type HistoryRepo struct {
	c *Client
}

func NewHistoryRepo(c *Client) *HistoryRepo { return &HistoryRepo{c: c} }

var _ repository.HistoryRepository = (*HistoryRepo)(nil)

func (r *HistoryRepo) Append(ctx context.Context, h *domain.ApprovalHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	return r.c.insertRows(ctx, "approval_history", []historyRow{newHistoryRow(*h)}, nil)
}

func (r *HistoryRepo) ListByAssessment(ctx context.Context, assessmentID string) ([]domain.ApprovalHistory, error) {
	var rows []historyRow
	params := map[string]string{"assessment_id": eq(assessmentID), "order": "created_at.asc,seq.asc"}
	if err := r.c.selectRows(ctx, "approval_history", params, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.ApprovalHistory, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// isConflict HTTP 409 or a unique violation.
func isConflict(err error) bool {
	var se *resilience.StatusError
	return errors.As(err, &se) && (se.StatusCode == http.StatusConflict || se.Code == "23505")
}
