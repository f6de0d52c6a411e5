package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ctam-data/internal/domain"
)

// PostgresAssessmentsRepository assessments + approval_history on PostgreSQL.
type PostgresAssessmentsRepository struct {
	db *sql.DB
}

func NewPostgresAssessmentsRepository(db *sql.DB) *PostgresAssessmentsRepository {
	return &PostgresAssessmentsRepository{db: db}
}

var _ AssessmentsRepository = (*PostgresAssessmentsRepository)(nil)

// assessmentColumns select list matching scanAssessment.
var assessmentColumns = []string{
	"id::text",
	"COALESCE(hospital_id::text, '')",
	"COALESCE(health_office_id::text, '')",
	"fiscal_year",
	"period",
	"status",
	"quantitative_score",
	"qualitative_score",
	"impact_score",
	"total_score",
	"quantitative_approved_by::text",
	"quantitative_approved_at",
	"qualitative_approved_by::text",
	"qualitative_approved_at",
	"impact_approved_by::text",
	"impact_approved_at",
	"provincial_approved_by::text",
	"provincial_approved_at",
	"COALESCE(provincial_comment, '')",
	"regional_approved_by::text",
	"regional_approved_at",
	"COALESCE(regional_comment, '')",
	"COALESCE(submitted_by::text, '')",
	"submitted_at",
	"COALESCE(created_by::text, '')",
	"created_at",
	"updated_at",
	"version",
}

var selectAssessments = "SELECT " + strings.Join(assessmentColumns, ", ") + " FROM assessments"

func scanAssessment(row rowScanner) (*domain.Assessment, error) {
	var (
		a                             domain.Assessment
		status                        string
		qBy, qlBy, iBy, provBy, regBy sql.NullString
		qAt, qlAt, iAt, provAt, regAt sql.NullTime
		submittedAt                   sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.HospitalID, &a.HealthOfficeID, &a.FiscalYear, &a.Period, &status,
		&a.QuantitativeScore, &a.QualitativeScore, &a.ImpactScore, &a.TotalScore,
		&qBy, &qAt, &qlBy, &qlAt, &iBy, &iAt,
		&provBy, &provAt, &a.ProvincialApproval.Comment,
		&regBy, &regAt, &a.RegionalApproval.Comment,
		&a.SubmittedBy, &submittedAt,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt, &a.Version,
	)
	if err != nil {
		return nil, err
	}
	a.Status = domain.Status(status)
	a.QuantitativeApproval = domain.NewSectionStamp(qBy.String, timeOf(qAt))
	a.QualitativeApproval = domain.NewSectionStamp(qlBy.String, timeOf(qlAt))
	a.ImpactApproval = domain.NewSectionStamp(iBy.String, timeOf(iAt))
	a.ProvincialApproval.By, a.ProvincialApproval.At = provBy.String, timeOf(provAt)
	a.RegionalApproval.By, a.RegionalApproval.At = regBy.String, timeOf(regAt)
	a.SubmittedAt = timeOf(submittedAt)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func (r *PostgresAssessmentsRepository) Create(ctx context.Context, a *domain.Assessment) error {
	if a.FacilityID() == "" {
		return fmt.Errorf("hospital_id or health_office_id is required")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = domain.StatusDraft
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	a.Version = 1

	query := `
		INSERT INTO assessments (
			id, hospital_id, health_office_id, fiscal_year, period, status,
			quantitative_score, qualitative_score, impact_score, total_score,
			created_by, created_at, updated_at, version
		) VALUES (
			$1::uuid, $2::uuid, $3::uuid, $4, $5, $6,
			$7, $8, $9, $10,
			$11::uuid, $12, $12, 1
		)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, nullString(a.HospitalID), nullString(a.HealthOfficeID), a.FiscalYear, a.Period, string(a.Status),
		a.QuantitativeScore, a.QualitativeScore, a.ImpactScore, a.TotalScore,
		nullString(a.CreatedBy), a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assessment for %s %d/%s: %w", a.FacilityID(), a.FiscalYear, a.Period, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

func (r *PostgresAssessmentsRepository) Get(ctx context.Context, id string) (*domain.Assessment, error) {
	a, err := scanAssessment(r.db.QueryRowContext(ctx, selectAssessments+" WHERE id = $1::uuid", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

func (r *PostgresAssessmentsRepository) FindByFacilityPeriod(ctx context.Context, hospitalID, healthOfficeID string, fiscalYear int, period string) (*domain.Assessment, error) {
	var (
		query string
		arg   string
	)
	switch {
	case hospitalID != "":
		query, arg = selectAssessments+" WHERE hospital_id = $1::uuid AND fiscal_year = $2 AND period = $3", hospitalID
	case healthOfficeID != "":
		query, arg = selectAssessments+" WHERE health_office_id = $1::uuid AND fiscal_year = $2 AND period = $3", healthOfficeID
	default:
		return nil, fmt.Errorf("hospital_id or health_office_id is required")
	}

	a, err := scanAssessment(r.db.QueryRowContext(ctx, query, arg, fiscalYear, period))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("assessment for %s %d/%s: %w", arg, fiscalYear, period, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find assessment: %w", err)
	}
	return a, nil
}

func (r *PostgresAssessmentsRepository) List(ctx context.Context, filter AssessmentFilter) ([]*domain.Assessment, error) {
	where := []string{}
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.FiscalYear != 0 {
		add("fiscal_year = $%d", filter.FiscalYear)
	}
	if filter.Period != "" {
		add("period = $%d", filter.Period)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.HospitalID != "" {
		add("hospital_id = $%d::uuid", filter.HospitalID)
	}
	if filter.HealthOfficeID != "" {
		add("health_office_id = $%d::uuid", filter.HealthOfficeID)
	}

	query := selectAssessments
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY fiscal_year DESC, period ASC, created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	out := []*domain.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresAssessmentsRepository) UpdateScores(ctx context.Context, a *domain.Assessment, expectedVersion int) error {
	a.UpdatedAt = touch(a.UpdatedAt)
	res, err := r.db.ExecContext(ctx, `
		UPDATE assessments
		SET quantitative_score = $1, qualitative_score = $2, impact_score = $3, total_score = $4,
			updated_at = $5, version = version + 1
		WHERE id = $6::uuid AND version = $7
	`, a.QuantitativeScore, a.QualitativeScore, a.ImpactScore, a.TotalScore, a.UpdatedAt, a.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update assessment scores: %w", err)
	}
	if err := expectOneRow(res, a.ID, expectedVersion); err != nil {
		return err
	}
	a.Version = expectedVersion + 1
	return nil
}

func (r *PostgresAssessmentsRepository) SaveTransition(ctx context.Context, a *domain.Assessment, expectedVersion int, history []domain.ApprovalHistory) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	a.UpdatedAt = touch(a.UpdatedAt)
	s := func(st domain.SectionStamp) (any, any) { return nullString(st.By), nullTime(st.At) }
	qBy, qAt := s(a.QuantitativeApproval)
	qlBy, qlAt := s(a.QualitativeApproval)
	iBy, iAt := s(a.ImpactApproval)

	res, err := tx.ExecContext(ctx, `
		UPDATE assessments SET
			status = $1,
			quantitative_approved_by = $2::uuid, quantitative_approved_at = $3,
			qualitative_approved_by = $4::uuid, qualitative_approved_at = $5,
			impact_approved_by = $6::uuid, impact_approved_at = $7,
			provincial_approved_by = $8::uuid, provincial_approved_at = $9, provincial_comment = $10,
			regional_approved_by = $11::uuid, regional_approved_at = $12, regional_comment = $13,
			submitted_by = $14::uuid, submitted_at = $15,
			updated_at = $16, version = version + 1
		WHERE id = $17::uuid AND version = $18
	`,
		string(a.Status),
		qBy, qAt, qlBy, qlAt, iBy, iAt,
		nullString(a.ProvincialApproval.By), nullTime(a.ProvincialApproval.At), nullString(a.ProvincialApproval.Comment),
		nullString(a.RegionalApproval.By), nullTime(a.RegionalApproval.At), nullString(a.RegionalApproval.Comment),
		nullString(a.SubmittedBy), nullTime(a.SubmittedAt),
		a.UpdatedAt, a.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update assessment status: %w", err)
	}
	if err := expectOneRow(res, a.ID, expectedVersion); err != nil {
		return err
	}

	for i := range history {
		if err := insertHistory(ctx, tx, &history[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	a.Version = expectedVersion + 1
	return nil
}

// expectOneRow zero rows affected means the row moved past expectedVersion (or vanished).
func expectOneRow(res sql.Result, id string, expectedVersion int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("assessment %s not at version %d: %w", id, expectedVersion, domain.ErrVersionConflict)
	}
	return nil
}
