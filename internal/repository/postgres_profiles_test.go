package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctam-data/internal/domain"
)

func TestPostgresProfiles_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresProfilesRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "phone", "role", "is_active", "hospital_id", "province_id", "health_region_id", "health_office_id"}).
		AddRow("p-1", "it@h1.go.th", "Somchai", "0812345678", "hospital_it", true, "h-1", "", "", "")
	mock.ExpectQuery(`FROM profiles\s+WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("IT@h1.go.th").
		WillReturnRows(rows)

	p, err := repo.GetByEmail(context.Background(), "IT@h1.go.th")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHospitalIT, p.Role)
	assert.True(t, p.IsActive)
	assert.Equal(t, "h-1", p.HospitalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfiles_UnknownRoleRejected(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresProfilesRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "phone", "role", "is_active", "hospital_id", "province_id", "health_region_id", "health_office_id"}).
		AddRow("p-9", "x@h1.go.th", "X", "", "superuser", true, "", "", "", "")
	mock.ExpectQuery(`FROM profiles\s+WHERE id = \$1::uuid`).WithArgs("p-9").WillReturnRows(rows)

	_, err := repo.Get(context.Background(), "p-9")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "invalid role")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfiles_UpdateContactMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresProfilesRepository(db)

	mock.ExpectExec(`UPDATE profiles`).
		WithArgs("", "0812345678", "p-x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateContact(context.Background(), "p-x", "", "0812345678")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCredentials_CreateDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresCredentialsRepository(db)

	mock.ExpectExec(`INSERT INTO credentials`).WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.Create(context.Background(), &domain.Credential{ProfileID: "p-1", Email: "00001@ctam.moph.go.th", PasswordHash: "x"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrganizations_ListHealthOfficesByRegion(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresOrganizationsRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "province_id", "health_region_id"}).
		AddRow("o-1", "00001", "สสจ.เชียงใหม่", "pv-1", "r-1").
		AddRow("o-2", "00002", "ศูนย์อนามัยที่ 1", "", "r-1")
	mock.ExpectQuery(`FROM health_offices\s+WHERE health_region_id = \$1::uuid ORDER BY code`).
		WithArgs("r-1").
		WillReturnRows(rows)

	list, err := repo.ListHealthOffices(context.Background(), "r-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "", list[1].ProvinceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresReportPolicies_GetNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresReportPoliciesRepository(db)

	mock.ExpectQuery(`FROM report_access_policies`).
		WithArgs("provincial", domain.ReportScores).
		WillReturnRows(sqlmock.NewRows([]string{"role", "report_type", "province_drill", "hospital_drill"}))

	_, err := repo.Get(context.Background(), domain.RoleProvincial, domain.ReportScores)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
