package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ctam-data/internal/domain"
)

// PostgresProfilesRepository profiles + credentials.
type PostgresProfilesRepository struct {
	db *sql.DB
}

func NewPostgresProfilesRepository(db *sql.DB) *PostgresProfilesRepository {
	return &PostgresProfilesRepository{db: db}
}

var (
	_ ProfilesRepository    = (*PostgresProfilesRepository)(nil)
	_ CredentialsRepository = (*PostgresCredentialsRepository)(nil)
)

const selectProfiles = `
	SELECT id::text, email, full_name, COALESCE(phone, ''), role, is_active,
		COALESCE(hospital_id::text, ''), COALESCE(province_id::text, ''),
		COALESCE(health_region_id::text, ''), COALESCE(health_office_id::text, '')
	FROM profiles
`

var _ ProfilesRepository = (*PostgresProfilesRepository)(nil)

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var p domain.Profile
	var role string
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &role, &p.IsActive,
		&p.HospitalID, &p.ProvinceID, &p.HealthRegionID, &p.HealthOfficeID); err != nil {
		return nil, err
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	p.Role = r
	return &p, nil
}

func (r *PostgresProfilesRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, selectProfiles+" WHERE id = $1::uuid", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (r *PostgresProfilesRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, selectProfiles+" WHERE lower(email) = lower($1)", email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile %s: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return p, nil
}

func (r *PostgresProfilesRepository) Create(ctx context.Context, p *domain.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, phone, role, is_active,
			hospital_id, province_id, health_region_id, health_office_id)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7::uuid, $8::uuid, $9::uuid, $10::uuid)
	`, p.ID, p.Email, p.FullName, nullString(p.Phone), string(p.Role), p.IsActive,
		nullString(p.HospitalID), nullString(p.ProvinceID), nullString(p.HealthRegionID), nullString(p.HealthOfficeID))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("profile %s: %w", p.Email, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *PostgresProfilesRepository) UpdateContact(ctx context.Context, id, fullName, phone string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET full_name = COALESCE(NULLIF($1, ''), full_name), phone = $2
		WHERE id = $3::uuid
	`, fullName, nullString(phone), id)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

type PostgresCredentialsRepository struct {
	db *sql.DB
}

func NewPostgresCredentialsRepository(db *sql.DB) *PostgresCredentialsRepository {
	return &PostgresCredentialsRepository{db: db}
}

var _ CredentialsRepository = (*PostgresCredentialsRepository)(nil)

func (r *PostgresCredentialsRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	var c domain.Credential
	err := r.db.QueryRowContext(ctx, `
		SELECT profile_id::text, email, password_hash, created_at
		FROM credentials
		WHERE lower(email) = lower($1)
	`, email).Scan(&c.ProfileID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("credential %s: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &c, nil
}

func (r *PostgresCredentialsRepository) Create(ctx context.Context, c *domain.Credential) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (profile_id, email, password_hash, created_at)
		VALUES ($1::uuid, $2, $3, $4)
	`, c.ProfileID, c.Email, c.PasswordHash, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("credential %s: %w", c.Email, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (r *PostgresCredentialsRepository) UpdatePassword(ctx context.Context, profileID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE credentials SET password_hash = $1 WHERE profile_id = $2::uuid`, passwordHash, profileID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("credential for profile %s: %w", profileID, domain.ErrNotFound)
	}
	return nil
}
