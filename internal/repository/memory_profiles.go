package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ctam-data/internal/domain"
)

// MemoryProfilesRepo profiles when DB is disabled. Emails compare case-insensitively.
type MemoryProfilesRepo struct {
	mu   sync.RWMutex
	rows map[string]domain.Profile
}

func NewMemoryProfilesRepo(seed ...domain.Profile) *MemoryProfilesRepo {
	r := &MemoryProfilesRepo{rows: map[string]domain.Profile{}}
	for _, p := range seed {
		r.rows[p.ID] = p
	}
	return r
}

var _ ProfilesRepository = (*MemoryProfilesRepo)(nil)

func (r *MemoryProfilesRepo) Get(_ context.Context, id string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (r *MemoryProfilesRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if strings.EqualFold(p.Email, email) {
			p := p
			return &p, nil
		}
	}
	return nil, fmt.Errorf("profile %s: %w", email, domain.ErrNotFound)
}

func (r *MemoryProfilesRepo) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.rows {
		if strings.EqualFold(x.Email, p.Email) {
			return fmt.Errorf("profile %s: %w", p.Email, domain.ErrAlreadyExists)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *MemoryProfilesRepo) UpdateContact(_ context.Context, id, fullName, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if fullName != "" {
		p.FullName = fullName
	}
	p.Phone = phone
	r.rows[id] = p
	return nil
}

// MemoryCredentialsRepo credentials keyed by lower-cased email.
type MemoryCredentialsRepo struct {
	mu   sync.RWMutex
	rows map[string]domain.Credential
}

func NewMemoryCredentialsRepo() *MemoryCredentialsRepo {
	return &MemoryCredentialsRepo{rows: map[string]domain.Credential{}}
}

var _ CredentialsRepository = (*MemoryCredentialsRepo)(nil)

func (r *MemoryCredentialsRepo) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.rows[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("credential %s: %w", email, domain.ErrNotFound)
	}
	return &c, nil
}

func (r *MemoryCredentialsRepo) Create(_ context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(c.Email)
	if _, ok := r.rows[key]; ok {
		return fmt.Errorf("credential %s: %w", c.Email, domain.ErrAlreadyExists)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.rows[key] = *c
	return nil
}

func (r *MemoryCredentialsRepo) UpdatePassword(_ context.Context, profileID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, c := range r.rows {
		if c.ProfileID == profileID {
			c.PasswordHash = passwordHash
			r.rows[k] = c
			return nil
		}
	}
	return fmt.Errorf("credential for profile %s: %w", profileID, domain.ErrNotFound)
}
