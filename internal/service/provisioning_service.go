package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ctam-data/internal/domain"
	"ctam-data/internal/repository"
	"ctam-data/internal/workflow"
)

// ProvisioningService batch creation of health-office logins.
type ProvisioningService interface {
	ProvisionHealthOffices(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error)
}

type ProvisionRequest struct {
	CallerID string `json:"-" validate:"required"`
	RegionID string `json:"region_id" validate:"required"`
}

type ProvisionFailure struct {
	OfficeID string `json:"office_id"`
	Code     string `json:"code"`
	Error    string `json:"error"`
}

// ProvisionResult one entry per office in the region.
type ProvisionResult struct {
	Created []string           `json:"created"` // emails
	Skipped []string           `json:"skipped"`
	Failed  []ProvisionFailure `json:"failed"`
}

type provisioningService struct {
	profiles    repository.ProfilesRepository
	creds       repository.CredentialsRepository
	orgs        repository.OrganizationsRepository
	emailDomain string
	bcryptCost  int
	logger      *zap.Logger
	now         func() time.Time
}

func NewProvisioningService(
	profiles repository.ProfilesRepository,
	creds repository.CredentialsRepository,
	orgs repository.OrganizationsRepository,
	emailDomain string,
	logger *zap.Logger,
) ProvisioningService {
	return &provisioningService{
		profiles:    profiles,
		creds:       creds,
		orgs:        orgs,
		emailDomain: strings.TrimPrefix(strings.TrimSpace(emailDomain), "@"),
		bcryptCost:  bcrypt.DefaultCost,
		logger:      logger,
		now:         time.Now,
	}
}

// ProvisionHealthOffices the caller's role is read from the repository, never
// from the request. Offices that already have a credential are skipped; the
// initial password is the office code.
func (s *provisioningService) ProvisionHealthOffices(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	if err := validateStruct(newValidator(), req); err != nil {
		return nil, err
	}
	if s.emailDomain == "" {
		return nil, fmt.Errorf("%w: provisioning email domain is not configured", ErrValidation)
	}
	caller, err := s.profiles.Get(ctx, req.CallerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown caller", workflow.ErrForbidden)
		}
		return nil, err
	}
	if !caller.IsActive || caller.Role != domain.RoleCentralAdmin {
		s.logger.Warn("Provisioning rejected",
			zap.String("profile_id", caller.ID),
			zap.String("role", string(caller.Role)),
		)
		return nil, fmt.Errorf("%w: only %s may provision accounts", workflow.ErrForbidden, domain.RoleCentralAdmin)
	}

	offices, err := s.orgs.ListHealthOffices(ctx, req.RegionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list health offices: %w", err)
	}

	res := &ProvisionResult{Created: []string{}, Skipped: []string{}, Failed: []ProvisionFailure{}}
	for _, o := range offices {
		email, err := s.provisionOne(ctx, o)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			res.Skipped = append(res.Skipped, email)
		case err != nil:
			s.logger.Warn("Failed to provision health office",
				zap.String("office_id", o.ID),
				zap.String("code", o.Code),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, ProvisionFailure{OfficeID: o.ID, Code: o.Code, Error: err.Error()})
		default:
			res.Created = append(res.Created, email)
		}
	}

	s.logger.Info("Health offices provisioned",
		zap.String("region_id", req.RegionID),
		zap.String("caller_id", caller.ID),
		zap.Int("created", len(res.Created)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

// provisionOne returns domain.ErrAlreadyExists when a credential exists. A
// profile left behind by an earlier partial run is reused.
func (s *provisioningService) provisionOne(ctx context.Context, o domain.HealthOffice) (string, error) {
	code := strings.TrimSpace(o.Code)
	if code == "" {
		return "", errors.New("office has no code")
	}
	email := strings.ToLower(code) + "@" + s.emailDomain

	if _, err := s.creds.GetByEmail(ctx, email); err == nil {
		return email, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return email, err
	}

	p, err := s.profiles.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		p = &domain.Profile{
			Email:          email,
			FullName:       o.Name,
			Role:           domain.RoleHealthOffice,
			IsActive:       true,
			HealthOfficeID: o.ID,
			ProvinceID:     o.ProvinceID,
			HealthRegionID: o.HealthRegionID,
		}
		err = s.profiles.Create(ctx, p)
	}
	if err != nil {
		return email, fmt.Errorf("profile: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return email, fmt.Errorf("hash password: %w", err)
	}
	err = s.creds.Create(ctx, &domain.Credential{
		ProfileID:    p.ID,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return email, fmt.Errorf("credential: %w", err)
	}
	return email, err
}
