package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ctam-data/internal/domain"
	"ctam-data/internal/repository"
	"ctam-data/internal/store"
)

// sessionKeyPrefix refresh sessions live at ctam:session:<profile_id>:<sha256(secret)>;
// the secret itself is never stored.
const sessionKeyPrefix = "ctam:session:"

// AuthService login sessions and profile self-service.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	// Refresh rotates the refresh token; the presented one is consumed.
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	// Authenticate verifies a bearer access token and returns the active profile.
	Authenticate(ctx context.Context, accessToken string) (*domain.Profile, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	UpdateContact(ctx context.Context, req UpdateContactRequest) (*domain.Profile, error)
}

// AuthConfig token settings.
type AuthConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

type authService struct {
	profiles repository.ProfilesRepository
	creds    repository.CredentialsRepository
	sessions store.KV
	cfg      AuthConfig
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(profiles repository.ProfilesRepository, creds repository.CredentialsRepository, sessions store.KV, cfg AuthConfig, logger *zap.Logger) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		profiles: profiles,
		creds:    creds,
		sessions: sessions,
		cfg:      cfg,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// AccessClaims claims of an issued access token; Subject is the profile id.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    time.Time       `json:"expires_at"`
	Profile      *domain.Profile `json:"profile"`
}

type ChangePasswordRequest struct {
	ProfileID   string `json:"-" validate:"required"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type UpdateContactRequest struct {
	ProfileID string `json:"-" validate:"required"`
	FullName  string `json:"full_name" validate:"max=200"`
	Phone     string `json:"phone" validate:"required,thmobile"`
}

// HashPassword bcrypt with the default cost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	cred, err := s.creds.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("User login failed: unknown email",
				zap.String("ip_address", req.IPAddress),
				zap.String("reason", "invalid_credentials"),
			)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("User login failed: wrong password",
			zap.String("profile_id", cred.ProfileID),
			zap.String("ip_address", req.IPAddress),
			zap.String("reason", "invalid_credentials"),
		)
		return nil, ErrInvalidCredentials
	}

	p, err := s.profiles.Get(ctx, cred.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !p.IsActive {
		s.logger.Warn("User login failed: account not active",
			zap.String("profile_id", p.ID),
			zap.String("reason", "account_not_active"),
		)
		return nil, ErrInactive
	}

	resp, err := s.issue(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User logged in", zap.String("profile_id", p.ID), zap.String("role", string(p.Role)))
	return resp, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	key, profileID, ok := sessionKey(refreshToken)
	if !ok {
		return nil, ErrUnauthenticated
	}
	// Rotation: a refresh token is good for exactly one exchange.
	if _, err := s.sessions.Take(ctx, key); err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to consume session: %w", err)
	}

	p, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !p.IsActive {
		return nil, ErrInactive
	}
	return s.issue(ctx, p)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	key, _, ok := sessionKey(refreshToken)
	if !ok {
		return nil
	}
	return s.sessions.Delete(ctx, key)
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*domain.Profile, error) {
	claims := &AccessClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now)}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, opts...)
	if err != nil || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	p, err := s.profiles.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !p.IsActive {
		return nil, ErrInactive
	}
	return p, nil
}

func (s *authService) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if err := validateStruct(s.validate, req); err != nil {
		return err
	}
	p, err := s.profiles.Get(ctx, req.ProfileID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	cred, err := s.creds.GetByEmail(ctx, p.Email)
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.OldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.creds.UpdatePassword(ctx, p.ID, string(hash)); err != nil {
		return err
	}

	// other devices must log in again
	keys, err := s.sessions.ScanKeys(ctx, sessionKeyPrefix+p.ID+":*")
	if err != nil {
		s.logger.Warn("Failed to list sessions for revocation", zap.String("profile_id", p.ID), zap.Error(err))
		return nil
	}
	for _, k := range keys {
		if err := s.sessions.Delete(ctx, k); err != nil {
			s.logger.Warn("Failed to revoke session", zap.String("profile_id", p.ID), zap.Error(err))
		}
	}
	s.logger.Info("Password changed", zap.String("profile_id", p.ID), zap.Int("revoked_sessions", len(keys)))
	return nil
}

func (s *authService) UpdateContact(ctx context.Context, req UpdateContactRequest) (*domain.Profile, error) {
	req.Phone = strings.TrimSpace(strings.ReplaceAll(req.Phone, "-", ""))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if err := s.profiles.UpdateContact(ctx, req.ProfileID, req.FullName, req.Phone); err != nil {
		return nil, err
	}
	return s.profiles.Get(ctx, req.ProfileID)
}

// issue signs an access token and stores a fresh refresh session.
func (s *authService) issue(ctx context.Context, p *domain.Profile) (*LoginResponse, error) {
	now := s.now()
	exp := now.Add(s.cfg.AccessTTL)
	claims := AccessClaims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refresh := p.ID + "." + hex.EncodeToString(secret)
	key, _, _ := sessionKey(refresh)
	if err := s.sessions.Set(ctx, key, p.ID, s.cfg.RefreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &LoginResponse{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp, Profile: p}, nil
}

// sessionKey refresh tokens are "<profile_id>.<hex secret>".
func sessionKey(refreshToken string) (key, profileID string, ok bool) {
	id, secret, found := strings.Cut(strings.TrimSpace(refreshToken), ".")
	if !found || id == "" || secret == "" {
		return "", "", false
	}
	sum := sha256.Sum256([]byte(secret))
	return sessionKeyPrefix + id + ":" + hex.EncodeToString(sum[:]), id, true
}
