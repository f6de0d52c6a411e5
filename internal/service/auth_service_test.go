package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ctam-data/internal/domain"
	"ctam-data/internal/store"
)

func newTestAuth(t *testing.T) (*testEnv, *authService, *store.MemoryKV) {
	t.Helper()
	env := newTestEnv(t)
	env.addCredential(t, facilityIT, "s3cret-pass")
	kv := store.NewMemoryKV()
	svc := NewAuthService(env.profiles, env.creds, kv, AuthConfig{
		Secret:     []byte("test-secret"),
		Issuer:     "ctam-data",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, env.logger).(*authService)
	return env, svc, kv
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	_, svc, _ := newTestAuth(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: "  IT@H1.go.th ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.True(t, strings.HasPrefix(resp.RefreshToken, facilityIT.ID+"."))
	assert.Equal(t, facilityIT.ID, resp.Profile.ID)

	p, err := svc.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHospitalIT, p.Role)

	_, err = svc.Authenticate(ctx, resp.AccessToken+"x")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Authenticate(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthService_LoginFailures(t *testing.T) {
	env, svc, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginRequest{Email: "it@h1.go.th", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@h1.go.th", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	inactive := &domain.Profile{ID: "u-off", Email: "off@h1.go.th", Role: domain.RoleHospitalIT, HospitalID: "h1"}
	require.NoError(t, env.profiles.Create(ctx, inactive))
	env.addCredential(t, inactive, "s3cret-pass")
	_, err = svc.Login(ctx, LoginRequest{Email: inactive.Email, Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInactive)
}

func TestAuthService_RefreshRotatesAndLogoutRevokes(t *testing.T) {
	_, svc, _ := newTestAuth(t)
	ctx := context.Background()
	first, err := svc.Login(ctx, LoginRequest{Email: facilityIT.Email, Password: "s3cret-pass"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated, "refresh tokens are single use")

	require.NoError(t, svc.Logout(ctx, second.RefreshToken))
	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthService_ChangePasswordRevokesSessions(t *testing.T) {
	_, svc, _ := newTestAuth(t)
	ctx := context.Background()
	a, err := svc.Login(ctx, LoginRequest{Email: facilityIT.Email, Password: "s3cret-pass"})
	require.NoError(t, err)
	b, err := svc.Login(ctx, LoginRequest{Email: facilityIT.Email, Password: "s3cret-pass"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, ChangePasswordRequest{ProfileID: facilityIT.ID, OldPassword: "s3cret-pass", NewPassword: "short"})
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.ChangePassword(ctx, ChangePasswordRequest{ProfileID: facilityIT.ID, OldPassword: "nope-nope", NewPassword: "much-longer-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, ChangePasswordRequest{ProfileID: facilityIT.ID, OldPassword: "s3cret-pass", NewPassword: "much-longer-pass"}))

	for _, tok := range []string{a.RefreshToken, b.RefreshToken} {
		_, err = svc.Refresh(ctx, tok)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}
	_, err = svc.Login(ctx, LoginRequest{Email: facilityIT.Email, Password: "much-longer-pass"})
	assert.NoError(t, err)
}

func TestAuthService_UpdateContact(t *testing.T) {
	_, svc, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := svc.UpdateContact(ctx, UpdateContactRequest{ProfileID: facilityIT.ID, Phone: "0212345678"})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := svc.UpdateContact(ctx, UpdateContactRequest{ProfileID: facilityIT.ID, FullName: " สมชาย ใจดี ", Phone: "081-234-5678"})
	require.NoError(t, err)
	assert.Equal(t, "0812345678", p.Phone)
	assert.Equal(t, "สมชาย ใจดี", p.FullName)
}
