// Package backend talks to the hosted PostgREST-style backend (/rest/v1 for
// tables, /auth/v1 for sessions) and implements the repository interfaces on
// top of it. Every call runs through a resilience.Retrier.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"ctam-data/internal/resilience"
)

// DefaultRefreshBefore tokens closer than this to expiry are refreshed first.
const DefaultRefreshBefore = 60 * time.Second

type Config struct {
	BaseURL       string
	AnonKey       string
	Email         string
	Password      string
	Timeout       time.Duration
	RefreshBefore time.Duration
}

// ErrUnauthorized the backend rejected the service credentials.
var ErrUnauthorized = errors.New("backend rejected credentials")

// Client bearer-session REST client.
type Client struct {
	http    *resty.Client
	cfg     Config
	retrier *resilience.Retrier
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	session *session
}

type session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// apiError PostgREST / auth error body.
type apiError struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	Details          string `json:"details"`
	Hint             string `json:"hint"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewClient resty retries stay off; retrier owns the retry policy.
func NewClient(cfg Config, retrier *resilience.Retrier, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RefreshBefore <= 0 {
		cfg.RefreshBefore = DefaultRefreshBefore
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = resilience.NewRetrier(resilience.DefaultPolicy, nil, logger)
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", cfg.AnonKey)

	return &Client{
		http:    httpClient,
		cfg:     cfg,
		retrier: retrier,
		logger:  logger,
		now:     time.Now,
	}
}

// Retrier shared with callers that want the breaker state.
func (c *Client) Retrier() *resilience.Retrier { return c.retrier }

// accessToken returns a bearer token valid for at least RefreshBefore,
// signing in or refreshing as needed.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.session.ExpiresAt.Sub(c.now()) > c.cfg.RefreshBefore {
		return c.session.AccessToken, nil
	}

	if c.session != nil && c.session.RefreshToken != "" {
		s, err := c.requestToken(ctx, "refresh_token", map[string]string{"refresh_token": c.session.RefreshToken})
		if err == nil {
			c.session = s
			return s.AccessToken, nil
		}
		if resilience.IsTransient(err) {
			return "", err
		}
		c.logger.Warn("Backend token refresh failed, signing in again", zap.Error(err))
	}

	s, err := c.requestToken(ctx, "password", map[string]string{"email": c.cfg.Email, "password": c.cfg.Password})
	if err != nil {
		c.session = nil
		return "", err
	}
	c.session = s
	return s.AccessToken, nil
}

func (c *Client) requestToken(ctx context.Context, grant string, body map[string]string) (*session, error) {
	var tr tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", grant).
		SetBody(body).
		SetResult(&tr).
		Post("/auth/v1/token")
	if err != nil {
		return nil, fmt.Errorf("backend token request: %w", err)
	}
	if resp.IsError() {
		se := statusError(resp)
		if resp.StatusCode() == http.StatusBadRequest || resp.StatusCode() == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, se)
		}
		return nil, se
	}
	return &session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    c.tokenExpiry(tr),
	}, nil
}

// tokenExpiry prefers the JWT exp claim; falls back to expires_in.
func (c *Client) tokenExpiry(tr tokenResponse) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
}

// invalidate drops the cached session so the next call signs in again.
func (c *Client) invalidate() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// do runs one authenticated request under the retrier. build fills the
// request and issues it.
func (c *Client) do(ctx context.Context, op string, build func(*resty.Request) (*resty.Response, error)) error {
	return c.retrier.Do(ctx, op, func(ctx context.Context) error {
		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}
		resp, err := build(c.http.R().SetContext(ctx).SetAuthToken(token))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if resp.IsError() {
			if resp.StatusCode() == http.StatusUnauthorized {
				c.invalidate()
			}
			return statusError(resp)
		}
		return nil
	})
}

func statusError(resp *resty.Response) *resilience.StatusError {
	se := &resilience.StatusError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	var body apiError
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		se.Code = body.Code
		switch {
		case body.Message != "":
			se.Message = body.Message
		case body.ErrorDescription != "":
			se.Message = body.ErrorDescription
		case body.Error != "":
			se.Message = body.Error
		}
	}
	return se
}
