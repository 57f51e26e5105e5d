package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/folioworks/portfolio/internal/domain"
	"github.com/folioworks/portfolio/internal/ratelimit"
	"github.com/folioworks/portfolio/internal/token"
)

var tracer = otel.Tracer("auth")

// ErrInvalidPassword is returned for every failed credential check,
// including an admin login with no admin password configured.
var ErrInvalidPassword = errors.New("invalid password")

// RateLimitedError reports that a client exhausted its attempts.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %d seconds", e.RetryAfterSeconds)
}

type AuthService struct {
	config  domain.Config
	codec   *token.Codec
	limiter *ratelimit.Limiter
}

func NewAuthService(
	config domain.Config,
	codec *token.Codec,
	limiter *ratelimit.Limiter,
) *AuthService {
	return &AuthService{
		config:  config,
		codec:   codec,
		limiter: limiter,
	}
}

type AuthStatus struct {
	Authenticated    bool `json:"authenticated"`
	PasswordRequired bool `json:"passwordRequired"`
}

func (s *AuthService) password(scope domain.Scope) string {
	if scope == domain.ScopeAdmin {
		return s.config.AdminPassword
	}
	return s.config.SitePassword
}

// PasswordRequired reports whether the scope is protected. The admin scope
// is always protected.
func (s *AuthService) PasswordRequired(scope domain.Scope) bool {
	if scope == domain.ScopeAdmin {
		return true
	}
	return s.config.SitePassword != ""
}

// Login checks the rate limit for clientKey in scope and then the password.
func (s *AuthService) Login(ctx context.Context, scope domain.Scope, password, clientKey string) error {
	ctx, span := tracer.Start(ctx, "Auth.Service.Login")
	defer span.End()
	span.SetAttributes(attribute.String("scope", scope.String()))

	if !scope.Valid() {
		err := fmt.Errorf("unknown scope %q", scope)
		span.RecordError(err)
		return err
	}

	result, err := s.limiter.Check(ctx, scope.String()+":"+clientKey)
	if err != nil {
		// a broken store must not lock everybody out
		span.RecordError(errors.Wrap(err, "rate limit check failed"))
		slog.WarnContext(
			ctx,
			"rate limit check failed, allowing attempt",
			slog.String("error", err.Error()),
			slog.String("module", "auth"),
		)
	} else if !result.Allowed {
		span.SetAttributes(attribute.Int("retryAfter", result.RetryAfterSeconds))
		return &RateLimitedError{RetryAfterSeconds: result.RetryAfterSeconds}
	}

	configured := s.password(scope)
	if configured == "" {
		if scope == domain.ScopeSite {
			return nil
		}
		span.RecordError(fmt.Errorf("admin password is not configured"))
		return ErrInvalidPassword
	}

	if !token.CheckPassword(password, configured) {
		return ErrInvalidPassword
	}

	return nil
}

// IssueToken returns a fresh session token for scope.
func (s *AuthService) IssueToken(scope domain.Scope) (string, error) {
	t, err := s.codec.Issue(scope)
	if err != nil {
		return "", errors.Wrap(err, "issue token")
	}
	return t, nil
}

// Verify reports whether tok grants access to scope.
func (s *AuthService) Verify(ctx context.Context, scope domain.Scope, tok string) bool {
	_, span := tracer.Start(ctx, "Auth.Service.Verify")
	defer span.End()
	span.SetAttributes(attribute.String("scope", scope.String()))

	if tok == "" {
		return false
	}
	return s.codec.Verify(tok, scope)
}

// Status reports the site access state for a request carrying tok.
func (s *AuthService) Status(ctx context.Context, tok string) AuthStatus {
	if !s.PasswordRequired(domain.ScopeSite) {
		return AuthStatus{Authenticated: true, PasswordRequired: false}
	}
	return AuthStatus{
		Authenticated:    s.Verify(ctx, domain.ScopeSite, tok),
		PasswordRequired: true,
	}
}

// ResetAttempts clears the limiter entry for key.
func (s *AuthService) ResetAttempts(ctx context.Context, key string) error {
	err := s.limiter.Reset(ctx, key)
	if err != nil {
		return errors.Wrap(err, "reset attempts")
	}
	return nil
}
