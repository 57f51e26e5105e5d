package middleware

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/folioworks/portfolio/internal/domain"
	"github.com/folioworks/portfolio/internal/present/rest/presenter"
	"github.com/folioworks/portfolio/internal/service"
)

var tracer = otel.Tracer("auth")

// paths reachable without a site session
var excludedPrefixes = []string{
	"/login",
	"/api/auth",
	"/healthz",
	"/favicon.ico",
}

var staticExtensions = map[string]bool{
	".ico":   true,
	".png":   true,
	".jpg":   true,
	".jpeg":  true,
	".gif":   true,
	".svg":   true,
	".css":   true,
	".js":    true,
	".woff":  true,
	".woff2": true,
	".ttf":   true,
	".eot":   true,
}

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

func isExcluded(p string) bool {
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return staticExtensions[strings.ToLower(path.Ext(p))]
}

func isAPI(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SiteGate requires a valid site session for every page and API call once a
// site password is configured. Pages redirect to the login form, API calls
// get a 401.
func (m *AuthMiddleware) SiteGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.SiteGate")
		defer span.End()

		p := c.Request().URL.Path
		if !m.auth.PasswordRequired(domain.ScopeSite) || isExcluded(p) {
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}

		if !m.auth.Verify(ctx, domain.ScopeSite, cookieValue(c, domain.SiteCookieName)) {
			span.SetAttributes(attribute.Bool("denied", true))
			if isAPI(p) {
				return presenter.Unauthorized(c, "Unauthorized")
			}
			return c.Redirect(http.StatusFound, "/login?from="+url.QueryEscape(p))
		}

		ctx = context.WithValue(ctx, domain.RequesterScopeCtxKey, domain.ScopeSite)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// AdminGate requires a valid admin session.
func (m *AuthMiddleware) AdminGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.AdminGate")
		defer span.End()

		if !m.auth.Verify(ctx, domain.ScopeAdmin, cookieValue(c, domain.AdminCookieName)) {
			span.SetAttributes(attribute.Bool("denied", true))
			return presenter.Unauthorized(c, "Unauthorized")
		}

		ctx = context.WithValue(ctx, domain.RequesterScopeCtxKey, domain.ScopeAdmin)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
