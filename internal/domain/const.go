package domain

import "time"

// Scope binds a token to one of the independent authentication domains.
type Scope string

const (
	ScopeSite  Scope = "site"
	ScopeAdmin Scope = "admin"
)

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	return s == ScopeSite || s == ScopeAdmin
}

func (s Scope) String() string {
	return string(s)
}

const (
	SiteCookieName  = "site_auth"
	AdminCookieName = "admin_session"
)

const (
	SiteSessionMaxAge  = 7 * 24 * time.Hour
	AdminSessionMaxAge = 24 * time.Hour
)

// CookieName returns the cookie carrying tokens for the scope.
func CookieName(s Scope) string {
	if s == ScopeAdmin {
		return AdminCookieName
	}
	return SiteCookieName
}

// SessionMaxAge returns the cookie lifetime for the scope.
func SessionMaxAge(s Scope) time.Duration {
	if s == ScopeAdmin {
		return AdminSessionMaxAge
	}
	return SiteSessionMaxAge
}

// RequesterScopeCtxKey holds the scope a request was authenticated for.
const RequesterScopeCtxKey = "pf-requesterScope"

const (
	EventContentCreated = "content.created"
	EventContentUpdated = "content.updated"
	EventContentDeleted = "content.deleted"
)
