// Package token issues and verifies scoped session tokens.
//
// A token is four dot separated fields:
//
//	scope.nonce.issuedAtMillis.signature
//
// where signature is the hex HMAC-SHA256 of the first three fields.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/folioworks/portfolio/internal/domain"
)

const (
	delimiter  = "."
	nonceBytes = 16
	// tokens issued slightly in the future are tolerated to absorb clock drift
	clockSkew = time.Minute
)

// Codec signs and checks tokens with a single process-wide secret.
type Codec struct {
	secret []byte
	now    func() time.Time
	rand   io.Reader
	maxAge map[domain.Scope]time.Duration
}

type Option func(*Codec)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithRand overrides the nonce source.
func WithRand(r io.Reader) Option {
	return func(c *Codec) { c.rand = r }
}

// WithMaxAge rejects tokens of the scope older than d.
func WithMaxAge(scope domain.Scope, d time.Duration) Option {
	return func(c *Codec) { c.maxAge[scope] = d }
}

func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is empty")
	}
	c := &Codec{
		secret: []byte(secret),
		now:    time.Now,
		rand:   rand.Reader,
		maxAge: map[domain.Scope]time.Duration{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateSecret returns a random hex secret for processes started without one.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", errors.Wrap(err, "generate secret")
	}
	return hex.EncodeToString(buf), nil
}

// Issue creates a new token for scope.
func (c *Codec) Issue(scope domain.Scope) (string, error) {
	if !scope.Valid() {
		return "", fmt.Errorf("unknown scope %q", scope)
	}

	nonce := make([]byte, nonceBytes)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", errors.Wrap(err, "Codec.Issue: read nonce")
	}

	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	payload := strings.Join([]string{scope.String(), hex.EncodeToString(nonce), timestamp}, delimiter)

	return payload + delimiter + c.sign(payload), nil
}

// Verify reports whether token was issued by this codec for expectedScope.
func (c *Codec) Verify(token string, expectedScope domain.Scope) bool {
	return c.validate(token, expectedScope) == nil
}

func (c *Codec) validate(token string, expectedScope domain.Scope) error {
	split := strings.Split(token, delimiter)
	if len(split) != 4 {
		return fmt.Errorf("invalid token format")
	}

	scope, nonce, timestamp, signature := split[0], split[1], split[2], split[3]
	if scope == "" || nonce == "" || timestamp == "" || signature == "" {
		return fmt.Errorf("empty token field")
	}

	if domain.Scope(scope) != expectedScope {
		return fmt.Errorf("scope mismatch")
	}

	payload := strings.Join([]string{scope, nonce, timestamp}, delimiter)
	if !Equal(signature, c.sign(payload)) {
		return fmt.Errorf("invalid signature")
	}

	// check age
	maxAge, ok := c.maxAge[expectedScope]
	if !ok || maxAge <= 0 {
		return nil
	}
	issuedAtMillis, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return errors.Wrap(err, "invalid timestamp")
	}
	issuedAt := time.UnixMilli(issuedAtMillis)
	now := c.now()
	if issuedAt.After(now.Add(clockSkew)) {
		return fmt.Errorf("token issued in the future")
	}
	if now.Sub(issuedAt) > maxAge {
		return fmt.Errorf("token is already expired")
	}

	return nil
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
