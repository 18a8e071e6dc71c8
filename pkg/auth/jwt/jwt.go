// Package jwt issues and verifies the bearer tokens handed out at
// registration and login.
//
// Tokens are HS256-signed JWTs whose only identity claim is the account id
// in "sub". They carry a fixed expiry and are verified against a
// process-wide secret. The Authenticator side of this package is what the
// auth chain runs for every protected request, and it accepts exactly what
// Issue produces.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/quill/pkg/auth"
)

// DefaultTTL is the token lifetime: 36000 minutes, about 25 days.
const DefaultTTL = 36000 * time.Minute

// MinSecretLength is the shortest accepted HMAC secret, in bytes.
const MinSecretLength = 32

// Config holds the token manager configuration.
type Config struct {
	// Secret is the HMAC key used to sign and verify tokens (required).
	Secret []byte

	// Issuer is written to and required in the iss claim. If empty,
	// issuer is neither written nor validated.
	Issuer string

	// TTL is the token lifetime. Default: DefaultTTL.
	TTL time.Duration

	// Now returns the current time. Default: time.Now. Tests override it.
	Now func() time.Time
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Manager signs new tokens and authenticates requests carrying them.
type Manager struct {
	config Config
}

// Ensure Manager implements auth.Authenticator at compile time.
var _ auth.Authenticator = (*Manager)(nil)

// New creates a token manager. The secret must be at least MinSecretLength bytes.
func New(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretLength, len(cfg.Secret))
	}
	cfg.applyDefaults()
	return &Manager{config: cfg}, nil
}

// Issue signs a token for the given account id.
func (m *Manager) Issue(accountID string) (string, error) {
	if accountID == "" {
		return "", errors.New("issuing token: empty account id")
	}

	now := m.config.Now()
	claims := jwtlib.RegisteredClaims{
		Subject:   accountID,
		Issuer:    m.config.Issuer,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(m.config.TTL)),
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.config.Secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Authenticate extracts a bearer token from the Authorization header and
// verifies it.
//
// Decision outcomes:
//   - Abstain: no Authorization header, not a Bearer scheme, or empty token
//   - No: token present but malformed, badly signed, expired, or missing sub
//   - Yes: valid token; the identity carries the account id from sub
func (m *Manager) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	tokenStr, ok := bearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	claims := &jwtlib.RegisteredClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.config.Secret, nil
	}, m.parserOptions()...)
	if err != nil {
		slog.Debug("token validation failed", "error", err)
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("%w: %v", auth.ErrForbidden, err),
		}
	}

	if !token.Valid || claims.Subject == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("%w: token missing sub claim", auth.ErrForbidden),
		}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			AccountID: claims.Subject,
			Method:    "token",
		},
	}
}

// parserOptions builds JWT parser options based on the configuration.
func (m *Manager) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(m.config.Now),
	}

	if m.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(m.config.Issuer))
	}

	return opts
}

// bearerToken returns the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
